package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/sysu-ecnc-dev/ga-lab/internal/config"
)

// Repository 归档运行结果，表结构见 migrations/
type Repository struct {
	cfg    *config.Config
	dbpool *sql.DB
}

func NewRepository(cfg *config.Config, dbpool *sql.DB) *Repository {
	return &Repository{
		cfg:    cfg,
		dbpool: dbpool,
	}
}

// queryContext 为单条查询设置超时
func (r *Repository) queryContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
}
