package evolution

import (
	"github.com/go-playground/validator/v10"
)

// 遗传算法参数
type Parameters struct {
	SampleSize     int     `validate:"min=2"`       // 种群大小
	Elitism        int     `validate:"min=0"`       // 精英数量
	Culling        int     `validate:"min=0"`       // 每代淘汰的最差个体数量
	MutationRate   float64 `validate:"min=0,max=1"` // 变异概率
	MaxGenerations int     `validate:"min=0"`       // 最大迭代次数，0 表示只受时间限制
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		p := sl.Current().Interface().(Parameters)
		// 精英和淘汰之外至少要留下两个父本候选
		if p.Elitism+p.Culling >= p.SampleSize || p.SampleSize-p.Culling < 2 {
			sl.ReportError(p.Culling, "Culling", "Culling", "parentpool", "")
		}
	}, Parameters{})
	return v
}

func (p Parameters) Validate() error {
	return validate.Struct(p)
}
