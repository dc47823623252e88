package handler

type ContextKey string

var (
	SubCtxKey   ContextKey = "sub"
	RunIDCtxKey ContextKey = "runID"
)
