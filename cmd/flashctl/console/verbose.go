package console

import "context"

type ctxKey int

const ctxKeyVerbose ctxKey = iota

// WithVerbose marks ctx so commands print per-step details.
func WithVerbose(parent context.Context, value bool) context.Context {
	return context.WithValue(parent, ctxKeyVerbose, value)
}

func IsVerbose(ctx context.Context) bool {
	v, _ := ctx.Value(ctxKeyVerbose).(bool)
	return v
}
