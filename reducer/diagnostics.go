package reducer

import (
	"context"

	"github.com/on-the-ground/composable_go/dependencies/log"
)

// Misuse kinds reported by the composition operators.
const (
	MisuseUnmatchedCase   = "unmatched_case"
	MisuseAbsentChild     = "absent_child"
	MisuseMissingElement  = "missing_element"
	MisuseDuplicatePushID = "duplicate_push_id"
)

type misuseHookKey struct{}

// WithMisuseHook makes fn observe every misuse reported under ctx, after
// any hook already installed on ctx.
func WithMisuseHook(ctx context.Context, fn func(kind string)) context.Context {
	if prev, ok := ctx.Value(misuseHookKey{}).(func(string)); ok {
		next := fn
		fn = func(kind string) {
			prev(kind)
			next(kind)
		}
	}
	return context.WithValue(ctx, misuseHookKey{}, fn)
}

// reportMisuse is a warning and a no-op, never a crash.
func reportMisuse(ctx context.Context, kind, msg string, fields map[string]interface{}) {
	if fields == nil {
		fields = map[string]interface{}{}
	}
	fields["misuse"] = kind
	log.Effect(ctx, log.LogWarn, msg, fields)
	if fn, ok := ctx.Value(misuseHookKey{}).(func(string)); ok {
		fn(kind)
	}
}
