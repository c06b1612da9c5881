package logging

import (
	"context"

	"go.viam.com/utils"
)

type debugKey struct{}

// EnableDebugMode returns a context under which the C-prefixed methods log at every level. Entries
// logged under it carry key in a "debug" field; an empty key is replaced with a random one.
func EnableDebugMode(ctx context.Context, key string) context.Context {
	if key == "" {
		key = utils.RandomAlphaString(6)
	}
	return context.WithValue(ctx, debugKey{}, key)
}

// IsDebugMode returns whether ctx came from EnableDebugMode.
func IsDebugMode(ctx context.Context) bool {
	return DebugKey(ctx) != ""
}

// DebugKey returns the key given to EnableDebugMode, or "".
func DebugKey(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	key, _ := ctx.Value(debugKey{}).(string)
	return key
}
