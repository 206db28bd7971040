package auth

import (
	"context"
	"errors"
)

type ctxKey int

const ctxWindowID ctxKey = iota

func WithWindow(ctx context.Context, windowID string) context.Context {
	return context.WithValue(ctx, ctxWindowID, windowID)
}

func WindowID(ctx context.Context) (string, error) {
	v := ctx.Value(ctxWindowID)
	if s, ok := v.(string); ok && s != "" {
		return s, nil
	}
	return "", errors.New("window_id not in context")
}
