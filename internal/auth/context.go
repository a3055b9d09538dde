package auth

import (
	"context"
	"errors"
)

type ctxKey int

const (
	ctxUserID ctxKey = iota
	ctxTier
)

func WithIdentity(ctx context.Context, userID, tier string) context.Context {
	ctx = context.WithValue(ctx, ctxUserID, userID)
	ctx = context.WithValue(ctx, ctxTier, tier)
	return ctx
}

func UserID(ctx context.Context) (string, error) {
	v := ctx.Value(ctxUserID)
	if s, ok := v.(string); ok && s != "" {
		return s, nil
	}
	return "", errors.New("user_id not in context")
}

func Tier(ctx context.Context) (string, error) {
	v := ctx.Value(ctxTier)
	if s, ok := v.(string); ok && s != "" {
		return s, nil
	}
	return "", errors.New("tier not in context")
}
