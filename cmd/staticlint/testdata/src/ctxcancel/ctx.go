package ctxcancel

import (
	"context"
	"time"
)

func leaky() context.Context {
	ctx, _ := context.WithTimeout(context.Background(), time.Second) // want "cancel function of context.WithTimeout is discarded"
	return ctx
}

func fine() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = ctx
}
