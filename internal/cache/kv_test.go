package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNoopKV_AlwaysMisses(t *testing.T) {
	ctx := context.Background()
	var kv KV = NoopKV{}

	assert.NoError(t, kv.Set(ctx, "fdv:url:1", "cached", time.Minute))

	_, err := kv.Get(ctx, "fdv:url:1")
	assert.ErrorIs(t, err, ErrMiss)
	assert.NoError(t, kv.Delete(ctx, "fdv:url:1"))
}
