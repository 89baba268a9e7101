package requestcontext

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	id "podium/pkg/domain"
)

func TestAccessorsDefaultToZeroValues(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, id.CallerID(""), Caller(ctx))
	assert.Empty(t, RequestID(ctx))
	assert.Empty(t, TokenID(ctx))
	assert.Empty(t, ClientIP(ctx))
	assert.Empty(t, UserAgent(ctx))
	assert.WithinDuration(t, time.Now(), Now(ctx), time.Second)
}

func TestAccessorsReturnInjectedValues(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ctx := WithCaller(context.Background(), "alice")
	ctx = WithRequestID(ctx, "req-1")
	ctx = WithTokenID(ctx, "jti-1")
	ctx = WithClientIP(ctx, "10.0.0.1")
	ctx = WithUserAgent(ctx, "curl/8.5.0")
	ctx = WithTime(ctx, fixed)

	assert.Equal(t, id.CallerID("alice"), Caller(ctx))
	assert.Equal(t, "req-1", RequestID(ctx))
	assert.Equal(t, "jti-1", TokenID(ctx))
	assert.Equal(t, "10.0.0.1", ClientIP(ctx))
	assert.Equal(t, "curl/8.5.0", UserAgent(ctx))
	assert.Equal(t, fixed, Now(ctx))
}
