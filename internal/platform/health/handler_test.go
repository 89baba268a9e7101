package health

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"podium/pkg/testutil"
)

func newRouter(h *Handler) chi.Router {
	r := chi.NewRouter()
	h.Register(r)
	return r
}

func TestLivenessAndStatus(t *testing.T) {
	h := New("test")
	h.startTime = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	h.now = func() time.Time { return h.startTime.Add(90 * time.Second) }
	r := newRouter(h)

	rr := testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, "/health/live"))
	testutil.AssertStatusOK(t, rr)
	testutil.AssertJSONContains(t, rr, "status", "alive")

	rr = testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, "/health"))
	testutil.AssertStatusOK(t, rr)
	resp := testutil.UnmarshalResponse[StatusResponse](t, rr)
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "podium", resp.Service)
	assert.Equal(t, "test", resp.Environment)
	assert.Equal(t, int64(90), resp.UptimeSeconds)
	assert.Equal(t, "2026-01-01T00:01:30Z", resp.Timestamp)
}

func TestReadiness(t *testing.T) {
	t.Run("no checks registered", func(t *testing.T) {
		rr := testutil.DoRequest(newRouter(New("test")), testutil.NewRequest(t, http.MethodGet, "/health/ready"))
		testutil.AssertStatusOK(t, rr)
		testutil.AssertJSONContains(t, rr, "status", "ready")
	})

	t.Run("all checks up", func(t *testing.T) {
		h := New("test")
		h.RegisterCheck("database", func(context.Context) error { return nil })
		h.RegisterCheck("kafka", func(context.Context) error { return nil })

		rr := testutil.DoRequest(newRouter(h), testutil.NewRequest(t, http.MethodGet, "/health/ready"))
		testutil.AssertStatusOK(t, rr)
		resp := testutil.UnmarshalResponse[ReadinessResponse](t, rr)
		assert.Equal(t, "ready", resp.Status)
		assert.Equal(t, "up", resp.Checks["database"].Status)
		assert.Equal(t, "up", resp.Checks["kafka"].Status)
	})

	t.Run("one check down does not hide the others", func(t *testing.T) {
		h := New("test")
		fixed := time.Now()
		h.now = func() time.Time { return fixed }
		h.RegisterCheck("database", func(context.Context) error { return nil })
		h.RegisterCheck("redis", func(context.Context) error { return errors.New("connection refused") })

		rr := testutil.DoRequest(newRouter(h), testutil.NewRequest(t, http.MethodGet, "/health/ready"))
		testutil.AssertStatus(t, rr, http.StatusServiceUnavailable)
		resp := testutil.UnmarshalResponse[ReadinessResponse](t, rr)
		assert.Equal(t, "not_ready", resp.Status)
		assert.Equal(t, "up", resp.Checks["database"].Status)
		assert.Equal(t, CheckResult{Status: "down", Error: "connection refused"}, resp.Checks["redis"])
	})

	t.Run("a hanging check is cut off by the timeout", func(t *testing.T) {
		h := New("test")
		h.RegisterCheck("kafka", func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		})

		start := time.Now()
		rr := testutil.DoRequest(newRouter(h), testutil.NewRequest(t, http.MethodGet, "/health/ready"))
		assert.Less(t, time.Since(start), checkTimeout+time.Second)
		testutil.AssertStatus(t, rr, http.StatusServiceUnavailable)
		resp := testutil.UnmarshalResponse[ReadinessResponse](t, rr)
		assert.Equal(t, "down", resp.Checks["kafka"].Status)
	})
}
