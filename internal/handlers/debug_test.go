package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"chat-realtime/internal/mocks"
	"chat-realtime/internal/telemetry"
)

type fixedPresence []int

func (f fixedPresence) Snapshot() []int { return f }

type fixedEndpoints map[int]int

func (f fixedEndpoints) EndpointCounts() map[int]int { return f }

type sharedPresence struct {
	ids []int
	err error
}

func (s sharedPresence) Members(context.Context) ([]int, error) { return s.ids, s.err }

func TestDebugRoutesDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterDebugRoutes(r, nil, fixedPresence{1}, fixedEndpoints{}, nil, false)

	rec := serve(r, http.MethodGet, "/debug/presence", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDebugPresence(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterDebugRoutes(r, nil, fixedPresence{1, 4}, fixedEndpoints{1: 2, 4: 1}, sharedPresence{ids: []int{1, 4, 9}}, true)

	rec := serve(r, http.MethodGet, "/debug/presence", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"local":[1,4],"endpoints":{"1":2,"4":1},"shared":[1,4,9]}`, rec.Body.String())

	rec = serve(r, http.MethodGet, "/debug/audit-test", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestDebugAuditTest(t *testing.T) {
	gin.SetMode(gin.TestMode)
	pub := new(mocks.PublisherMock)
	emitter := telemetry.NewAuditEmitter(pub, "audit.chat", "svc", "test")
	pub.On("Publish", mock.Anything, "audit.chat", mock.MatchedBy(func(env telemetry.AuditEnvelope) bool {
		return env.RequestID == "req-1" && env.UserID != nil && *env.UserID == 3
	}), mock.Anything).Return(nil).Once()

	r := gin.New()
	r.Use(withUser(3))
	RegisterDebugRoutes(r, emitter, fixedPresence{}, fixedEndpoints{}, nil, true)

	req := newRequest(http.MethodGet, "/debug/audit-test")
	req.Header.Set("X-Request-ID", "req-1")
	rec := record(r, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	pub.AssertExpectations(t)
}
