package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"chat-realtime/internal/mocks"
	"chat-realtime/internal/observability"
)

func TestEmitPublishesEnvelope(t *testing.T) {
	pub := new(mocks.PublisherMock)
	emitter := NewAuditEmitter(pub, "audit.chat", "chat-realtime", "test")
	uid := 7

	pub.On("Publish", mock.Anything, "audit.chat", mock.MatchedBy(func(env AuditEnvelope) bool {
		return env.EventType == "audit_log" &&
			env.Service == "chat-realtime" &&
			env.Environment == "test" &&
			env.RequestID == "req-9" &&
			env.UserID != nil && *env.UserID == 7 &&
			env.Payload == AuditPayload{Level: "INFO", Text: "group created"}
	}), map[string]string{observability.HeaderRequestID: "req-9"}).Return(nil).Once()

	emitter.Emit(context.Background(), "INFO", "group created", "req-9", &uid)
	pub.AssertExpectations(t)
}

func TestEmitSwallowsPublishError(t *testing.T) {
	pub := new(mocks.PublisherMock)
	emitter := NewAuditEmitter(pub, "audit.chat", "svc", "test")
	pub.On("Publish", mock.Anything, "audit.chat", mock.Anything, mock.Anything).Return(assert.AnError).Once()

	assert.NotPanics(t, func() {
		emitter.Emit(context.Background(), "ERROR", "boom", "", nil)
	})
	pub.AssertExpectations(t)
}

func TestNilEmitter(t *testing.T) {
	var emitter *AuditEmitter
	assert.NotPanics(t, func() {
		emitter.Emit(context.Background(), "INFO", "x", "", nil)
	})
}
