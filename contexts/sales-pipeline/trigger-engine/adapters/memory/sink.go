package memory

import (
	"context"
	"sync"

	"adops/contexts/sales-pipeline/trigger-engine/ports"
	"adops/internal/shared/tenant"
)

// SinkRecorder captures notifications for tests and the dev profile.
type SinkRecorder struct {
	mu   sync.Mutex
	sent []ports.Notification
}

func NewSinkRecorder() *SinkRecorder {
	return &SinkRecorder{}
}

func (s *SinkRecorder) Send(_ context.Context, _ tenant.Context, notification ports.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, notification)
	return nil
}

func (s *SinkRecorder) Sent() []ports.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ports.Notification(nil), s.sent...)
}
