package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/docsrag/internal/core/domain"
	"github.com/custodia-labs/docsrag/internal/core/ports/driving"
	"github.com/custodia-labs/docsrag/internal/logger"
)

const (
	// statusLogger names the logger on forwarded status notifications.
	statusLogger = "docsrag.status"

	// statusQueue bounds the events waiting for delivery. Crawls never
	// wait on a slow client; overflow is dropped.
	statusQueue = 64
)

// StatusNotification is the data of a forwarded status event.
type StatusNotification struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	URL     string `json:"url,omitempty"`
	Visited int    `json:"visited,omitempty"`
	Budget  int    `json:"budget,omitempty"`
	Chunks  int    `json:"chunks,omitempty"`
}

// forwardStatus relays status events to every connected client until
// ctx is done. Clients only receive them after setting a log level.
func (s *Server) forwardStatus(ctx context.Context) {
	if s.ports.Status == nil {
		return
	}

	events := make(chan domain.StatusEvent, statusQueue)
	unsubscribe := s.ports.Status.Subscribe(driving.StatusFunc(func(event domain.StatusEvent) {
		select {
		case events <- event:
		default:
			logger.Debug("mcp: status queue full, dropping %s", event.Kind)
		}
	}))

	go func() {
		defer unsubscribe()
		for {
			select {
			case <-ctx.Done():
				return
			case event := <-events:
				s.broadcast(ctx, event)
			}
		}
	}()
}

func (s *Server) broadcast(ctx context.Context, event domain.StatusEvent) {
	params := &mcp.LoggingMessageParams{
		Level:  "info",
		Logger: statusLogger,
		Data: StatusNotification{
			Kind:    string(event.Kind),
			Message: event.Message,
			URL:     event.URL,
			Visited: event.Visited,
			Budget:  event.Budget,
			Chunks:  event.Chunks,
		},
	}
	for session := range s.server.Sessions() {
		if err := session.Log(ctx, params); err != nil {
			logger.Debug("mcp: forwarding status: %v", err)
		}
	}
}
