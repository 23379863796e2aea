package mock

import (
	"context"

	"github.com/nvbach/questwatch/internal/outputs/webhook"
)

// Delivery records one Send call.
type Delivery struct {
	Endpoint string
	Message  webhook.Message
}

type Sender struct {
	Deliveries []Delivery
	// ErrByEndpoint fails sends to specific endpoints; Err fails all sends.
	ErrByEndpoint map[string]error
	Err           error
}

func (s *Sender) Send(ctx context.Context, endpoint string, msg webhook.Message) error {
	_ = ctx
	s.Deliveries = append(s.Deliveries, Delivery{Endpoint: endpoint, Message: msg})
	if s.Err != nil {
		return s.Err
	}
	if s.ErrByEndpoint != nil {
		if err, ok := s.ErrByEndpoint[endpoint]; ok {
			return err
		}
	}
	return nil
}
