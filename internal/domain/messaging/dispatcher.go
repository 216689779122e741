package messaging

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Dispatcher hands a message to a delivery provider and returns the
// provider's reference id.
type Dispatcher interface {
	Dispatch(ctx context.Context, m *MessageLog) (providerID string, err error)
}

// LogDispatcher writes messages to the application log instead of a real
// SMS gateway. It is the default in environments without provider
// credentials.
type LogDispatcher struct {
	log zerolog.Logger
}

func NewLogDispatcher(log zerolog.Logger) *LogDispatcher {
	return &LogDispatcher{log: log}
}

func (d *LogDispatcher) Dispatch(_ context.Context, m *MessageLog) (string, error) {
	ref := "log-" + uuid.NewString()
	d.log.Info().
		Str("channel", string(m.Channel)).
		Str("recipient", m.Recipient).
		Str("provider_id", ref).
		Msg(m.Body)
	return ref, nil
}
