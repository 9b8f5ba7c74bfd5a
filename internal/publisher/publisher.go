// Package publisher defines the document notification interface.
package publisher

import "context"

// Publisher delivers serialized document records to downstream consumers.
// Implementations return the broker-assigned message ID.
type Publisher interface {
	Publish(ctx context.Context, payload []byte) (string, error)
}
