package interfaces

import "context"

// Messenger delivers user-visible output back through whatever transport the
// submission arrived on.
type Messenger interface {
	SendText(ctx context.Context, userID string, text string) error
	SendDocument(ctx context.Context, userID string, filename string, data []byte, caption string) error
}
