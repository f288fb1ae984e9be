package dispatch

import (
	"context"

	"github.com/rezvera/go-push-service/pkg/push"
)

// Dispatcher defines the contract for a component that can deliver a
// notification to a batch of delivery endpoints through the push gateway.
type Dispatcher interface {
	// Dispatch sends the content to every token and returns the
	// aggregate tally. Delivery failures are tallied, not returned as
	// errors; an error means the request itself was invalid.
	Dispatch(ctx context.Context, tokens []string, content push.Content) (push.Receipt, error)
}

// TokenStore defines the contract for managing user device tokens.
// It lets the service remember "where" to send notifications for a user.
type TokenStore interface {
	// Register adds or updates a device token for a user (upsert on
	// the user/token pair).
	Register(ctx context.Context, userID string, token push.DeviceToken) error

	// Unregister removes one device token for a user.
	Unregister(ctx context.Context, userID, token string) error

	// Tokens resolves every registered delivery endpoint for the given
	// users, flattened. An empty input yields an empty result without
	// touching the store.
	Tokens(ctx context.Context, userIDs []string) ([]string, error)
}
