package auth

import "context"

type contextKey string

const (
	clientIDKey contextKey = "clientID"
	issuedKey   contextKey = "clientIDIssued"
)

// WithClientID stores the caller's client ID in ctx.
func WithClientID(ctx context.Context, clientID string) context.Context {
	return context.WithValue(ctx, clientIDKey, clientID)
}

// WithIssuedClientID stores a client ID that was minted for this request
// rather than presented by the caller.
func WithIssuedClientID(ctx context.Context, clientID string) context.Context {
	return context.WithValue(WithClientID(ctx, clientID), issuedKey, true)
}

// ClientIDFromContext returns the client ID stored by WithClientID or "".
func ClientIDFromContext(ctx context.Context) string {
	clientID, _ := ctx.Value(clientIDKey).(string)
	return clientID
}

// ClientIDIssued reports whether the client ID in ctx was minted for this request.
func ClientIDIssued(ctx context.Context) bool {
	issued, _ := ctx.Value(issuedKey).(bool)
	return issued
}
