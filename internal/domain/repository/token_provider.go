package repository

import "context"

// TokenProvider exchanges the configured service credential for a short-lived bearer token.
// Every call performs a fresh exchange.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}
