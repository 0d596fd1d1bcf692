package session

import (
	"context"
	"fmt"
)

// ConsentKey is the key of the cookie consent flag.
const ConsentKey = "cookieConsentAccepted"

// ConsentStore remembers whether the cookie notice was accepted. It is kept
// apart from the session record and survives sign out.
type ConsentStore struct {
	persister Persister
}

func NewConsentStore(p Persister) *ConsentStore {
	return &ConsentStore{persister: p}
}

func (c *ConsentStore) Accepted(ctx context.Context) (bool, error) {
	raw, found, err := c.persister.Load(ctx, ConsentKey)
	if err != nil {
		return false, fmt.Errorf("failed to load consent: %w", err)
	}
	return found && string(raw) == "true", nil
}

func (c *ConsentStore) Accept(ctx context.Context) error {
	if err := c.persister.Save(ctx, ConsentKey, []byte("true")); err != nil {
		return fmt.Errorf("failed to save consent: %w", err)
	}
	return nil
}
