package storage

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/studio/pkg/apiclient"
)

// KVPersister exposes the KV area with the (value, found, error) contract
// the session and consent stores expect.
type KVPersister struct {
	store Store
}

func NewKVPersister(s Store) *KVPersister {
	return &KVPersister{store: s}
}

func (p *KVPersister) Load(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := p.store.KV().Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (p *KVPersister) Save(ctx context.Context, key string, value []byte) error {
	return p.store.KV().Set(ctx, key, value)
}

// JarStore adapts the Cookies repository to apiclient.CookieStore.
type JarStore struct {
	store Store
}

var _ apiclient.CookieStore = (*JarStore)(nil)

func NewJarStore(s Store) *JarStore {
	return &JarStore{store: s}
}

func (j *JarStore) SaveCookies(ctx context.Context, cookies []apiclient.StoredCookie) error {
	if len(cookies) == 0 {
		return j.store.Cookies().Clear(ctx)
	}
	return j.store.WithTx(ctx, func(tx Tx) error {
		return tx.Cookies().Replace(ctx, cookies)
	})
}

func (j *JarStore) LoadCookies(ctx context.Context) ([]apiclient.StoredCookie, error) {
	return j.store.Cookies().List(ctx)
}
