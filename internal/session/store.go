package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// StorageKey is the key the record is persisted under.
const StorageKey = "persist:auth"

var ErrNotRehydrated = errors.New("session: store not rehydrated")

// Persister is the durable storage behind the store.
type Persister interface {
	Load(ctx context.Context, key string) ([]byte, bool, error)
	Save(ctx context.Context, key string, value []byte) error
}

// Store owns the session record.
type Store struct {
	persister Persister
	logger    *slog.Logger

	mu     sync.RWMutex
	record Record
	ready  bool
	seq    uint64

	subMu  sync.Mutex
	subs   map[int]func(Record)
	nextID int

	// Delivery state. Records reach subscribers in the order the actions
	// were applied; one goroutine delivers at a time.
	pubMu      sync.Mutex
	pending    Record
	pendingSeq uint64
	delivered  uint64
	delivering bool
}

// New creates an empty, not yet rehydrated store. A nil persister keeps the
// record in memory only.
func New(persister Persister, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		persister: persister,
		logger:    logger.With("component", "session"),
		subs:      map[int]func(Record){},
	}
}

// Rehydrate loads the persisted record. It runs once; later calls are
// no-ops. A corrupt record is discarded rather than failing the boot.
func (s *Store) Rehydrate(ctx context.Context) error {
	s.mu.Lock()
	if s.ready {
		s.mu.Unlock()
		return nil
	}

	var loaded Record
	if s.persister != nil {
		raw, found, err := s.persister.Load(ctx, StorageKey)
		if err != nil {
			s.mu.Unlock()
			return fmt.Errorf("failed to load session: %w", err)
		}
		if found {
			if err := json.Unmarshal(raw, &loaded); err != nil {
				s.logger.Warn("discarding unreadable session record", "error", err)
				loaded = Record{}
			}
		}
	}

	s.record = loaded
	s.ready = true
	s.seq++
	snapshot, seq := s.record.clone(), s.seq
	s.mu.Unlock()

	s.logger.Debug("session rehydrated", "has_user", snapshot.UserID != "")
	s.publish(seq, snapshot)
	return nil
}

// Ready reports whether Rehydrate has completed.
func (s *Store) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// Snapshot returns a copy of the current record.
func (s *Store) Snapshot() Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.record.clone()
}

// SetCredentials records the signed in user.
func (s *Store) SetCredentials(ctx context.Context, c Credentials) error {
	verified := c.IsVerified
	return s.apply(ctx, "set_credentials", func(r *Record) {
		r.UserID = c.UserID
		r.Email = c.Email
		r.IsVerified = &verified
	})
}

// ClearCredentials forgets the user. Cooldown timestamps survive so that a
// sign out does not reset them.
func (s *Store) ClearCredentials(ctx context.Context) error {
	return s.apply(ctx, "clear_credentials", func(r *Record) {
		r.UserID = ""
		r.Email = ""
		r.IsVerified = nil
	})
}

// SetResendVerificationRequestedAt records when a verification email was
// last requested.
func (s *Store) SetResendVerificationRequestedAt(ctx context.Context, at time.Time) error {
	return s.apply(ctx, "set_resend_verification_requested_at", func(r *Record) {
		r.ResendVerificationRequestedAt = &at
	})
}

// SetForgotPasswordRequestedAt records when a reset email was last
// requested.
func (s *Store) SetForgotPasswordRequestedAt(ctx context.Context, at time.Time) error {
	return s.apply(ctx, "set_forgot_password_requested_at", func(r *Record) {
		r.ForgotPasswordRequestedAt = &at
	})
}

// apply mutates the record, persists it and notifies subscribers. The
// in-memory record is updated even when persisting fails.
func (s *Store) apply(ctx context.Context, action string, mutate func(*Record)) error {
	s.mu.Lock()
	if !s.ready {
		s.mu.Unlock()
		return ErrNotRehydrated
	}

	mutate(&s.record)
	s.seq++
	snapshot, seq := s.record.clone(), s.seq

	var persistErr error
	if s.persister != nil {
		raw, err := json.Marshal(snapshot)
		if err == nil {
			err = s.persister.Save(ctx, StorageKey, raw)
		}
		if err != nil {
			persistErr = fmt.Errorf("failed to persist session: %w", err)
		}
	}
	s.mu.Unlock()

	s.logger.Debug("session action", "action", action)
	if persistErr != nil {
		s.logger.Error("session not persisted", "action", action, "error", persistErr)
	}

	s.publish(seq, snapshot)
	return persistErr
}

// Subscribe registers fn to be called with the new record after every
// action. Subscribers see records in the order the actions were applied;
// when actions race, intermediate records may be skipped but the last one
// is always delivered. The returned function removes the subscription.
func (s *Store) Subscribe(fn func(Record)) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

// publish hands the record of action seq to the delivering goroutine, or
// becomes it. Records older than one already delivered are dropped. A
// subscriber may call back into the store: its record is delivered once
// the current one returns.
func (s *Store) publish(seq uint64, r Record) {
	s.pubMu.Lock()
	if seq > s.pendingSeq {
		s.pending, s.pendingSeq = r, seq
	}
	if s.delivering {
		s.pubMu.Unlock()
		return
	}
	s.delivering = true

	for s.pendingSeq > s.delivered {
		next := s.pending
		s.delivered = s.pendingSeq
		s.pubMu.Unlock()

		s.notify(next)

		s.pubMu.Lock()
	}
	s.delivering = false
	s.pubMu.Unlock()
}

func (s *Store) notify(r Record) {
	s.subMu.Lock()
	fns := make([]func(Record), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(r.clone())
	}
}
