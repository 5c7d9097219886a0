package gotrue

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/uptrace/bun"
)

// MemorySessionStore keeps the persisted session in process memory. Useful
// as a default and in tests.
type MemorySessionStore struct {
	mu      sync.Mutex
	session *Session
}

var _ SessionStore = (*MemorySessionStore)(nil)

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{}
}

func (s *MemorySessionStore) Load(ctx context.Context) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return nil, nil
	}

	clone := *s.session
	return &clone, nil
}

func (s *MemorySessionStore) Save(ctx context.Context, session *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if session == nil {
		s.session = nil
		return nil
	}

	clone := *session
	s.session = &clone
	return nil
}

func (s *MemorySessionStore) Delete(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.session = nil
	return nil
}

// SessionRecord is the persisted shape of the current session. The table
// holds at most one row, mirroring the in-memory invariant.
type SessionRecord struct {
	bun.BaseModel `bun:"table:gotrue_sessions,alias:gts"`
	ID            int64     `bun:"id,pk" json:"id"`
	AccessToken   string    `bun:"access_token,notnull" json:"access_token"`
	RefreshToken  string    `bun:"refresh_token" json:"refresh_token,omitempty"`
	ExpiresAt     int64     `bun:"expires_at" json:"expires_at,omitempty"`
	Payload       []byte    `bun:"payload,notnull" json:"payload"`
	UpdatedAt     time.Time `bun:"updated_at,nullzero" json:"updated_at,omitempty"`
}

const currentSessionID int64 = 1

// BunSessionStore persists the current session in a single database row so
// a client can restore it across process restarts.
type BunSessionStore struct {
	db *bun.DB
}

var _ SessionStore = (*BunSessionStore)(nil)

func NewBunSessionStore(db *bun.DB) *BunSessionStore {
	return &BunSessionStore{db: db}
}

// Migrate creates the sessions table when it does not exist yet.
func (s *BunSessionStore) Migrate(ctx context.Context) error {
	_, err := s.db.NewCreateTable().
		Model((*SessionRecord)(nil)).
		IfNotExists().
		Exec(ctx)
	return err
}

func (s *BunSessionStore) Load(ctx context.Context) (*Session, error) {
	record := &SessionRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("id = ?", currentSessionID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	session := &Session{}
	if err := json.Unmarshal(record.Payload, session); err != nil {
		return nil, err
	}

	return session, nil
}

func (s *BunSessionStore) Save(ctx context.Context, session *Session) error {
	if session == nil {
		return s.Delete(ctx)
	}

	payload, err := json.Marshal(session)
	if err != nil {
		return err
	}

	record := &SessionRecord{
		ID:           currentSessionID,
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
		ExpiresAt:    session.ExpiresAt,
		Payload:      payload,
		UpdatedAt:    time.Now(),
	}

	_, err = s.db.NewInsert().
		Model(record).
		On("CONFLICT (id) DO UPDATE").
		Set("access_token = EXCLUDED.access_token").
		Set("refresh_token = EXCLUDED.refresh_token").
		Set("expires_at = EXCLUDED.expires_at").
		Set("payload = EXCLUDED.payload").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

func (s *BunSessionStore) Delete(ctx context.Context) error {
	_, err := s.db.NewDelete().
		Model((*SessionRecord)(nil)).
		Where("id = ?", currentSessionID).
		Exec(ctx)
	return err
}
