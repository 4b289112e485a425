// Package token persists per-team OAuth credentials, encrypted at rest.
// Layout: one file per team under the storage directory, named
// "<teamID>.txt", containing "ivHex:cipherHex".
package token

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"mentionbot/internal/domain"
	"mentionbot/internal/metrics"
)

// Store is the per-team credential store: an in-memory cache-aside map over
// encrypted on-disk records. The disk record is authoritative.
//
// The mutex protects the map itself, not per-team transactions: two
// concurrent saves (or a save racing a load) for the same team interleave
// with last-write-wins semantics on both copies.
type Store struct {
	dir    string
	key    []byte
	logger *slog.Logger

	mu     sync.RWMutex
	cached map[string]domain.TokenRecord

	decodeFailures *metrics.Counter
}

// StoreConfig configures a Store.
type StoreConfig struct {
	Dir       string // storage directory, created if missing
	Key       []byte // 32-byte AES key
	Logger    *slog.Logger
	Collector *metrics.Collector // optional
}

// NewStore creates the storage directory and returns a Store.
func NewStore(cfg StoreConfig) (*Store, error) {
	if len(cfg.Key) != KeySize {
		return nil, fmt.Errorf("token: key must be %d bytes, got %d", KeySize, len(cfg.Key))
	}
	if err := os.MkdirAll(cfg.Dir, 0o700); err != nil {
		return nil, fmt.Errorf("token: create storage dir %s: %w", cfg.Dir, err)
	}
	s := &Store{
		dir:    cfg.Dir,
		key:    cfg.Key,
		logger: cfg.Logger,
		cached: make(map[string]domain.TokenRecord),
	}
	if cfg.Collector != nil {
		s.decodeFailures = cfg.Collector.Counter(
			"mentionbot_token_decode_failures_total",
			"Token records that existed on disk but failed to decrypt or parse",
		)
	}
	return s, nil
}

func (s *Store) path(teamID string) string {
	return filepath.Join(s.dir, teamID+".txt")
}

// Save encrypts the record and writes it to the team's file, then updates
// the in-memory copy. A filesystem failure propagates: the install flow must
// treat it as fatal.
func (s *Store) Save(rec domain.TokenRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("token: marshal record for team %s: %w", rec.TeamID, err)
	}
	sealed, err := Encrypt(s.key, raw)
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.path(rec.TeamID), []byte(sealed), 0o600); err != nil {
		return fmt.Errorf("token: write record for team %s: %w", rec.TeamID, err)
	}

	s.mu.Lock()
	s.cached[rec.TeamID] = rec
	s.mu.Unlock()

	s.logger.Info("token saved", "team", rec.TeamID, "team_name", rec.TeamName)
	return nil
}

// Load returns the team's record, reading and decrypting the on-disk copy on
// a cache miss. A missing file means "no credential for this team" and is
// not an error. An undecryptable or unparseable record is logged, counted,
// and also reported as absent, so callers fall back to the default client.
func (s *Store) Load(teamID string) (domain.TokenRecord, bool) {
	s.mu.RLock()
	rec, ok := s.cached[teamID]
	s.mu.RUnlock()
	if ok {
		return rec, true
	}

	sealed, err := os.ReadFile(s.path(teamID))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Error("token file unreadable", "team", teamID, "err", err)
		}
		return domain.TokenRecord{}, false
	}

	raw, err := Decrypt(s.key, string(sealed))
	if err != nil {
		s.noteDecodeFailure(teamID, err)
		return domain.TokenRecord{}, false
	}
	if err := json.Unmarshal(raw, &rec); err != nil {
		s.noteDecodeFailure(teamID, err)
		return domain.TokenRecord{}, false
	}

	s.mu.Lock()
	s.cached[teamID] = rec
	s.mu.Unlock()

	return rec, true
}

// noteDecodeFailure makes corruption distinguishable from "never installed"
// in logs and metrics, even though Load reports both as absent.
func (s *Store) noteDecodeFailure(teamID string, err error) {
	s.logger.Error("token record corrupt, treating as absent", "team", teamID, "err", err)
	if s.decodeFailures != nil {
		s.decodeFailures.Inc()
	}
}
