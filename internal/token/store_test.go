package token

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mentionbot/internal/domain"
	"mentionbot/internal/metrics"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestStore(t *testing.T, dir string, key []byte) *Store {
	t.Helper()
	s, err := NewStore(StoreConfig{Dir: dir, Key: key, Logger: testLogger()})
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func sampleRecord() domain.TokenRecord {
	return domain.TokenRecord{
		AccessToken: "xoxb-1234-abcd",
		TeamID:      "T0123456",
		TeamName:    "Acme",
		BotUserID:   "U0BOT",
		AppID:       "A0APP",
	}
}

func TestStore_SaveThenLoadFromDisk(t *testing.T) {
	dir := t.TempDir()
	key := testKey(t)

	if err := newTestStore(t, dir, key).Save(sampleRecord()); err != nil {
		t.Fatal(err)
	}

	// A fresh store has an empty in-memory cache, forcing the disk path.
	got, ok := newTestStore(t, dir, key).Load("T0123456")
	if !ok {
		t.Fatal("expected record to load from disk")
	}
	if got != sampleRecord() {
		t.Errorf("loaded record mismatch: %+v", got)
	}
}

func TestStore_FileLayout(t *testing.T) {
	dir := t.TempDir()
	s := newTestStore(t, dir, testKey(t))
	if err := s.Save(sampleRecord()); err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "T0123456.txt"))
	if err != nil {
		t.Fatal(err)
	}
	content := string(raw)
	ivHex, cipherHex, found := strings.Cut(content, ":")
	if !found || len(ivHex) != 32 || len(cipherHex) == 0 {
		t.Errorf("unexpected file layout: %q", content)
	}
	if strings.Contains(content, "xoxb-1234-abcd") {
		t.Error("access token stored in cleartext")
	}
}

func TestStore_LoadMissingTeam(t *testing.T) {
	s := newTestStore(t, t.TempDir(), testKey(t))
	if _, ok := s.Load("T_NEVER_INSTALLED"); ok {
		t.Error("expected absent for unknown team")
	}
}

func TestStore_ReinstallReplacesRecord(t *testing.T) {
	dir := t.TempDir()
	key := testKey(t)
	s := newTestStore(t, dir, key)

	if err := s.Save(sampleRecord()); err != nil {
		t.Fatal(err)
	}
	updated := sampleRecord()
	updated.AccessToken = "xoxb-rotated"
	updated.TeamName = "Acme Renamed"
	if err := s.Save(updated); err != nil {
		t.Fatal(err)
	}

	got, ok := newTestStore(t, dir, key).Load("T0123456")
	if !ok || got != updated {
		t.Errorf("expected replaced record, got %+v (ok=%v)", got, ok)
	}
}

func TestStore_CorruptRecordTreatedAsAbsent(t *testing.T) {
	dir := t.TempDir()
	key := testKey(t)
	s := newTestStore(t, dir, key)
	if err := s.Save(sampleRecord()); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(filepath.Join(dir, "T0123456.txt"), []byte("not:hexdata"), 0o600); err != nil {
		t.Fatal(err)
	}

	collector := metrics.NewCollector()
	fresh, err := NewStore(StoreConfig{Dir: dir, Key: key, Logger: testLogger(), Collector: collector})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := fresh.Load("T0123456"); ok {
		t.Error("corrupt record should be reported as absent")
	}
	failures := collector.Counter("mentionbot_token_decode_failures_total", "")
	if failures.Value() != 1 {
		t.Errorf("expected 1 decode failure recorded, got %d", failures.Value())
	}
}

func TestStore_WrongKeyTreatedAsAbsent(t *testing.T) {
	dir := t.TempDir()
	if err := newTestStore(t, dir, testKey(t)).Save(sampleRecord()); err != nil {
		t.Fatal(err)
	}
	if _, ok := newTestStore(t, dir, testKey(t)).Load("T0123456"); ok {
		t.Error("record sealed under a different key should be absent")
	}
}

func TestStore_MemoryHitSkipsDisk(t *testing.T) {
	dir := t.TempDir()
	s := newTestStore(t, dir, testKey(t))
	if err := s.Save(sampleRecord()); err != nil {
		t.Fatal(err)
	}

	// Removing the file must not matter while the in-memory copy exists.
	if err := os.Remove(filepath.Join(dir, "T0123456.txt")); err != nil {
		t.Fatal(err)
	}
	if _, ok := s.Load("T0123456"); !ok {
		t.Error("expected in-memory hit after file removal")
	}
}

func TestNewStore_RejectsBadKeyLength(t *testing.T) {
	_, err := NewStore(StoreConfig{Dir: t.TempDir(), Key: []byte("tiny"), Logger: testLogger()})
	if err == nil {
		t.Error("expected error for short key")
	}
}
