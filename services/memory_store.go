package services

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"vibin_matcher/models"
)

// MemoryStore keeps the pool in process memory. It backs the "memory"
// store backend and the coordinator tests.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]models.PoolRecord
	matches []models.Match

	// ReadErr and CommitErr, when set, are returned by ReadPool and
	// CommitMatch.
	ReadErr   error
	CommitErr error
}

// NewMemoryStore returns a store holding records.
func NewMemoryStore(records ...models.PoolRecord) *MemoryStore {
	s := &MemoryStore{records: make(map[string]models.PoolRecord, len(records))}
	for _, r := range records {
		s.records[r.Entry.EntryID] = r
	}
	return s
}

// Add puts a record into the pool.
func (s *MemoryStore) Add(rec models.PoolRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.Entry.EntryID] = rec
}

func (s *MemoryStore) sortedIDs() []string {
	ids := make([]string, 0, len(s.records))
	for id := range s.records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ReadPool returns a copy of every record.
func (s *MemoryStore) ReadPool(ctx context.Context) ([]models.PoolRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ReadErr != nil {
		return nil, s.ReadErr
	}
	out := make([]models.PoolRecord, 0, len(s.records))
	for _, id := range s.sortedIDs() {
		out = append(out, s.records[id])
	}
	return out, nil
}

// ListPoolEntries returns every entry.
func (s *MemoryStore) ListPoolEntries(ctx context.Context) ([]models.PoolEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.PoolEntry, 0, len(s.records))
	for _, id := range s.sortedIDs() {
		out = append(out, s.records[id].Entry)
	}
	return out, nil
}

// CommitMatch stores match and deletes its entries, or changes nothing if
// any entry is missing.
func (s *MemoryStore) CommitMatch(ctx context.Context, match models.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CommitErr != nil {
		return s.CommitErr
	}
	for _, id := range match.EntryIDs() {
		if _, ok := s.records[id]; !ok {
			return fmt.Errorf("match %s entry %s: %w", match.MatchID, id, ErrEntryGone)
		}
	}
	for _, id := range match.EntryIDs() {
		delete(s.records, id)
	}
	s.matches = append(s.matches, match)
	return nil
}

// UpdateTier raises an entry's tier.
func (s *MemoryStore) UpdateTier(ctx context.Context, entryID string, tier int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[entryID]
	if !ok || rec.Entry.Tier >= tier {
		return nil
	}
	rec.Entry.Tier = tier
	s.records[entryID] = rec
	return nil
}

// DeleteEntry removes an entry.
func (s *MemoryStore) DeleteEntry(ctx context.Context, entryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, entryID)
	return nil
}

// Matches returns the matches committed so far.
func (s *MemoryStore) Matches() []models.Match {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Match(nil), s.matches...)
}

// MatchesForUser returns the matches userID belongs to, newest first.
func (s *MemoryStore) MatchesForUser(ctx context.Context, userID string) ([]models.Match, error) {
	s.mu.Lock()
	var out []models.Match
	for _, m := range s.matches {
		for _, u := range m.Users {
			if u == userID {
				out = append(out, m)
				break
			}
		}
	}
	s.mu.Unlock()
	sortNewestFirst(out)
	return out, nil
}

// Entry returns the entry with id, if still pooled.
func (s *MemoryStore) Entry(id string) (models.PoolEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	return rec.Entry, ok
}

// MemoryLocker is an in-process advisory lock.
type MemoryLocker struct {
	mu   sync.Mutex
	held map[string]bool

	// AcquireErr, when set, is returned by TryAcquire.
	AcquireErr error
	// Releases counts successful releases.
	Releases int
}

// NewMemoryLocker returns an unlocked locker.
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{held: make(map[string]bool)}
}

// TryAcquire takes key if nobody holds it.
func (l *MemoryLocker) TryAcquire(ctx context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.AcquireErr != nil {
		return false, l.AcquireErr
	}
	if l.held[key] {
		return false, nil
	}
	l.held[key] = true
	return true, nil
}

// Release frees key.
func (l *MemoryLocker) Release(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.held[key] {
		return fmt.Errorf("release %q: %w", key, ErrLockNotHeld)
	}
	delete(l.held, key)
	l.Releases++
	return nil
}

// Held reports whether key is currently held.
func (l *MemoryLocker) Held(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.held[key]
}
