package ai

import (
	"context"
	"sync"
	"time"

	"github.com/kapu/quien-soy-bot-go/internal/util"
	"go.uber.org/zap"
)

// RemoteStore is the shared cache layer behind the in-process map.
// cache.CacheService satisfies it.
type RemoteStore interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

type verdictEntry struct {
	correct  bool
	storedAt time.Time
}

// VerdictCache remembers judge decisions keyed by the folded answer and
// guess, so "Penélope Cruz" and "penelope cruz" share one entry.
type VerdictCache struct {
	mu       sync.Mutex
	entries  map[string]verdictEntry
	capacity int
	ttl      time.Duration
	remote   RemoteStore
	now      func() time.Time
	logger   *zap.Logger
}

// NewVerdictCache builds a cache holding up to capacity entries for ttl.
// remote may be nil.
func NewVerdictCache(capacity int, ttl time.Duration, remote RemoteStore, logger *zap.Logger) *VerdictCache {
	if capacity <= 0 {
		capacity = 1
	}
	return &VerdictCache{
		entries:  make(map[string]verdictEntry),
		capacity: capacity,
		ttl:      ttl,
		remote:   remote,
		now:      time.Now,
		logger:   logger,
	}
}

func VerdictKey(answer, guess string) string {
	return "verdict:" + util.FoldKey(answer) + "|" + util.FoldKey(guess)
}

// Lookup returns the remembered verdict and whether one was found.
func (vc *VerdictCache) Lookup(ctx context.Context, answer, guess string) (bool, bool) {
	if vc == nil {
		return false, false
	}
	key := VerdictKey(answer, guess)

	vc.mu.Lock()
	entry, ok := vc.entries[key]
	if ok && vc.expired(entry) {
		delete(vc.entries, key)
		ok = false
	}
	vc.mu.Unlock()
	if ok {
		return entry.correct, true
	}

	if vc.remote == nil {
		return false, false
	}

	var correct bool
	found, err := vc.remote.Get(ctx, key, &correct)
	if err != nil {
		vc.logger.Warn("Verdict cache remote lookup failed", zap.String("key", key), zap.Error(err))
		return false, false
	}
	if !found {
		return false, false
	}

	vc.storeLocal(key, correct)
	return correct, true
}

func (vc *VerdictCache) Store(ctx context.Context, answer, guess string, correct bool) {
	if vc == nil {
		return
	}
	key := VerdictKey(answer, guess)
	vc.storeLocal(key, correct)

	if vc.remote != nil {
		if err := vc.remote.Set(ctx, key, correct, vc.ttl); err != nil {
			vc.logger.Warn("Verdict cache remote store failed", zap.String("key", key), zap.Error(err))
		}
	}
}

func (vc *VerdictCache) Len() int {
	vc.mu.Lock()
	defer vc.mu.Unlock()
	return len(vc.entries)
}

func (vc *VerdictCache) storeLocal(key string, correct bool) {
	vc.mu.Lock()
	defer vc.mu.Unlock()

	if _, exists := vc.entries[key]; !exists && len(vc.entries) >= vc.capacity {
		vc.evictLocked()
	}
	vc.entries[key] = verdictEntry{correct: correct, storedAt: vc.now()}
}

// evictLocked drops expired entries, or the oldest one when none expired.
func (vc *VerdictCache) evictLocked() {
	var oldestKey string
	var oldest time.Time
	removed := false

	for key, entry := range vc.entries {
		if vc.expired(entry) {
			delete(vc.entries, key)
			removed = true
			continue
		}
		if oldestKey == "" || entry.storedAt.Before(oldest) {
			oldestKey = key
			oldest = entry.storedAt
		}
	}

	if !removed && oldestKey != "" {
		delete(vc.entries, oldestKey)
	}
}

func (vc *VerdictCache) expired(entry verdictEntry) bool {
	return vc.ttl > 0 && vc.now().Sub(entry.storedAt) > vc.ttl
}
