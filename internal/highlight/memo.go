package highlight

import (
	"sync"
	"sync/atomic"
)

// MemoStats reports cache effectiveness.
type MemoStats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
	Size      int
}

// memoKey identifies a cached result. The fingerprint ties entries to the
// configuration that produced them.
type memoKey struct {
	fingerprint string
	tag         string
	code        string
}

// Memo caches highlight results keyed on (code, tag) so unchanged code
// blocks are not re-tokenized on every keystroke.
//
// Entries are bound to the source's configuration fingerprint; replacing
// the source or calling Invalidate drops every entry. Memo is safe for
// concurrent use.
type Memo struct {
	mu sync.Mutex

	source      *Highlighter
	fingerprint string
	entries     map[memoKey]Result
	maxEntries  int

	// Stats (atomic for reads without holding the lock)
	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

// NewMemo wraps source with a cache of at most maxEntries results.
// maxEntries <= 0 uses a default of 512.
func NewMemo(source *Highlighter, maxEntries int) *Memo {
	if maxEntries <= 0 {
		maxEntries = 512
	}
	return &Memo{
		source:      source,
		fingerprint: source.Fingerprint(),
		entries:     make(map[memoKey]Result),
		maxEntries:  maxEntries,
	}
}

// Highlight returns the cached result for (code, tag), computing it on a
// miss.
func (m *Memo) Highlight(code, tag string) Result {
	m.mu.Lock()
	key := memoKey{fingerprint: m.fingerprint, tag: tag, code: code}
	if res, ok := m.entries[key]; ok {
		m.mu.Unlock()
		m.hits.Add(1)
		return res
	}
	source := m.source
	m.mu.Unlock()

	m.misses.Add(1)
	res := source.Highlight(code, tag)

	m.mu.Lock()
	defer m.mu.Unlock()
	// The source may have been replaced while computing.
	if key.fingerprint != m.fingerprint {
		return res
	}
	if len(m.entries) >= m.maxEntries {
		m.evictLocked()
	}
	m.entries[key] = res
	return res
}

// SetSource replaces the highlighter and drops all cached results.
func (m *Memo) SetSource(source *Highlighter) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.source = source
	m.fingerprint = source.Fingerprint()
	m.clearLocked()
}

// Invalidate drops all cached results.
func (m *Memo) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clearLocked()
}

// Stats returns a snapshot of cache statistics.
func (m *Memo) Stats() MemoStats {
	m.mu.Lock()
	size := len(m.entries)
	m.mu.Unlock()
	return MemoStats{
		Hits:      m.hits.Load(),
		Misses:    m.misses.Load(),
		Evictions: m.evictions.Load(),
		Size:      size,
	}
}

// evictLocked removes roughly a quarter of the entries (must hold lock).
func (m *Memo) evictLocked() {
	toRemove := len(m.entries) / 4
	if toRemove < 1 {
		toRemove = 1
	}

	removed := 0
	for key := range m.entries {
		delete(m.entries, key)
		removed++
		if removed >= toRemove {
			break
		}
	}
	m.evictions.Add(uint64(removed))
}

func (m *Memo) clearLocked() {
	m.entries = make(map[memoKey]Result)
}
