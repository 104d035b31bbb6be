package kafkaconsumer

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// seqDedupe tracks the highest applied sequence per key so replays and
// reordered duplicates are skipped. Entries are only recorded after the
// event was fully processed, so a failed attempt stays retryable.
type seqDedupe struct {
	mu  sync.Mutex
	lru *lru.Cache[string, uint64]
}

func newSeqDedupe(size int) *seqDedupe {
	if size <= 0 {
		size = 4096
	}
	c, _ := lru.New[string, uint64](size)
	return &seqDedupe{lru: c}
}

func (d *seqDedupe) seen(key string, seq uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	last, ok := d.lru.Get(key)
	return ok && seq <= last
}

func (d *seqDedupe) record(key string, seq uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if last, ok := d.lru.Get(key); ok && seq <= last {
		return
	}
	d.lru.Add(key, seq)
}
