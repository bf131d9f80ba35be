package logcat

import (
	"sync"

	"github.com/loglens/loglens/internal/domain"
)

// Buffer is a fixed-capacity circular buffer of records. Appending beyond
// capacity evicts the oldest record (FIFO, O(1) amortized). The raw and the
// filtered buffer of a session are two independent instances.
type Buffer struct {
	mu       sync.RWMutex
	records  []domain.Record
	head     int // next write position
	count    int // current number of records
	capacity int // max records
}

// NewBuffer creates a buffer with the given capacity.
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = 1000
	}
	return &Buffer{
		records:  make([]domain.Record, capacity),
		capacity: capacity,
	}
}

// Append adds a record, evicting the oldest when the buffer is full.
func (b *Buffer) Append(rec domain.Record) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.records[b.head] = rec
	b.head = (b.head + 1) % b.capacity

	if b.count < b.capacity {
		b.count++
	}
}

// Snapshot returns all records in arrival order.
func (b *Buffer) Snapshot() []domain.Record {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.count == 0 {
		return nil
	}

	result := make([]domain.Record, b.count)

	start := 0
	if b.count == b.capacity {
		start = b.head // oldest record is at head when full
	}

	for i := 0; i < b.count; i++ {
		result[i] = b.records[(start+i)%b.capacity]
	}

	return result
}

// Replace discards the current contents and fills the buffer from recs,
// keeping only the newest capacity records when recs is larger.
func (b *Buffer) Replace(recs []domain.Record) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(recs) > b.capacity {
		recs = recs[len(recs)-b.capacity:]
	}

	copy(b.records, recs)
	b.count = len(recs)
	b.head = b.count % b.capacity
}

// Len returns the current number of records.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.count
}

// Cap returns the maximum capacity.
func (b *Buffer) Cap() int {
	return b.capacity
}

// Clear removes all records.
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.head = 0
	b.count = 0
}
