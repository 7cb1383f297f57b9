package engine

import (
	"strings"

	"go-seqomd/debug"
)

const (
	// DefaultChunkBytes bounds one physical bulk write
	DefaultChunkBytes = 60000

	// BulkKey carries newline-delimited key/value pairs
	BulkKey = "bulk_set"
)

type pair struct {
	key, value string
}

func (p pair) size() int {
	return len(p.key) + len(p.value) + 2
}

// Batcher is a Channel that can hold writes back and flush them as a few
// bulk writes. Outside a batch it passes writes straight through.
//
// Begin/End nest; only the outermost End flushes.
type Batcher struct {
	ch         Channel
	chunkBytes int
	depth      int
	queue      []pair
	writes     int
}

// NewBatcher wraps ch. chunkBytes <= 0 selects DefaultChunkBytes.
func NewBatcher(ch Channel, chunkBytes int) *Batcher {
	if chunkBytes <= 0 {
		chunkBytes = DefaultChunkBytes
	}
	return &Batcher{ch: ch, chunkBytes: chunkBytes}
}

// Begin starts queueing writes
func (b *Batcher) Begin() {
	b.depth++
}

// Batching reports whether writes are being queued
func (b *Batcher) Batching() bool {
	return b.depth > 0
}

// SetParam queues the write inside a batch, otherwise sends it
func (b *Batcher) SetParam(key, value string) {
	if b.depth > 0 {
		b.queue = append(b.queue, pair{key, value})
		return
	}
	b.send(key, value)
}

// GetParam always reads through; reads are never batched
func (b *Batcher) GetParam(key string) (string, bool) {
	return b.ch.GetParam(key)
}

// Writes returns the number of physical writes issued so far
func (b *Batcher) Writes() int {
	return b.writes
}

// End closes a batch. The outermost End flushes the queue in order as
// bulk writes of at most chunkBytes each and returns how many were sent.
// A single pair larger than the bound goes out on its own as a plain write.
func (b *Batcher) End() int {
	if b.depth == 0 {
		return 0
	}
	b.depth--
	if b.depth > 0 || len(b.queue) == 0 {
		return 0
	}

	queue := b.queue
	b.queue = nil

	var chunk strings.Builder
	sent := 0
	flush := func() {
		if chunk.Len() == 0 {
			return
		}
		b.send(BulkKey, chunk.String())
		chunk.Reset()
		sent++
	}

	for _, p := range queue {
		if p.size() > b.chunkBytes {
			flush()
			debug.Log("engine", "oversized param %s (%d bytes) sent unbatched", p.key, p.size())
			b.send(p.key, p.value)
			sent++
			continue
		}
		if chunk.Len() > 0 && chunk.Len()+p.size() > b.chunkBytes {
			flush()
		}
		chunk.WriteString(p.key)
		chunk.WriteByte('\n')
		chunk.WriteString(p.value)
		chunk.WriteByte('\n')
	}
	flush()

	debug.Log("engine", "batch: %d params in %d writes", len(queue), sent)
	return sent
}

func (b *Batcher) send(key, value string) {
	b.ch.SetParam(key, value)
	b.writes++
}

// SplitBulk decodes a bulk payload into its key/value pairs, in order.
// A trailing key without a value is dropped.
func SplitBulk(payload string) [][2]string {
	lines := strings.Split(payload, "\n")
	out := make([][2]string, 0, len(lines)/2)
	for i := 0; i+1 < len(lines); i += 2 {
		if lines[i] == "" {
			continue
		}
		out = append(out, [2]string{lines[i], lines[i+1]})
	}
	return out
}
