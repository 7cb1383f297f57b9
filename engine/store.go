package engine

import "strings"

// Write is one physical parameter write
type Write struct {
	Key   string
	Value string
}

// Store is an in-memory Channel that records every write. Bulk writes are
// expanded so Params and Log reflect the logical parameter stream.
type Store struct {
	Params map[string]string
	Writes []Write // physical writes as received
	Log    []Write // logical writes, bulk payloads expanded
}

// NewStore returns an empty store
func NewStore() *Store {
	return &Store{Params: make(map[string]string)}
}

func (s *Store) SetParam(key, value string) {
	s.Writes = append(s.Writes, Write{key, value})
	if key == BulkKey {
		for _, kv := range SplitBulk(value) {
			s.apply(kv[0], kv[1])
		}
		return
	}
	s.apply(key, value)
}

func (s *Store) GetParam(key string) (string, bool) {
	v, ok := s.Params[key]
	return v, ok
}

func (s *Store) apply(key, value string) {
	s.Log = append(s.Log, Write{key, value})
	s.Params[key] = value
}

// Keys returns the logical keys written with the given prefix, in order
func (s *Store) Keys(prefix string) []string {
	var out []string
	for _, w := range s.Log {
		if strings.HasPrefix(w.Key, prefix) {
			out = append(out, w.Key)
		}
	}
	return out
}

// Values returns every value written to key, in order
func (s *Store) Values(key string) []string {
	var out []string
	for _, w := range s.Log {
		if w.Key == key {
			out = append(out, w.Value)
		}
	}
	return out
}

// Reset forgets all writes
func (s *Store) Reset() {
	s.Params = make(map[string]string)
	s.Writes = nil
	s.Log = nil
}
