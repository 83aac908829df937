package storage

import "maps"

// MemoryStore is a Reader over a fixed map, used for fixtures.
type MemoryStore[T ValidatingSpec] struct {
	records map[string]T
}

func NewMemoryStore[T ValidatingSpec](records map[string]T) *MemoryStore[T] {
	return &MemoryStore[T]{records: maps.Clone(records)}
}

func (s *MemoryStore[T]) Get(id string) T {
	return s.records[id]
}

func (s *MemoryStore[T]) GetAll() map[string]T {
	return maps.Clone(s.records)
}
