// Package cache is a tag-indexed response store. List and detail payloads are
// cached under canonical keys; every key is indexed by one or more tags, and
// mutations invalidate tags so the next read goes back to the database.
package cache

import (
	"context"
	"sync"
	"time"
)

type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, payload []byte, tags ...string)
	Invalidate(ctx context.Context, tags ...string)
	Close() error
}

// ListTag indexes every cached list page of an entity type.
func ListTag(entity string) string {
	return entity + ":list"
}

// DetailTag indexes the cached detail payload of one entity.
func DetailTag(entity, id string) string {
	return entity + ":detail:" + id
}

type memoryEntry struct {
	payload   []byte
	tags      []string
	expiresAt time.Time
}

// MemoryStore is the default backend: process-local, TTL-bounded.
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]memoryEntry
	byTag   map[string]map[string]bool
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:     ttl,
		entries: map[string]memoryEntry{},
		byTag:   map[string]map[string]bool{},
	}
}

func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		s.dropLocked(key)
		return nil, false
	}
	return entry.payload, true
}

func (s *MemoryStore) Set(ctx context.Context, key string, payload []byte, tags ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropLocked(key)
	s.entries[key] = memoryEntry{
		payload:   payload,
		tags:      tags,
		expiresAt: time.Now().Add(s.ttl),
	}
	for _, tag := range tags {
		keys, ok := s.byTag[tag]
		if !ok {
			keys = map[string]bool{}
			s.byTag[tag] = keys
		}
		keys[key] = true
	}
}

func (s *MemoryStore) Invalidate(ctx context.Context, tags ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tag := range tags {
		for key := range s.byTag[tag] {
			s.dropLocked(key)
		}
		delete(s.byTag, tag)
	}
}

func (s *MemoryStore) Close() error {
	return nil
}

func (s *MemoryStore) dropLocked(key string) {
	entry, ok := s.entries[key]
	if !ok {
		return
	}
	delete(s.entries, key)
	for _, tag := range entry.tags {
		if keys, ok := s.byTag[tag]; ok {
			delete(keys, key)
			if len(keys) == 0 {
				delete(s.byTag, tag)
			}
		}
	}
}
