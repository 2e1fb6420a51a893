package storage

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
)

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// Memory is a process-local KV. It also satisfies redis.IdempotencyStore so the
// webhook guard works without a redis deployment.
type Memory struct {
	mu   sync.Mutex
	data map[string]memoryEntry
	now  func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		data: make(map[string]memoryEntry),
		now:  time.Now,
	}
}

func (m *Memory) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.data[key]
	if !ok || entry.expired(m.now()) {
		delete(m.data, key)
		return "", ErrNotFound
	}
	return entry.value, nil
}

func (m *Memory) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = memoryEntry{value: value}
	return nil
}

func (m *Memory) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// SetNX stores value only when key is absent or expired.
func (m *Memory) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	if entry, ok := m.data[key]; ok && !entry.expired(now) {
		return false, nil
	}
	entry := memoryEntry{value: fmt.Sprint(value)}
	if ttl > 0 {
		entry.expiresAt = now.Add(ttl)
	}
	m.data[key] = entry
	return true, nil
}

func (m *Memory) Del(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

// IncrWithTTL bumps a counter; the TTL is set when the counter is created.
func (m *Memory) IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	entry, ok := m.data[key]
	if !ok || entry.expired(now) {
		entry = memoryEntry{value: "0"}
		if ttl > 0 {
			entry.expiresAt = now.Add(ttl)
		}
	}
	count, err := strconv.ParseInt(entry.value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("counter %q holds a non-integer value", key)
	}
	count++
	entry.value = strconv.FormatInt(count, 10)
	m.data[key] = entry
	return count, nil
}

// RateLimitKey mirrors redis.Client.RateLimitKey.
func (m *Memory) RateLimitKey(scope string) string {
	return "dc:rl:" + strings.TrimSpace(scope)
}

func (m *Memory) IdempotencyKey(scope, id string) string {
	parts := []string{"dc", "idempotency"}
	for _, part := range []string{scope, id} {
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, ":")
}

func (m *Memory) Ping(context.Context) error { return nil }
