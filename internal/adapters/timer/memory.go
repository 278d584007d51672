package timer

import (
	"context"
	"sort"
	"sync"
	"time"

	"smm-planner/internal/domain"
)

// Memory — реализация domain.TimerStore в памяти с теми же семантиками
// захвата и аренды, что и у Postgres. Используется в тестах и dev-режиме;
// перезапуск процесса записи не переживают.
type Memory struct {
	mu      sync.Mutex
	lease   time.Duration
	entries map[string]*memoryEntry
}

type memoryEntry struct {
	entry domain.TimerEntry
	// claimedAt нулевое, пока запись не захвачена.
	claimedAt time.Time
}

var _ domain.TimerStore = (*Memory)(nil)

// NewMemory создаёт хранилище таймеров в памяти.
func NewMemory(lease time.Duration) *Memory {
	if lease <= 0 {
		lease = DefaultLease
	}
	return &Memory{lease: lease, entries: make(map[string]*memoryEntry)}
}

// Schedule регистрирует запись или заменяет существующую, сбрасывая захват.
func (m *Memory) Schedule(_ context.Context, entry domain.TimerEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[entry.JobKey] = &memoryEntry{entry: entry}
	return nil
}

// Cancel удаляет запись; отсутствие записи не ошибка.
func (m *Memory) Cancel(_ context.Context, jobKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, jobKey)
	return nil
}

// PollDue захватывает наступившие записи; брошенные захваты с истёкшей
// арендой отдаются повторно.
func (m *Memory) PollDue(_ context.Context, now time.Time) ([]domain.TimerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var due []domain.TimerEntry
	for _, stored := range m.entries {
		if stored.entry.FireTime.After(now) {
			continue
		}
		if !stored.claimedAt.IsZero() && now.Sub(stored.claimedAt) < m.lease {
			continue
		}
		stored.claimedAt = now
		due = append(due, stored.entry)
	}
	sort.Slice(due, func(i, j int) bool { return due[i].FireTime.Before(due[j].FireTime) })
	return due, nil
}

// Complete окончательно удаляет запись.
func (m *Memory) Complete(_ context.Context, jobKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, jobKey)
	return nil
}

// ListPending возвращает ключи незавершённых записей в порядке срабатывания.
func (m *Memory) ListPending(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := make([]domain.TimerEntry, 0, len(m.entries))
	for _, item := range m.entries {
		stored = append(stored, item.entry)
	}
	sort.Slice(stored, func(i, j int) bool { return stored[i].FireTime.Before(stored[j].FireTime) })

	keys := make([]string, 0, len(stored))
	for _, entry := range stored {
		keys = append(keys, entry.JobKey)
	}
	return keys, nil
}
