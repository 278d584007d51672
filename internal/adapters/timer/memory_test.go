package timer

import (
	"context"
	"testing"
	"time"

	"smm-planner/internal/domain"
)

func entry(key string, fireTime time.Time) domain.TimerEntry {
	return domain.TimerEntry{JobKey: key, FireTime: fireTime, Payload: key}
}

func TestMemoryPollDuePastEntry(t *testing.T) {
	store := NewMemory(time.Minute)
	ctx := context.Background()
	now := time.Now().UTC()

	if err := store.Schedule(ctx, entry("post_1", now.Add(-time.Hour))); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	due, err := store.PollDue(ctx, now)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(due) != 1 || due[0].JobKey != "post_1" {
		t.Fatalf("просроченная запись должна сработать при первом опросе: %v", due)
	}
}

func TestMemoryPollDueSkipsFuture(t *testing.T) {
	store := NewMemory(time.Minute)
	ctx := context.Background()
	now := time.Now().UTC()

	_ = store.Schedule(ctx, entry("post_1", now.Add(time.Hour)))
	due, _ := store.PollDue(ctx, now)
	if len(due) != 0 {
		t.Fatalf("будущая запись не должна выдаваться: %v", due)
	}
}

func TestMemoryClaimOnce(t *testing.T) {
	store := NewMemory(time.Minute)
	ctx := context.Background()
	now := time.Now().UTC()

	_ = store.Schedule(ctx, entry("post_1", now.Add(-time.Second)))
	first, _ := store.PollDue(ctx, now)
	second, _ := store.PollDue(ctx, now)
	if len(first) != 1 {
		t.Fatalf("первый опрос должен вернуть запись")
	}
	if len(second) != 0 {
		t.Fatalf("захваченная запись не должна выдаваться повторно: %v", second)
	}
}

func TestMemoryLeaseExpiryReoffers(t *testing.T) {
	store := NewMemory(50 * time.Millisecond)
	ctx := context.Background()
	now := time.Now().UTC()

	_ = store.Schedule(ctx, entry("post_1", now.Add(-time.Second)))
	if due, _ := store.PollDue(ctx, now); len(due) != 1 {
		t.Fatalf("первый опрос должен вернуть запись")
	}
	// аренда истекла — запись считается брошенной и выдаётся снова
	later := now.Add(100 * time.Millisecond)
	due, _ := store.PollDue(ctx, later)
	if len(due) != 1 {
		t.Fatalf("запись с истёкшей арендой должна выдаваться повторно")
	}
}

func TestMemoryScheduleReplaces(t *testing.T) {
	store := NewMemory(time.Minute)
	ctx := context.Background()
	now := time.Now().UTC()

	_ = store.Schedule(ctx, entry("post_1", now.Add(-time.Hour)))
	if due, _ := store.PollDue(ctx, now); len(due) != 1 {
		t.Fatalf("первый опрос должен вернуть запись")
	}
	// перепланирование заменяет запись и сбрасывает захват
	_ = store.Schedule(ctx, entry("post_1", now.Add(-time.Minute)))
	due, _ := store.PollDue(ctx, now)
	if len(due) != 1 {
		t.Fatalf("заменённая запись должна сработать заново")
	}
	keys, _ := store.ListPending(ctx)
	if len(keys) != 1 {
		t.Fatalf("на один ключ должна существовать одна запись, получили %d", len(keys))
	}
}

func TestMemoryCancel(t *testing.T) {
	store := NewMemory(time.Minute)
	ctx := context.Background()
	now := time.Now().UTC()

	_ = store.Schedule(ctx, entry("post_1", now.Add(-time.Hour)))
	if err := store.Cancel(ctx, "post_1"); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if due, _ := store.PollDue(ctx, now); len(due) != 0 {
		t.Fatalf("отменённая запись не должна выдаваться")
	}
	// повторная отмена не ошибка
	if err := store.Cancel(ctx, "post_1"); err != nil {
		t.Fatalf("повторная отмена должна быть no-op: %v", err)
	}
}

func TestMemoryCompleteRemoves(t *testing.T) {
	store := NewMemory(10 * time.Millisecond)
	ctx := context.Background()
	now := time.Now().UTC()

	_ = store.Schedule(ctx, entry("post_1", now.Add(-time.Hour)))
	if due, _ := store.PollDue(ctx, now); len(due) != 1 {
		t.Fatalf("первый опрос должен вернуть запись")
	}
	if err := store.Complete(ctx, "post_1"); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	// даже после истечения аренды завершённая запись не возвращается
	due, _ := store.PollDue(ctx, now.Add(time.Hour))
	if len(due) != 0 {
		t.Fatalf("завершённая запись не должна выдаваться")
	}
	keys, _ := store.ListPending(ctx)
	if len(keys) != 0 {
		t.Fatalf("после завершения не должно быть незавершённых записей")
	}
}

func TestMemoryListPendingOrder(t *testing.T) {
	store := NewMemory(time.Minute)
	ctx := context.Background()
	now := time.Now().UTC()

	_ = store.Schedule(ctx, entry("post_b", now.Add(2*time.Hour)))
	_ = store.Schedule(ctx, entry("post_a", now.Add(time.Hour)))
	keys, err := store.ListPending(ctx)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(keys) != 2 || keys[0] != "post_a" || keys[1] != "post_b" {
		t.Fatalf("ключи должны идти в порядке срабатывания: %v", keys)
	}
}
