package runner

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"smm-planner/internal/domain"
)

type fakeTimerStore struct {
	mu        sync.Mutex
	due       []domain.TimerEntry
	completed []string
}

func (f *fakeTimerStore) Schedule(_ context.Context, entry domain.TimerEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.due = append(f.due, entry)
	return nil
}

func (f *fakeTimerStore) Cancel(context.Context, string) error { return nil }

// PollDue возвращает все незавершённые записи при каждом вызове,
// моделируя повторную выдачу по истёкшей аренде.
func (f *fakeTimerStore) PollDue(context.Context, time.Time) ([]domain.TimerEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	entries := make([]domain.TimerEntry, len(f.due))
	copy(entries, f.due)
	return entries, nil
}

func (f *fakeTimerStore) Complete(_ context.Context, jobKey string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completed = append(f.completed, jobKey)
	remaining := f.due[:0]
	for _, entry := range f.due {
		if entry.JobKey != jobKey {
			remaining = append(remaining, entry)
		}
	}
	f.due = remaining
	return nil
}

func (f *fakeTimerStore) ListPending(context.Context) ([]string, error) { return nil, nil }

type stubPostRepo struct {
	mu     sync.Mutex
	failed map[string]string
}

func newStubPostRepo() *stubPostRepo {
	return &stubPostRepo{failed: make(map[string]string)}
}

func (s *stubPostRepo) CreatePost(_ context.Context, post domain.ScheduledPost) (domain.ScheduledPost, error) {
	return post, nil
}

func (s *stubPostRepo) GetPost(context.Context, string) (domain.ScheduledPost, error) {
	return domain.ScheduledPost{}, domain.ErrPostNotFound
}

func (s *stubPostRepo) ListPosts(context.Context, int, int) ([]domain.ScheduledPost, error) {
	return nil, nil
}

func (s *stubPostRepo) UpdatePostStatus(_ context.Context, id string, status domain.PostStatus, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == domain.StatusFailed {
		s.failed[id] = message
	}
	return nil
}

func (s *stubPostRepo) CountPostsByStatus(context.Context) (map[domain.PostStatus]int, error) {
	return nil, nil
}

type publisherFunc func(ctx context.Context, postID string) error

func (f publisherFunc) PublishPost(ctx context.Context, postID string) error {
	return f(ctx, postID)
}

func entryFor(postID string) domain.TimerEntry {
	return domain.TimerEntry{
		JobKey:   domain.JobKeyForPost(postID),
		FireTime: time.Now().Add(-time.Minute),
		Payload:  postID,
	}
}

func TestDispatchIdempotent(t *testing.T) {
	store := &fakeTimerStore{due: []domain.TimerEntry{entryFor("1")}}
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	var calls int32
	pub := publisherFunc(func(_ context.Context, _ string) error {
		atomic.AddInt32(&calls, 1)
		started <- struct{}{}
		<-release
		return nil
	})
	r := New(store, newStubPostRepo(), pub, time.Hour, 3, zerolog.Nop())

	ctx := context.Background()
	r.pollOnce(ctx)
	<-started
	// та же запись пришла в следующем опросе, пока задача ещё в работе
	r.pollOnce(ctx)
	close(release)
	r.wg.Wait()

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("ожидали ровно один вызов публикации, получили %d", got)
	}
	if len(store.completed) != 1 {
		t.Fatalf("ожидали ровно одно завершение таймера, получили %d", len(store.completed))
	}
}

func TestDispatchBoundedConcurrency(t *testing.T) {
	store := &fakeTimerStore{}
	for _, id := range []string{"1", "2", "3", "4", "5"} {
		store.due = append(store.due, entryFor(id))
	}

	var current, maxSeen, calls int32
	pub := publisherFunc(func(_ context.Context, _ string) error {
		now := atomic.AddInt32(&current, 1)
		for {
			seen := atomic.LoadInt32(&maxSeen)
			if now <= seen || atomic.CompareAndSwapInt32(&maxSeen, seen, now) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt32(&current, -1)
		atomic.AddInt32(&calls, 1)
		return nil
	})

	r := New(store, newStubPostRepo(), pub, time.Hour, 2, zerolog.Nop())
	r.pollOnce(context.Background())
	r.wg.Wait()

	if got := atomic.LoadInt32(&calls); got != 5 {
		t.Fatalf("ожидали 5 выполненных задач, получили %d", got)
	}
	if got := atomic.LoadInt32(&maxSeen); got > 2 {
		t.Fatalf("лимит одновременных задач нарушен: %d > 2", got)
	}
}

func TestDispatchFailureMarksPostFailed(t *testing.T) {
	store := &fakeTimerStore{due: []domain.TimerEntry{entryFor("42")}}
	posts := newStubPostRepo()
	pub := publisherFunc(func(context.Context, string) error {
		return errors.New("хранилище недоступно")
	})

	r := New(store, posts, pub, time.Hour, 1, zerolog.Nop())
	r.pollOnce(context.Background())
	r.wg.Wait()

	message, ok := posts.failed["42"]
	if !ok {
		t.Fatalf("пост должен быть помечен failed")
	}
	if message == "" {
		t.Fatalf("ожидали текст ошибки в статусе")
	}
	// политика без повторов: запись таймера удаляется и при ошибке
	if len(store.completed) != 1 {
		t.Fatalf("запись таймера должна быть удалена, completed=%d", len(store.completed))
	}
}

func TestStartStopProcessesDueEntry(t *testing.T) {
	store := &fakeTimerStore{due: []domain.TimerEntry{entryFor("7")}}
	done := make(chan struct{})
	pub := publisherFunc(func(_ context.Context, postID string) error {
		if postID != "7" {
			t.Errorf("неожиданный пост: %s", postID)
		}
		close(done)
		return nil
	})

	r := New(store, newStubPostRepo(), pub, 10*time.Millisecond, 1, zerolog.Nop())
	r.Start(context.Background())
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("задача не была обработана")
	}
	r.Stop()

	if len(store.completed) != 1 {
		t.Fatalf("ожидали завершение таймера после обработки")
	}
}
