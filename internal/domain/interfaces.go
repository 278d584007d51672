package domain

import (
	"context"
	"time"
)

// PostRepo управляет записями запланированных постов.
type PostRepo interface {
	CreatePost(ctx context.Context, post ScheduledPost) (ScheduledPost, error)
	GetPost(ctx context.Context, id string) (ScheduledPost, error)
	ListPosts(ctx context.Context, limit, offset int) ([]ScheduledPost, error)
	// UpdatePostStatus переводит пост в финальный статус. PublishedAt
	// выставляется в хранилище автоматически для published и partially_published.
	UpdatePostStatus(ctx context.Context, id string, status PostStatus, errorMessage string) error
	CountPostsByStatus(ctx context.Context) (map[PostStatus]int, error)
}

// AnalyticsRepo хранит аналитические записи публикаций.
type AnalyticsRepo interface {
	AppendAnalytics(ctx context.Context, postID string, platform Platform, counters EngagementCounters) error
	ListPostAnalytics(ctx context.Context, postID string) ([]PostAnalytics, error)
}

// TimerStore — долговечный реестр таймеров публикации. Записи переживают
// перезапуск процесса; захват в PollDue атомарен, чтобы два раннера не взяли
// одну задачу одновременно.
type TimerStore interface {
	// Schedule регистрирует запись или заменяет существующую с тем же ключом.
	Schedule(ctx context.Context, entry TimerEntry) error
	// Cancel удаляет запись; отсутствие записи не считается ошибкой.
	Cancel(ctx context.Context, jobKey string) error
	// PollDue возвращает и атомарно захватывает записи с fire_time <= now.
	// Захваченная запись не выдаётся повторно, пока не истечёт аренда захвата.
	PollDue(ctx context.Context, now time.Time) ([]TimerEntry, error)
	// Complete окончательно удаляет обработанную запись.
	Complete(ctx context.Context, jobKey string) error
	ListPending(ctx context.Context) ([]string, error)
}

// Publisher выполняет одну попытку публикации поста на своей платформе.
// Все сбои возвращаются структурированным исходом, паник через границу нет.
type Publisher interface {
	Publish(ctx context.Context, post ScheduledPost) PublishOutcome
}

// PublisherRegistry сопоставляет платформу с издателем.
type PublisherRegistry interface {
	Lookup(platform Platform) (Publisher, bool)
}

// EngagementSource поставляет счётчики вовлечённости для успешной публикации.
type EngagementSource interface {
	Counters(platform Platform) EngagementCounters
}

// HashtagSuggester подбирает хештеги для текста поста.
type HashtagSuggester interface {
	Suggest(ctx context.Context, content string) ([]string, error)
}

// Cache используется для простых TTL-хранилищ.
type Cache interface {
	Once(key string, ttl time.Duration, fn func() error) error
	Set(key string, value []byte, ttl time.Duration) error
	Get(key string) ([]byte, error)
}
