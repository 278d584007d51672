package schedule

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"smm-planner/internal/domain"
)

// ErrEmptyContent возвращается, если текст поста пуст.
var ErrEmptyContent = errors.New("текст поста пуст")

// Service отвечает за планирование и отмену публикаций. Ошибки конфигурации
// (пустой список платформ, неизвестная платформа) отклоняются здесь же и до
// раннера не доходят.
type Service struct {
	posts  domain.PostRepo
	timers domain.TimerStore
}

// NewService создаёт сервис планирования.
func NewService(posts domain.PostRepo, timers domain.TimerStore) *Service {
	return &Service{posts: posts, timers: timers}
}

// CreateParams — параметры создания запланированного поста.
type CreateParams struct {
	Content     string
	ImageURL    string
	Hashtags    string
	Platforms   []string
	ScheduledAt time.Time
}

// SchedulePost создаёт пост и регистрирует таймер публикации. Время в
// прошлом допустимо: такой пост срабатывает при ближайшем опросе.
func (s *Service) SchedulePost(ctx context.Context, params CreateParams) (domain.ScheduledPost, error) {
	content := strings.TrimSpace(params.Content)
	if content == "" {
		return domain.ScheduledPost{}, ErrEmptyContent
	}
	platforms, err := domain.NormalizePlatforms(params.Platforms)
	if err != nil {
		return domain.ScheduledPost{}, err
	}
	scheduledAt := params.ScheduledAt
	if scheduledAt.IsZero() {
		scheduledAt = time.Now()
	}

	post := domain.ScheduledPost{
		Content:     content,
		ImageURL:    strings.TrimSpace(params.ImageURL),
		Hashtags:    strings.TrimSpace(params.Hashtags),
		Platforms:   platforms,
		ScheduledAt: scheduledAt.UTC(),
		Status:      domain.StatusScheduled,
	}
	created, err := s.posts.CreatePost(ctx, post)
	if err != nil {
		return domain.ScheduledPost{}, fmt.Errorf("создание поста: %w", err)
	}

	entry := domain.TimerEntry{
		JobKey:   domain.JobKeyForPost(created.ID),
		FireTime: created.ScheduledAt,
		Payload:  created.ID,
	}
	if err := s.timers.Schedule(ctx, entry); err != nil {
		return domain.ScheduledPost{}, fmt.Errorf("регистрация таймера: %w", err)
	}
	return created, nil
}

// CancelScheduledPost снимает пост с публикации до срабатывания таймера.
// Отмена не оставляет побочных эффектов: статус поста не меняется.
func (s *Service) CancelScheduledPost(ctx context.Context, postID string) error {
	if _, err := s.posts.GetPost(ctx, postID); err != nil {
		return err
	}
	if err := s.timers.Cancel(ctx, domain.JobKeyForPost(postID)); err != nil {
		return fmt.Errorf("отмена таймера: %w", err)
	}
	return nil
}

// ListPendingJobs возвращает ключи незавершённых таймеров.
func (s *Service) ListPendingJobs(ctx context.Context) ([]string, error) {
	return s.timers.ListPending(ctx)
}
