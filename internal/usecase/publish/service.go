package publish

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"smm-planner/internal/domain"
	"smm-planner/internal/infra/metrics"
)

// Service — координатор публикации: загружает пост, раскладывает попытки по
// платформам параллельно, пишет аналитику успехов, сводит результаты и
// фиксирует итоговый статус. Пост публикуется ровно один раз.
type Service struct {
	posts      domain.PostRepo
	analytics  domain.AnalyticsRepo
	publishers domain.PublisherRegistry
	engagement domain.EngagementSource
	log        zerolog.Logger
}

// NewService создаёт координатор.
func NewService(posts domain.PostRepo, analytics domain.AnalyticsRepo, publishers domain.PublisherRegistry, engagement domain.EngagementSource, logger zerolog.Logger) *Service {
	return &Service{posts: posts, analytics: analytics, publishers: publishers, engagement: engagement, log: logger}
}

// PublishPost выполняет единственную попытку публикации поста по всем его
// платформам. Отказ одной платформы не прерывает остальные; ошибка
// возвращается только при сбоях загрузки или записи статуса.
func (s *Service) PublishPost(ctx context.Context, postID string) error {
	post, err := s.posts.GetPost(ctx, postID)
	if err != nil {
		if errors.Is(err, domain.ErrPostNotFound) {
			s.log.Error().Str("post_id", postID).Msg("публикация: пост не найден")
			return err
		}
		return fmt.Errorf("загрузка поста: %w", err)
	}
	if post.Status.Terminal() {
		// повторная доставка таймера после истёкшей аренды: статус уже записан
		s.log.Warn().Str("post_id", postID).Str("status", string(post.Status)).Msg("публикация: пост уже обработан")
		return nil
	}

	outcomes := s.fanOut(ctx, post)

	for _, outcome := range outcomes {
		if !outcome.Succeeded {
			continue
		}
		counters := s.engagement.Counters(outcome.Platform)
		if err := s.analytics.AppendAnalytics(ctx, post.ID, outcome.Platform, counters); err != nil {
			s.log.Error().Err(err).Str("post_id", post.ID).Str("platform", string(outcome.Platform)).Msg("публикация: не удалось записать аналитику")
		}
	}

	status, errorMessage := ReduceOutcomes(outcomes)
	if err := s.posts.UpdatePostStatus(ctx, post.ID, status, errorMessage); err != nil {
		return fmt.Errorf("запись статуса: %w", err)
	}
	metrics.IncPostFinalStatus(string(status))
	s.log.Info().Str("post_id", post.ID).Str("status", string(status)).Msg("публикация: статус зафиксирован")
	return nil
}

// fanOut запускает по одной попытке на платформу параллельно и ждёт все
// результаты; порядок результатов совпадает с порядком платформ поста.
func (s *Service) fanOut(ctx context.Context, post domain.ScheduledPost) []domain.PublishOutcome {
	outcomes := make([]domain.PublishOutcome, len(post.Platforms))
	var wg sync.WaitGroup
	for i, platform := range post.Platforms {
		wg.Add(1)
		go func(idx int, plt domain.Platform) {
			defer wg.Done()
			pub, ok := s.publishers.Lookup(plt)
			if !ok {
				outcomes[idx] = domain.PublishOutcome{Platform: plt, Succeeded: false, Reason: "платформа не поддерживается"}
				return
			}
			start := time.Now()
			outcomes[idx] = pub.Publish(ctx, post)
			metrics.ObservePublishAttempt(string(plt), outcomes[idx].Succeeded, start)
		}(i, platform)
	}
	wg.Wait()
	return outcomes
}
