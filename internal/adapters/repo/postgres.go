package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"smm-planner/internal/domain"
	"smm-planner/internal/infra/metrics"
)

// Postgres реализует репозитории постов и аналитики на основе pgxpool.
type Postgres struct {
	pool *pgxpool.Pool
}

var _ domain.PostRepo = (*Postgres)(nil)
var _ domain.AnalyticsRepo = (*Postgres)(nil)

// NewPostgres создаёт адаптер БД.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) connCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}

func (p *Postgres) connCtxWithParent(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		return p.connCtx()
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, 5*time.Second)
}

// CreatePost сохраняет новый пост в статусе scheduled.
func (p *Postgres) CreatePost(ctx context.Context, post domain.ScheduledPost) (domain.ScheduledPost, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	if post.ID == "" {
		post.ID = uuid.NewString()
	}
	post.Status = domain.StatusScheduled
	post.CreatedAt = time.Now().UTC()

	platforms := make([]string, 0, len(post.Platforms))
	for _, platform := range post.Platforms {
		platforms = append(platforms, string(platform))
	}

	start := time.Now()
	_, err := p.pool.Exec(ctx, `
INSERT INTO scheduled_posts (id, content, image_url, hashtags, platforms, scheduled_at, status, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`, post.ID, post.Content, post.ImageURL, post.Hashtags, platforms, post.ScheduledAt, string(post.Status), post.CreatedAt)
	metrics.ObserveNetworkRequest("postgres", "posts_insert", "scheduled_posts", start, err)
	if err != nil {
		return domain.ScheduledPost{}, fmt.Errorf("insert post: %w", err)
	}
	return post, nil
}

// GetPost возвращает пост по идентификатору.
func (p *Postgres) GetPost(ctx context.Context, id string) (domain.ScheduledPost, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	row := p.pool.QueryRow(ctx, `
SELECT id, content, image_url, hashtags, platforms, scheduled_at, status, COALESCE(error_message, ''), created_at, published_at
FROM scheduled_posts
WHERE id = $1
`, id)
	post, err := scanPost(row)
	metrics.ObserveNetworkRequest("postgres", "posts_select", "scheduled_posts", start, err)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ScheduledPost{}, domain.ErrPostNotFound
		}
		return domain.ScheduledPost{}, fmt.Errorf("select post: %w", err)
	}
	return post, nil
}

// ListPosts возвращает посты в порядке убывания времени создания.
func (p *Postgres) ListPosts(ctx context.Context, limit, offset int) ([]domain.ScheduledPost, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	if limit <= 0 || limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT id, content, image_url, hashtags, platforms, scheduled_at, status, COALESCE(error_message, ''), created_at, published_at
FROM scheduled_posts
ORDER BY created_at DESC
LIMIT $1 OFFSET $2
`, limit, offset)
	metrics.ObserveNetworkRequest("postgres", "posts_list", "scheduled_posts", start, err)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	var posts []domain.ScheduledPost
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

// UpdatePostStatus записывает финальный статус и текст ошибки. PublishedAt
// выставляется автоматически для published и partially_published.
func (p *Postgres) UpdatePostStatus(ctx context.Context, id string, status domain.PostStatus, errorMessage string) error {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	tag, err := p.pool.Exec(ctx, `
UPDATE scheduled_posts
SET status = $2,
    error_message = NULLIF($3, ''),
    published_at = CASE
        WHEN $2 IN ('published', 'partially_published') AND published_at IS NULL THEN now()
        ELSE published_at
    END
WHERE id = $1
`, id, string(status), errorMessage)
	metrics.ObserveNetworkRequest("postgres", "posts_update_status", "scheduled_posts", start, err)
	if err != nil {
		return fmt.Errorf("update post status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPostNotFound
	}
	return nil
}

// CountPostsByStatus возвращает количество постов по каждому статусу.
func (p *Postgres) CountPostsByStatus(ctx context.Context) (map[domain.PostStatus]int, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT status, COUNT(*)
FROM scheduled_posts
GROUP BY status
`)
	metrics.ObserveNetworkRequest("postgres", "posts_count_by_status", "scheduled_posts", start, err)
	if err != nil {
		return nil, fmt.Errorf("count posts: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.PostStatus]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[domain.PostStatus(status)] = count
	}
	return counts, rows.Err()
}

// AppendAnalytics добавляет аналитическую запись для успешной публикации.
func (p *Postgres) AppendAnalytics(ctx context.Context, postID string, platform domain.Platform, counters domain.EngagementCounters) error {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `
INSERT INTO post_analytics (post_id, platform, views, likes, shares, engagement_rate, created_at)
VALUES ($1, $2, $3, $4, $5, $6, now())
`, postID, string(platform), counters.Views, counters.Likes, counters.Shares, domain.EngagementRate(counters))
	metrics.ObserveNetworkRequest("postgres", "analytics_insert", "post_analytics", start, err)
	if err != nil {
		return fmt.Errorf("insert analytics: %w", err)
	}
	return nil
}

// ListPostAnalytics возвращает аналитические записи поста.
func (p *Postgres) ListPostAnalytics(ctx context.Context, postID string) ([]domain.PostAnalytics, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT id, post_id, platform, views, likes, shares, engagement_rate, created_at
FROM post_analytics
WHERE post_id = $1
ORDER BY created_at
`, postID)
	metrics.ObserveNetworkRequest("postgres", "analytics_list", "post_analytics", start, err)
	if err != nil {
		return nil, fmt.Errorf("list analytics: %w", err)
	}
	defer rows.Close()

	var records []domain.PostAnalytics
	for rows.Next() {
		var record domain.PostAnalytics
		var platform string
		if err := rows.Scan(&record.ID, &record.PostID, &platform, &record.Views, &record.Likes, &record.Shares, &record.EngagementRate, &record.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan analytics: %w", err)
		}
		record.Platform = domain.Platform(platform)
		records = append(records, record)
	}
	return records, rows.Err()
}

func scanPost(row pgx.Row) (domain.ScheduledPost, error) {
	var post domain.ScheduledPost
	var platforms []string
	var status string
	if err := row.Scan(&post.ID, &post.Content, &post.ImageURL, &post.Hashtags, &platforms, &post.ScheduledAt, &status, &post.ErrorMessage, &post.CreatedAt, &post.PublishedAt); err != nil {
		return domain.ScheduledPost{}, err
	}
	post.Status = domain.PostStatus(status)
	post.Platforms = make([]domain.Platform, 0, len(platforms))
	for _, platform := range platforms {
		post.Platforms = append(post.Platforms, domain.Platform(platform))
	}
	return post, nil
}
