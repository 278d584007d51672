package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Platform — социальная платформа из закрытого списка поддерживаемых.
type Platform string

const (
	PlatformTwitter   Platform = "twitter"
	PlatformFacebook  Platform = "facebook"
	PlatformInstagram Platform = "instagram"
)

// KnownPlatforms возвращает закрытый список платформ в каноническом порядке.
func KnownPlatforms() []Platform {
	return []Platform{PlatformTwitter, PlatformFacebook, PlatformInstagram}
}

// ErrUnknownPlatform возвращается при имени платформы вне закрытого списка.
var ErrUnknownPlatform = errors.New("неизвестная платформа")

// ErrNoPlatforms возвращается, если после дедупликации список платформ пуст.
var ErrNoPlatforms = errors.New("список платформ пуст")

// ErrPostNotFound возвращается, если пост отсутствует в хранилище.
var ErrPostNotFound = errors.New("пост не найден")

// ParsePlatform проверяет имя платформы по закрытому списку.
func ParsePlatform(raw string) (Platform, error) {
	candidate := Platform(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range KnownPlatforms() {
		if candidate == known {
			return known, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPlatform, raw)
}

// NormalizePlatforms валидирует список платформ и убирает дубли, сохраняя порядок.
func NormalizePlatforms(raw []string) ([]Platform, error) {
	seen := make(map[Platform]struct{}, len(raw))
	platforms := make([]Platform, 0, len(raw))
	for _, item := range raw {
		platform, err := ParsePlatform(item)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[platform]; ok {
			continue
		}
		seen[platform] = struct{}{}
		platforms = append(platforms, platform)
	}
	if len(platforms) == 0 {
		return nil, ErrNoPlatforms
	}
	return platforms, nil
}

// PostStatus — статус запланированного поста.
type PostStatus string

const (
	// StatusScheduled — пост ждёт своего времени публикации.
	StatusScheduled PostStatus = "scheduled"
	// StatusPublished — все платформы приняли публикацию.
	StatusPublished PostStatus = "published"
	// StatusPartiallyPublished — часть платформ приняла публикацию.
	StatusPartiallyPublished PostStatus = "partially_published"
	// StatusFailed — ни одна платформа не приняла публикацию.
	StatusFailed PostStatus = "failed"
)

// Terminal сообщает, что статус финальный: повторных переходов не бывает.
func (s PostStatus) Terminal() bool {
	return s != StatusScheduled
}

// ScheduledPost — пост, запланированный к публикации на нескольких платформах.
type ScheduledPost struct {
	ID           string
	Content      string
	ImageURL     string
	Hashtags     string
	Platforms    []Platform
	ScheduledAt  time.Time
	Status       PostStatus
	ErrorMessage string
	CreatedAt    time.Time
	PublishedAt  *time.Time
}

// PublishOutcome — результат одной попытки публикации на одной платформе.
type PublishOutcome struct {
	Platform  Platform
	Succeeded bool
	// Reason заполняется только при неуспехе.
	Reason string
}

// EngagementCounters — счётчики вовлечённости одной публикации.
type EngagementCounters struct {
	Views  int
	Likes  int
	Shares int
}

// EngagementRate считает процент вовлечённости: (лайки+репосты)/max(просмотры,1)*100.
func EngagementRate(c EngagementCounters) float64 {
	views := c.Views
	if views < 1 {
		views = 1
	}
	return float64(c.Likes+c.Shares) / float64(views) * 100
}

// PostAnalytics — аналитическая запись об успешной публикации. Только добавляется.
type PostAnalytics struct {
	ID             int64
	PostID         string
	Platform       Platform
	Views          int
	Likes          int
	Shares         int
	EngagementRate float64
	CreatedAt      time.Time
}
