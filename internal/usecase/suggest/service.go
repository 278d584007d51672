package suggest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"smm-planner/internal/domain"
)

// ErrEmptyContent возвращается при пустом тексте поста.
var ErrEmptyContent = errors.New("текст поста пуст")

// Service подбирает хештеги. Основной подборщик может быть LLM-провайдером;
// при его ошибке используется запасной. Результаты кэшируются по хэшу текста.
type Service struct {
	primary  domain.HashtagSuggester
	fallback domain.HashtagSuggester
	cache    domain.Cache
	ttl      time.Duration
}

// NewService создаёт сервис. fallback и cache могут быть nil.
func NewService(primary, fallback domain.HashtagSuggester, cache domain.Cache, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Service{primary: primary, fallback: fallback, cache: cache, ttl: ttl}
}

// Suggest возвращает хештеги для текста поста.
func (s *Service) Suggest(ctx context.Context, content string) ([]string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyContent
	}

	key := cacheKey(content)
	if s.cache != nil {
		if data, err := s.cache.Get(key); err == nil {
			var tags []string
			if err := json.Unmarshal(data, &tags); err == nil && len(tags) > 0 {
				return tags, nil
			}
		}
	}

	tags, err := s.primary.Suggest(ctx, content)
	if err != nil && s.fallback != nil {
		tags, err = s.fallback.Suggest(ctx, content)
	}
	if err != nil {
		return nil, fmt.Errorf("подбор хештегов: %w", err)
	}

	if s.cache != nil && len(tags) > 0 {
		if data, err := json.Marshal(tags); err == nil {
			_ = s.cache.Set(key, data, s.ttl)
		}
	}
	return tags, nil
}

func cacheKey(content string) string {
	sum := sha256.Sum256([]byte(content))
	return "hashtags:" + hex.EncodeToString(sum[:8])
}
