package hashtag

import (
	"context"
	"strings"
	"unicode"

	"smm-planner/internal/domain"
)

const maxSuggestions = 8

var baseHashtags = []string{
	"#socialmedia", "#content", "#marketing", "#digital", "#brand",
	"#engagement", "#trending", "#creative", "#inspiration", "#growth",
}

// SimpleSuggester подбирает хештеги эвристикой по ключевым словам текста.
type SimpleSuggester struct{}

var _ domain.HashtagSuggester = (*SimpleSuggester)(nil)

// NewSimple создаёт эвристический подборщик.
func NewSimple() *SimpleSuggester {
	return &SimpleSuggester{}
}

// Suggest строит хештеги из длинных слов текста и дополняет базовым набором.
func (s *SimpleSuggester) Suggest(_ context.Context, content string) ([]string, error) {
	words := strings.Fields(strings.ToLower(content))
	seen := make(map[string]struct{}, maxSuggestions)
	tags := make([]string, 0, maxSuggestions)

	for _, word := range words {
		word = strings.TrimFunc(word, func(r rune) bool { return !unicode.IsLetter(r) })
		if len([]rune(word)) <= 4 || !isAlpha(word) {
			continue
		}
		tag := "#" + word
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
		if len(tags) == maxSuggestions/2 {
			break
		}
	}

	for _, tag := range baseHashtags {
		if len(tags) == maxSuggestions {
			break
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	return tags, nil
}

func isAlpha(word string) bool {
	if word == "" {
		return false
	}
	for _, r := range word {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
