package hashtag

import (
	"context"
	"strings"
	"testing"
)

func TestSimpleSuggestFromContentWords(t *testing.T) {
	s := NewSimple()

	tags, err := s.Suggest(context.Background(), "Launching our amazing product today!")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(tags) != maxSuggestions {
		t.Fatalf("ожидали %d хештегов, получили %d: %v", maxSuggestions, len(tags), tags)
	}
	if tags[0] != "#launching" || tags[1] != "#amazing" || tags[2] != "#product" || tags[3] != "#today" {
		t.Fatalf("длинные слова текста должны идти первыми: %v", tags)
	}
	for _, tag := range tags {
		if !strings.HasPrefix(tag, "#") {
			t.Fatalf("каждый хештег должен начинаться с #: %q", tag)
		}
	}
}

func TestSimpleSuggestSkipsShortAndNonAlpha(t *testing.T) {
	s := NewSimple()

	tags, _ := s.Suggest(context.Background(), "go is fun 12345 abc12def")
	for _, tag := range tags {
		switch tag {
		case "#go", "#is", "#fun", "#12345", "#abc12def":
			t.Fatalf("короткие и не-буквенные слова не должны попадать в хештеги: %q", tag)
		}
	}
}

func TestSimpleSuggestDeduplicates(t *testing.T) {
	s := NewSimple()

	tags, _ := s.Suggest(context.Background(), "marketing Marketing MARKETING")
	count := 0
	for _, tag := range tags {
		if tag == "#marketing" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("повторяющееся слово должно давать один хештег, получили %d", count)
	}
}

func TestSimpleSuggestEmptyContentFallsBack(t *testing.T) {
	s := NewSimple()

	tags, err := s.Suggest(context.Background(), "")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(tags) != maxSuggestions {
		t.Fatalf("пустой текст должен давать базовый набор из %d хештегов, получили %d", maxSuggestions, len(tags))
	}
	if tags[0] != baseHashtags[0] {
		t.Fatalf("базовый набор должен идти в исходном порядке: %v", tags)
	}
}
