package hashtag

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"smm-planner/internal/domain"
	openai "smm-planner/internal/infra/openai"
)

type chatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAI подбирает хештеги через OpenAI Chat Completions.
type OpenAI struct {
	client  chatClient
	model   string
	timeout time.Duration
}

var _ domain.HashtagSuggester = (*OpenAI)(nil)

// NewOpenAI создаёт LLM-подборщик хештегов.
func NewOpenAI(client chatClient, model string, timeout time.Duration) *OpenAI {
	if model == "" {
		model = "gpt-4.1-mini"
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &OpenAI{client: client, model: model, timeout: timeout}
}

type hashtagPayload struct {
	Hashtags []string `json:"hashtags"`
}

// Suggest просит модель вернуть до восьми релевантных хештегов.
func (s *OpenAI) Suggest(ctx context.Context, content string) ([]string, error) {
	text := strings.TrimSpace(content)
	if text == "" {
		return nil, fmt.Errorf("пустой текст поста")
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	userPrompt := fmt.Sprintf(`Подбери 5-8 релевантных хештегов для поста в соцсетях.
Верни JSON формата {"hashtags": ["#..."]} без пояснений.
Текст поста:
%s`, clipRunes(text, 2000))

	req := openai.ChatCompletionRequest{
		Model:       s.model,
		Temperature: 0.7,
		MaxTokens:   100,
		Messages: []openai.ChatMessage{
			{
				Role:    openai.RoleSystem,
				Content: "Ты SMM-эксперт. Каждый хештег начинается с # и не содержит пробелов.",
			},
			{
				Role:    openai.RoleUser,
				Content: userPrompt,
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ResponseFormatTypeJSONObject},
	}

	resp, err := s.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("openai completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai completion: пустой ответ")
	}
	var parsed hashtagPayload
	if err := json.Unmarshal([]byte(strings.TrimSpace(resp.Choices[0].Message.Content)), &parsed); err != nil {
		return nil, fmt.Errorf("openai completion: разбор ответа: %w", err)
	}

	tags := make([]string, 0, maxSuggestions)
	for _, tag := range parsed.Hashtags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if !strings.HasPrefix(tag, "#") {
			tag = "#" + tag
		}
		tags = append(tags, tag)
		if len(tags) == maxSuggestions {
			break
		}
	}
	if len(tags) == 0 {
		return nil, fmt.Errorf("openai completion: нет хештегов в ответе")
	}
	return tags, nil
}

func clipRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
