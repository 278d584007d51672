package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"net/http"
	"os"
	"sync"
	"time"

	"smm-planner/internal/domain"
	"smm-planner/internal/infra/metrics"
)

// ReasonTimeout — причина отказа при превышении таймаута попытки.
const ReasonTimeout = "timeout"

// ReasonRejected — причина отказа при ошибочном статусе ответа платформы.
const ReasonRejected = "rejected"

// ReasonDropped — причина отказа, когда платформа приняла запрос, но
// публикация не прошла вероятностный гейт доставки.
const ReasonDropped = "dropped"

// HTTPPublisher выполняет одну попытку публикации через HTTP API платформы.
// Все сбои — таймаут, транспортная ошибка, отказ, потеря — возвращаются
// структурированным исходом.
type HTTPPublisher struct {
	platform    domain.Platform
	endpoint    string
	client      *http.Client
	timeout     time.Duration
	successRate float64

	mu  sync.Mutex
	rng *rand.Rand
}

var _ domain.Publisher = (*HTTPPublisher)(nil)

// NewHTTP создаёт издателя. successRate ∈ (0, 1] моделирует платформы,
// принимающие запрос и молча теряющие публикацию; 1 отключает гейт.
func NewHTTP(platform domain.Platform, endpoint string, timeout time.Duration, successRate float64, rng *rand.Rand) *HTTPPublisher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if successRate <= 0 || successRate > 1 {
		successRate = 1
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &HTTPPublisher{
		platform:    platform,
		endpoint:    endpoint,
		client:      &http.Client{Timeout: timeout},
		timeout:     timeout,
		successRate: successRate,
		rng:         rng,
	}
}

type publishPayload struct {
	Content  string `json:"content"`
	ImageURL string `json:"image_url,omitempty"`
	Hashtags string `json:"hashtags,omitempty"`
}

// Publish выполняет попытку с таймаутом на весь вызов.
func (p *HTTPPublisher) Publish(ctx context.Context, post domain.ScheduledPost) domain.PublishOutcome {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	body, err := json.Marshal(publishPayload{Content: post.Content, ImageURL: post.ImageURL, Hashtags: post.Hashtags})
	if err != nil {
		return p.failure("marshal payload: " + err.Error())
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return p.failure("build request: " + err.Error())
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := p.client.Do(req)
	metrics.ObserveNetworkRequest("publisher", "publish", string(p.platform), start, err)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
			return p.failure(ReasonTimeout)
		}
		return p.failure(err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return p.failure(ReasonRejected)
	}
	if p.roll() > p.successRate {
		return p.failure(ReasonDropped)
	}
	return domain.PublishOutcome{Platform: p.platform, Succeeded: true}
}

func (p *HTTPPublisher) failure(reason string) domain.PublishOutcome {
	return domain.PublishOutcome{Platform: p.platform, Succeeded: false, Reason: reason}
}

func (p *HTTPPublisher) roll() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rng.Float64()
}
