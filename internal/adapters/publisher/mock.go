package publisher

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"smm-planner/internal/domain"
)

// MockPublisher имитирует API платформы: случайная задержка в заданном
// диапазоне и вероятностные отказы. Источник случайности инжектируется,
// чтобы тесты могли зафиксировать seed.
type MockPublisher struct {
	platform    domain.Platform
	timeout     time.Duration
	successRate float64
	minDelay    time.Duration
	maxDelay    time.Duration

	mu  sync.Mutex
	rng *rand.Rand
}

var _ domain.Publisher = (*MockPublisher)(nil)

// NewMock создаёт мок-издателя с задержкой в [minDelay, maxDelay].
func NewMock(platform domain.Platform, timeout time.Duration, successRate float64, minDelay, maxDelay time.Duration, rng *rand.Rand) *MockPublisher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if successRate < 0 || successRate > 1 {
		successRate = 0.85
	}
	if maxDelay < minDelay {
		maxDelay = minDelay
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &MockPublisher{
		platform:    platform,
		timeout:     timeout,
		successRate: successRate,
		minDelay:    minDelay,
		maxDelay:    maxDelay,
		rng:         rng,
	}
}

// Publish имитирует попытку публикации: выдерживает задержку, проверяет
// таймаут и вероятностный гейт доставки.
func (m *MockPublisher) Publish(ctx context.Context, _ domain.ScheduledPost) domain.PublishOutcome {
	delay, roll := m.draw()

	wait := delay
	if wait > m.timeout {
		wait = m.timeout
	}
	select {
	case <-time.After(wait):
	case <-ctx.Done():
		return domain.PublishOutcome{Platform: m.platform, Succeeded: false, Reason: ReasonTimeout}
	}
	if delay > m.timeout {
		return domain.PublishOutcome{Platform: m.platform, Succeeded: false, Reason: ReasonTimeout}
	}
	if roll > m.successRate {
		return domain.PublishOutcome{Platform: m.platform, Succeeded: false, Reason: ReasonRejected}
	}
	return domain.PublishOutcome{Platform: m.platform, Succeeded: true}
}

func (m *MockPublisher) draw() (time.Duration, float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delay := m.minDelay
	if spread := m.maxDelay - m.minDelay; spread > 0 {
		delay += time.Duration(m.rng.Int63n(int64(spread) + 1))
	}
	return delay, m.rng.Float64()
}
