package engagement

import (
	"math/rand"
	"sync"
	"time"

	"smm-planner/internal/domain"
)

// Simulated генерирует правдоподобные счётчики вовлечённости. Числовая
// семантика остаётся условной до интеграции с реальными API платформ;
// источник случайности инжектируется, чтобы тесты могли зафиксировать seed.
type Simulated struct {
	mu  sync.Mutex
	rng *rand.Rand
}

var _ domain.EngagementSource = (*Simulated)(nil)

// NewSimulated создаёт источник; seed 0 означает случайный.
func NewSimulated(seed int64) *Simulated {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Simulated{rng: rand.New(rand.NewSource(seed))}
}

// Counters возвращает счётчики в диапазонах: просмотры 100-1000,
// лайки 10-100, репосты 1-20.
func (s *Simulated) Counters(_ domain.Platform) domain.EngagementCounters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.EngagementCounters{
		Views:  100 + s.rng.Intn(901),
		Likes:  10 + s.rng.Intn(91),
		Shares: 1 + s.rng.Intn(20),
	}
}
