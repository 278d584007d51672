package publisher

import (
	"smm-planner/internal/domain"
)

// Registry сопоставляет платформу с издателем. Набор закрытый и формируется
// на старте процесса; незарегистрированная платформа не имеет запасного пути.
type Registry struct {
	byPlatform map[domain.Platform]domain.Publisher
}

var _ domain.PublisherRegistry = (*Registry)(nil)

// NewRegistry создаёт пустой реестр.
func NewRegistry() *Registry {
	return &Registry{byPlatform: make(map[domain.Platform]domain.Publisher)}
}

// Register привязывает издателя к платформе, заменяя прежнего.
func (r *Registry) Register(platform domain.Platform, pub domain.Publisher) {
	r.byPlatform[platform] = pub
}

// Lookup возвращает издателя платформы.
func (r *Registry) Lookup(platform domain.Platform) (domain.Publisher, bool) {
	pub, ok := r.byPlatform[platform]
	return pub, ok
}
