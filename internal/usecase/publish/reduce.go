package publish

import (
	"fmt"
	"strings"

	"smm-planner/internal/domain"
)

// ReduceOutcomes сводит результаты попыток публикации в итоговый статус
// поста и агрегированный текст ошибки. Функция чистая и детерминированная:
// порядок причин повторяет порядок платформ на входе.
func ReduceOutcomes(outcomes []domain.PublishOutcome) (domain.PostStatus, string) {
	if len(outcomes) == 0 {
		return domain.StatusFailed, "нет результатов публикации"
	}

	succeeded := 0
	failures := make([]string, 0, len(outcomes))
	for _, outcome := range outcomes {
		if outcome.Succeeded {
			succeeded++
			continue
		}
		failures = append(failures, fmt.Sprintf("%s: %s", outcome.Platform, outcome.Reason))
	}

	switch {
	case succeeded == len(outcomes):
		return domain.StatusPublished, ""
	case succeeded > 0:
		return domain.StatusPartiallyPublished, strings.Join(failures, "; ")
	default:
		return domain.StatusFailed, strings.Join(failures, "; ")
	}
}
