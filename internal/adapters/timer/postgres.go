package timer

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"smm-planner/internal/domain"
	"smm-planner/internal/infra/metrics"
)

// DefaultLease — время, через которое захваченная, но не завершённая запись
// снова отдаётся в PollDue. Гарантирует at-least-once при падении раннера.
const DefaultLease = 2 * time.Minute

// Postgres — долговечная реализация domain.TimerStore. Захват записей
// атомарен (FOR UPDATE SKIP LOCKED), поэтому несколько раннеров не заберут
// одну задачу в пределах аренды.
type Postgres struct {
	pool  *pgxpool.Pool
	lease time.Duration
}

var _ domain.TimerStore = (*Postgres)(nil)

// NewPostgres создаёт хранилище таймеров.
func NewPostgres(pool *pgxpool.Pool, lease time.Duration) *Postgres {
	if lease <= 0 {
		lease = DefaultLease
	}
	return &Postgres{pool: pool, lease: lease}
}

func (p *Postgres) connCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, 5*time.Second)
}

// Schedule регистрирует запись или заменяет существующую с тем же ключом.
// Замена сбрасывает захват, чтобы не осталось двойного срабатывания.
func (p *Postgres) Schedule(ctx context.Context, entry domain.TimerEntry) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `
INSERT INTO timer_entries (job_key, fire_time, payload)
VALUES ($1, $2, $3)
ON CONFLICT (job_key) DO UPDATE
SET fire_time = EXCLUDED.fire_time,
    payload = EXCLUDED.payload,
    claimed_at = NULL
`, entry.JobKey, entry.FireTime, entry.Payload)
	metrics.ObserveNetworkRequest("postgres", "timer_schedule", "timer_entries", start, err)
	if err != nil {
		return fmt.Errorf("schedule timer: %w", err)
	}
	return nil
}

// Cancel удаляет запись; отсутствие записи не ошибка.
func (p *Postgres) Cancel(ctx context.Context, jobKey string) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `DELETE FROM timer_entries WHERE job_key = $1`, jobKey)
	metrics.ObserveNetworkRequest("postgres", "timer_cancel", "timer_entries", start, err)
	if err != nil {
		return fmt.Errorf("cancel timer: %w", err)
	}
	return nil
}

// PollDue атомарно захватывает наступившие записи. Записи с истёкшей арендой
// считаются брошенными и отдаются повторно.
func (p *Postgres) PollDue(ctx context.Context, now time.Time) ([]domain.TimerEntry, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
UPDATE timer_entries
SET claimed_at = $1
WHERE job_key IN (
    SELECT job_key
    FROM timer_entries
    WHERE fire_time <= $1
      AND (claimed_at IS NULL OR claimed_at <= $2)
    ORDER BY fire_time
    FOR UPDATE SKIP LOCKED
)
RETURNING job_key, fire_time, payload
`, now, now.Add(-p.lease))
	metrics.ObserveNetworkRequest("postgres", "timer_poll_due", "timer_entries", start, err)
	if err != nil {
		return nil, fmt.Errorf("poll due timers: %w", err)
	}
	defer rows.Close()

	var entries []domain.TimerEntry
	for rows.Next() {
		var entry domain.TimerEntry
		if err := rows.Scan(&entry.JobKey, &entry.FireTime, &entry.Payload); err != nil {
			return nil, fmt.Errorf("scan timer entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Complete окончательно удаляет обработанную запись.
func (p *Postgres) Complete(ctx context.Context, jobKey string) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `DELETE FROM timer_entries WHERE job_key = $1`, jobKey)
	metrics.ObserveNetworkRequest("postgres", "timer_complete", "timer_entries", start, err)
	if err != nil {
		return fmt.Errorf("complete timer: %w", err)
	}
	return nil
}

// ListPending возвращает ключи всех незавершённых записей.
func (p *Postgres) ListPending(ctx context.Context) ([]string, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `SELECT job_key FROM timer_entries ORDER BY fire_time`)
	metrics.ObserveNetworkRequest("postgres", "timer_list_pending", "timer_entries", start, err)
	if err != nil {
		return nil, fmt.Errorf("list pending timers: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan job key: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}
