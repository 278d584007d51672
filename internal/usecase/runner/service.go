package runner

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"smm-planner/internal/domain"
	"smm-planner/internal/infra/metrics"
)

// PostPublisher запускает публикацию поста по идентификатору.
type PostPublisher interface {
	PublishPost(ctx context.Context, postID string) error
}

// Runner периодически опрашивает хранилище таймеров и раздаёт наступившие
// задачи ограниченному пулу воркеров. Повторная диспетчеризация ключа,
// который уже в работе, подавляется локальным in-flight набором; после
// перезапуска восстановление идёт только через долговечное хранилище.
type Runner struct {
	timers    domain.TimerStore
	posts     domain.PostRepo
	publisher PostPublisher
	interval  time.Duration
	slots     chan struct{}
	log       zerolog.Logger

	mu       sync.Mutex
	inflight map[string]struct{}

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New создаёт раннер с указанным интервалом опроса и лимитом одновременных задач.
func New(timers domain.TimerStore, posts domain.PostRepo, publisher PostPublisher, interval time.Duration, maxJobs int, logger zerolog.Logger) *Runner {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if maxJobs <= 0 {
		maxJobs = 3
	}
	return &Runner{
		timers:    timers,
		posts:     posts,
		publisher: publisher,
		interval:  interval,
		slots:     make(chan struct{}, maxJobs),
		log:       logger,
		inflight:  make(map[string]struct{}),
	}
}

// Start запускает цикл опроса. Первый опрос выполняется сразу, чтобы после
// перезапуска просроченные записи не ждали целый интервал.
func (r *Runner) Start(ctx context.Context) {
	ctx, r.cancel = context.WithCancel(ctx)
	r.wg.Add(1)
	go r.loop(ctx)
	r.log.Info().Dur("interval", r.interval).Int("max_jobs", cap(r.slots)).Msg("runner: запущен")
}

// Stop останавливает опрос и дожидается завершения запущенных задач.
// Уже отправленные в работу посты доводятся до финального статуса.
func (r *Runner) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
	r.wg.Wait()
	r.log.Info().Msg("runner: остановлен")
}

func (r *Runner) loop(ctx context.Context) {
	defer r.wg.Done()
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		r.pollOnce(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// pollOnce забирает наступившие задачи и раздаёт их воркерам. Избыточные
// задачи ждут свободного слота, а не отбрасываются.
func (r *Runner) pollOnce(ctx context.Context) {
	entries, err := r.timers.PollDue(ctx, time.Now().UTC())
	if err != nil {
		if ctx.Err() == nil {
			r.log.Error().Err(err).Msg("runner: ошибка опроса таймеров")
		}
		return
	}
	for _, entry := range entries {
		if !r.markInflight(entry.JobKey) {
			continue
		}
		metrics.TimerDueTotal.Inc()
		select {
		case r.slots <- struct{}{}:
		case <-ctx.Done():
			r.clearInflight(entry.JobKey)
			return
		}
		r.wg.Add(1)
		go r.dispatch(ctx, entry)
	}
}

// dispatch выполняет одну задачу до финального статуса. Политика без
// повторов: запись таймера удаляется и при успехе, и при ошибке публикации.
func (r *Runner) dispatch(ctx context.Context, entry domain.TimerEntry) {
	defer r.wg.Done()
	defer func() { <-r.slots }()
	defer r.clearInflight(entry.JobKey)

	metrics.RunnerInflightJobs.Inc()
	defer metrics.RunnerInflightJobs.Dec()

	// отмена после начала диспетчеризации не поддерживается:
	// задача доводится до конца даже во время остановки раннера
	jobCtx := context.WithoutCancel(ctx)

	if err := r.publisher.PublishPost(jobCtx, entry.Payload); err != nil {
		r.log.Error().Err(err).Str("job_key", entry.JobKey).Msg("runner: публикация завершилась ошибкой")
		if updErr := r.posts.UpdatePostStatus(jobCtx, entry.Payload, domain.StatusFailed, err.Error()); updErr != nil {
			r.log.Error().Err(updErr).Str("post_id", entry.Payload).Msg("runner: не удалось записать статус failed")
		}
	}
	if err := r.timers.Complete(jobCtx, entry.JobKey); err != nil {
		r.log.Error().Err(err).Str("job_key", entry.JobKey).Msg("runner: не удалось удалить запись таймера")
	}
}

func (r *Runner) markInflight(jobKey string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.inflight[jobKey]; ok {
		return false
	}
	r.inflight[jobKey] = struct{}{}
	return true
}

func (r *Runner) clearInflight(jobKey string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.inflight, jobKey)
}
