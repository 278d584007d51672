package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"smm-planner/internal/adapters/hashtag"
	"smm-planner/internal/adapters/repo"
	"smm-planner/internal/adapters/timer"
	"smm-planner/internal/domain"
	"smm-planner/internal/infra/cache"
	"smm-planner/internal/infra/config"
	"smm-planner/internal/infra/db"
	httpinfra "smm-planner/internal/infra/http"
	applog "smm-planner/internal/infra/log"
	"smm-planner/internal/infra/metrics"
	"smm-planner/internal/infra/openai"
	"smm-planner/internal/usecase/schedule"
	"smm-planner/internal/usecase/suggest"
)

func main() {
	cfg := config.Load()
	logger := applog.NewLogger(cfg.AppEnv)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(cfg.PGDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: нет подключения к БД")
	}
	defer pool.Close()

	repoAdapter := repo.NewPostgres(pool)
	timerStore := timer.NewPostgres(pool, cfg.Runner.ClaimLease)
	scheduleService := schedule.NewService(repoAdapter, timerStore)

	var suggestCache domain.Cache
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		suggestCache = cache.NewRedis(redisClient)
	}
	simpleSuggester := hashtag.NewSimple()
	var primary domain.HashtagSuggester = simpleSuggester
	var fallback domain.HashtagSuggester
	if cfg.OpenAI.APIKey != "" {
		client := openai.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.Timeout)
		primary = hashtag.NewOpenAI(client, cfg.OpenAI.Model, cfg.OpenAI.Timeout)
		fallback = simpleSuggester
	}
	suggestService := suggest.NewService(primary, fallback, suggestCache, cfg.Hashtags.CacheTTL)

	server := httpinfra.NewServer(logger.With().Str("component", "http").Logger())

	server.Router.Route("/api/v1", func(r chi.Router) {
		r.Post("/posts", func(w http.ResponseWriter, req *http.Request) {
			defer req.Body.Close()
			var body createPostRequest
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
			post, err := scheduleService.SchedulePost(req.Context(), schedule.CreateParams{
				Content:     body.Content,
				ImageURL:    body.ImageURL,
				Hashtags:    body.Hashtags,
				Platforms:   body.Platforms,
				ScheduledAt: body.ScheduledAt,
			})
			if err != nil {
				switch {
				case errors.Is(err, schedule.ErrEmptyContent),
					errors.Is(err, domain.ErrNoPlatforms),
					errors.Is(err, domain.ErrUnknownPlatform):
					writeError(w, http.StatusBadRequest, err.Error())
				default:
					logger.Error().Err(err).Msg("api: создание поста")
					writeError(w, http.StatusInternalServerError, "failed to schedule post")
				}
				return
			}
			w.WriteHeader(http.StatusCreated)
			writeJSON(w, toPostResponse(post))
		})

		r.Get("/posts", func(w http.ResponseWriter, req *http.Request) {
			limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
			offset, _ := strconv.Atoi(req.URL.Query().Get("offset"))
			posts, err := repoAdapter.ListPosts(req.Context(), limit, offset)
			if err != nil {
				logger.Error().Err(err).Msg("api: список постов")
				writeError(w, http.StatusInternalServerError, "failed to list posts")
				return
			}
			items := make([]postResponse, 0, len(posts))
			for _, post := range posts {
				items = append(items, toPostResponse(post))
			}
			writeJSON(w, map[string]any{"posts": items})
		})

		r.Get("/posts/{id}", func(w http.ResponseWriter, req *http.Request) {
			post, err := repoAdapter.GetPost(req.Context(), chi.URLParam(req, "id"))
			if err != nil {
				if errors.Is(err, domain.ErrPostNotFound) {
					writeError(w, http.StatusNotFound, "post not found")
					return
				}
				logger.Error().Err(err).Msg("api: получение поста")
				writeError(w, http.StatusInternalServerError, "failed to get post")
				return
			}
			writeJSON(w, toPostResponse(post))
		})

		r.Delete("/posts/{id}", func(w http.ResponseWriter, req *http.Request) {
			err := scheduleService.CancelScheduledPost(req.Context(), chi.URLParam(req, "id"))
			if err != nil {
				if errors.Is(err, domain.ErrPostNotFound) {
					writeError(w, http.StatusNotFound, "post not found")
					return
				}
				logger.Error().Err(err).Msg("api: отмена публикации")
				writeError(w, http.StatusInternalServerError, "failed to cancel post")
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})

		r.Get("/posts/{id}/analytics", func(w http.ResponseWriter, req *http.Request) {
			records, err := repoAdapter.ListPostAnalytics(req.Context(), chi.URLParam(req, "id"))
			if err != nil {
				logger.Error().Err(err).Msg("api: аналитика поста")
				writeError(w, http.StatusInternalServerError, "failed to list analytics")
				return
			}
			items := make([]analyticsResponse, 0, len(records))
			for _, record := range records {
				items = append(items, analyticsResponse{
					Platform:       string(record.Platform),
					Views:          record.Views,
					Likes:          record.Likes,
					Shares:         record.Shares,
					EngagementRate: record.EngagementRate,
					CreatedAt:      record.CreatedAt,
				})
			}
			writeJSON(w, map[string]any{"analytics": items})
		})

		r.Get("/jobs", func(w http.ResponseWriter, req *http.Request) {
			keys, err := scheduleService.ListPendingJobs(req.Context())
			if err != nil {
				logger.Error().Err(err).Msg("api: список задач")
				writeError(w, http.StatusInternalServerError, "failed to list jobs")
				return
			}
			if keys == nil {
				keys = []string{}
			}
			writeJSON(w, map[string]any{"jobs": keys})
		})

		r.Get("/analytics/summary", func(w http.ResponseWriter, req *http.Request) {
			counts, err := repoAdapter.CountPostsByStatus(req.Context())
			if err != nil {
				logger.Error().Err(err).Msg("api: сводка по постам")
				writeError(w, http.StatusInternalServerError, "failed to build summary")
				return
			}
			total := 0
			for _, count := range counts {
				total += count
			}
			writeJSON(w, map[string]any{
				"posts_scheduled":           counts[domain.StatusScheduled],
				"posts_published":           counts[domain.StatusPublished],
				"posts_partially_published": counts[domain.StatusPartiallyPublished],
				"posts_failed":              counts[domain.StatusFailed],
				"total_posts":               total,
			})
		})

		r.Post("/hashtags/suggest", func(w http.ResponseWriter, req *http.Request) {
			defer req.Body.Close()
			var body suggestRequest
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
			tags, err := suggestService.Suggest(req.Context(), body.Content)
			if err != nil {
				if errors.Is(err, suggest.ErrEmptyContent) {
					writeError(w, http.StatusBadRequest, "content is required")
					return
				}
				logger.Error().Err(err).Msg("api: подбор хештегов")
				writeError(w, http.StatusInternalServerError, "failed to suggest hashtags")
				return
			}
			writeJSON(w, map[string]any{"hashtags": tags})
		})
	})

	metrics.StartServer(ctx, logger.With().Str("component", "metrics").Logger(), cfg.MetricsAddr)

	go func() {
		if err := server.Start(":" + strconv.Itoa(cfg.Port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("api: сервер остановлен")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("api: остановка")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": msg})
}

type createPostRequest struct {
	Content     string    `json:"content"`
	ImageURL    string    `json:"image_url"`
	Hashtags    string    `json:"hashtags"`
	Platforms   []string  `json:"platforms"`
	ScheduledAt time.Time `json:"scheduled_time"`
}

type suggestRequest struct {
	Content string `json:"content"`
}

type postResponse struct {
	ID           string     `json:"id"`
	Content      string     `json:"content"`
	ImageURL     string     `json:"image_url,omitempty"`
	Hashtags     string     `json:"hashtags,omitempty"`
	Platforms    []string   `json:"platforms"`
	ScheduledAt  time.Time  `json:"scheduled_time"`
	Status       string     `json:"status"`
	ErrorMessage string     `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	PublishedAt  *time.Time `json:"published_at,omitempty"`
}

type analyticsResponse struct {
	Platform       string    `json:"platform"`
	Views          int       `json:"views"`
	Likes          int       `json:"likes"`
	Shares         int       `json:"shares"`
	EngagementRate float64   `json:"engagement_rate"`
	CreatedAt      time.Time `json:"created_at"`
}

func toPostResponse(post domain.ScheduledPost) postResponse {
	platforms := make([]string, 0, len(post.Platforms))
	for _, platform := range post.Platforms {
		platforms = append(platforms, string(platform))
	}
	return postResponse{
		ID:           post.ID,
		Content:      post.Content,
		ImageURL:     post.ImageURL,
		Hashtags:     post.Hashtags,
		Platforms:    platforms,
		ScheduledAt:  post.ScheduledAt,
		Status:       string(post.Status),
		ErrorMessage: post.ErrorMessage,
		CreatedAt:    post.CreatedAt,
		PublishedAt:  post.PublishedAt,
	}
}
