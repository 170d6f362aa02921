package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/rs/cors"
	"github.com/smartstudy/backend/internal/auth"
	"github.com/smartstudy/backend/internal/config"
	"github.com/smartstudy/backend/internal/database"
	"github.com/smartstudy/backend/internal/feedback"
	"github.com/smartstudy/backend/internal/gamification"
	"github.com/smartstudy/backend/internal/middleware"
	"github.com/smartstudy/backend/internal/preferences"
	"github.com/smartstudy/backend/internal/questions"
	"github.com/smartstudy/backend/internal/quiz"
	"github.com/smartstudy/backend/internal/review"
	"github.com/smartstudy/backend/internal/scheduler"
	"github.com/smartstudy/backend/internal/storage"
	"github.com/smartstudy/backend/internal/triage"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("WARN: failed to read .env: %v", err)
	}

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Storage
	repo, pg, err := openStorage(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open %s storage: %v", cfg.StorageDriver, err)
	}
	defer repo.Close()

	// Question bank
	loader, err := newLoader(cfg)
	if err != nil {
		log.Fatalf("Failed to configure question source: %v", err)
	}
	bank := questions.NewStore(repo)
	if report, err := bank.Init(ctx, loader); err != nil {
		log.Printf("WARN: question bank unavailable, quizzes disabled until reload: %v", err)
	} else {
		log.Printf("Question bank ready: %d questions (cache=%v)", report.Questions, report.FromCache)
	}

	// Services
	reviews := review.NewScheduler(repo, cfg.ReviewInterval)
	rewards := gamification.NewService(gamification.NewStore(repo), cfg.HistoryLimit)
	if err := rewards.Load(ctx); err != nil {
		log.Printf("WARN: failed to load earned badges: %v", err)
	}
	selector := quiz.NewSelector(bank, reviews, repo, quiz.Options{
		DailyChallengeSize: cfg.DailyChallengeSize,
		WeakTopicCount:     cfg.WeakTopicCount,
		Location:           cfg.Location,
	}, nil)
	controller := quiz.NewController(selector, bank, reviews, rewards)

	sink, err := newFeedbackSink(cfg, repo, pg)
	if err != nil {
		log.Fatalf("Failed to configure feedback sink: %v", err)
	}
	submissions := feedback.NewService(sink, newTriage(cfg))

	// Handlers
	questionHandler := questions.NewHandler(bank, loader)
	feedbackHandler := feedback.NewHandler(submissions)
	authHandler := auth.NewHandler(cfg.AdminUsername, cfg.AdminPasswordHash, []byte(cfg.JWTSecret))

	// Setup router
	r := mux.NewRouter()
	api := r.PathPrefix("/api/v1").Subrouter()

	questionHandler.Register(api)
	quiz.NewHandler(controller).Register(api)
	review.NewHandler(reviews, bank).Register(api)
	gamification.NewHandler(rewards).Register(api)
	preferences.NewHandler(preferences.NewStore(repo)).Register(api)
	feedbackHandler.Register(api)
	api.HandleFunc("/auth/login", authHandler.Login).Methods("POST")

	// Protected routes
	if cfg.AdminEnabled() {
		admin := api.PathPrefix("").Subrouter()
		admin.Use(middleware.AuthMiddleware([]byte(cfg.JWTSecret)))
		questionHandler.RegisterAdmin(admin)
		feedbackHandler.RegisterAdmin(admin)
	} else {
		log.Printf("WARN: ADMIN_PASSWORD_HASH or JWT_SECRET not set, admin routes disabled")
	}

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if !bank.Loaded() {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"degraded"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// CORS
	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	// Background jobs
	jobs := scheduler.New(repo, bank, selector, reviews, rewards, cfg.Location)
	if err := jobs.Start(); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}
	defer jobs.Stop()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           c.Handler(r),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("WARN: graceful shutdown failed: %v", err)
	}
}

// openStorage returns the key/value backend. For the postgres driver the
// migrated *sql.DB is returned as well so the feedback sink can share it.
func openStorage(ctx context.Context, cfg *config.Config) (storage.Repository, *sql.DB, error) {
	switch cfg.StorageDriver {
	case "memory":
		log.Printf("WARN: using in-memory storage, progress is lost on restart")
		return storage.NewMemoryStore(), nil, nil
	case "sqlite":
		db, err := database.ConnectSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return storage.NewSQLStore(db), nil, nil
	case "postgres":
		db, err := openPostgres(cfg)
		if err != nil {
			return nil, nil, err
		}
		return storage.NewSQLStore(sqlx.NewDb(db, "postgres")), db, nil
	case "redis":
		rs, err := storage.NewRedisStore(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.Prefix)
		if err != nil {
			return nil, nil, err
		}
		return rs, nil, nil
	}
	return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
}

func openPostgres(cfg *config.Config) (*sql.DB, error) {
	db, err := database.Connect(cfg.Postgres)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return db, nil
}

func newLoader(cfg *config.Config) (*questions.Loader, error) {
	if cfg.QuestionsBaseURL != "" {
		src, err := questions.NewHTTPSource(cfg.QuestionsBaseURL, cfg.FetchTimeout)
		if err != nil {
			return nil, err
		}
		log.Printf("Loading questions from %s", cfg.QuestionsBaseURL)
		return questions.NewLoader(src, cfg.ManifestPath), nil
	}
	log.Printf("Loading questions from %s", cfg.QuestionsRoot)
	return questions.NewLoader(questions.NewFSSource(os.DirFS(cfg.QuestionsRoot)), cfg.ManifestPath), nil
}

func newFeedbackSink(cfg *config.Config, repo storage.Repository, pg *sql.DB) (feedback.Sink, error) {
	if cfg.FeedbackSink != "postgres" {
		return feedback.NewRepositorySink(repo), nil
	}
	if pg == nil {
		db, err := openPostgres(cfg)
		if err != nil {
			return nil, err
		}
		pg = db
	}
	return feedback.NewPostgresSink(pg), nil
}

func newTriage(cfg *config.Config) *triage.Validator {
	if !cfg.SuggestionTriage {
		return triage.NewValidator(nil)
	}
	if cfg.AnthropicAPIKey != "" {
		log.Printf("Suggestion triage enabled (Anthropic API, %s)", cfg.AnthropicModel)
		return triage.NewValidator(triage.NewAPIClient(cfg.AnthropicAPIKey, cfg.AnthropicModel))
	}
	if cfg.TriageCLIPath != "" {
		log.Printf("Suggestion triage enabled (CLI at %s)", cfg.TriageCLIPath)
		return triage.NewValidator(triage.NewCLIClient(cfg.TriageCLIPath))
	}
	log.Printf("WARN: SUGGESTION_TRIAGE set without ANTHROPIC_API_KEY or CLAUDE_CLI_PATH, structural checks only")
	return triage.NewValidator(nil)
}
