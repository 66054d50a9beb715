package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"prep-quiz-service/internal/app"
	"prep-quiz-service/internal/config"
	"prep-quiz-service/internal/domain"
	"prep-quiz-service/internal/feedback"
	"prep-quiz-service/internal/infra/memory"
	pginfra "prep-quiz-service/internal/infra/postgres"
	redisinfra "prep-quiz-service/internal/infra/redis"
	"prep-quiz-service/internal/scoring"
	transport "prep-quiz-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "prod" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log, err := newLogger(cfg.Env)
	if err != nil {
		return err
	}
	defer log.Sync()

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	var loader memory.QuizLoader = memory.NewStaticQuizLoader(sampleQuizzes())
	if pool != nil {
		loader = pginfra.NewQuizLoader(pool)
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var bank app.QuestionBank
	if redisClient != nil {
		bank = redisinfra.NewQuestionBank(redisClient, loader, quizTTL)
	} else {
		bank = memory.NewQuestionBank(loader, quizTTL)
	}

	var results app.ResultStore
	var board app.LeaderboardStore
	switch {
	case pool != nil:
		results = pginfra.NewResultStore(pool)
		board = pginfra.NewLeaderboardStore(pool)
	case redisClient != nil:
		results = redisinfra.NewResultStore(redisClient)
		board = redisinfra.NewLeaderboardStore(redisClient)
	default:
		results = memory.NewResultStore()
		board = memory.NewLeaderboardStore()
	}

	opts := []app.AttemptOption{app.WithScoringConfig(scoringConfig(cfg))}
	if cfg.Feedback.URL != "" {
		timeout := config.TTLDuration(cfg.Feedback.Timeout, 10*time.Second)
		opts = append(opts, app.WithFeedbackGenerator(feedback.NewClient(cfg.Feedback.URL, timeout)))
	}
	service := app.NewAttemptService(bank, results, board, log, opts...)

	mux := transport.NewMux(
		transport.NewQuizHandler(service, log),
		transport.NewRestHandler(service, log),
	)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info("starting quiz service", zap.String("port", finalPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("failed to start server", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down server")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	service.Flush()
	return nil
}

func scoringConfig(cfg config.Config) scoring.Config {
	sc := scoring.DefaultConfig()
	if cfg.Scoring.Correct != 0 || cfg.Scoring.Incorrect != 0 || cfg.Scoring.Skipped != 0 {
		sc.Weights = scoring.Weights{
			Correct:   cfg.Scoring.Correct,
			Incorrect: cfg.Scoring.Incorrect,
			Skipped:   cfg.Scoring.Skipped,
		}
	}
	sc.AllowNegative = cfg.Scoring.AllowNegative
	return sc
}

// sampleQuizzes provides a minimal question bank; swap the loader for the
// Postgres-backed one by setting postgres.url in the config.
func sampleQuizzes() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"general-1": {
			ID:       "general-1",
			Title:    "General Knowledge Warmup",
			Category: "General",
			Duration: 600,
			Questions: []domain.Question{
				{
					ID:       "q1",
					Category: "History",
					Text:     "In which year did the Quit India Movement begin?",
					Options:  []string{"1940", "1942", "1944", "1946"},
					Answer:   "1942",
				},
				{
					ID:       "q2",
					Category: "Polity",
					Text:     "How many schedules did the Constitution of India originally contain?",
					Options:  []string{"8", "10", "12", "22"},
					Answer:   "8",
				},
				{
					ID:       "q3",
					Category: "Geography",
					Text:     "Which river is known as the Sorrow of Bengal?",
					Options:  []string{"Ganga", "Damodar", "Hooghly", "Teesta"},
					Answer:   "Damodar",
				},
			},
		},
	}
}
