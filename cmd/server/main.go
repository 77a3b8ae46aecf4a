package main

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mbti-quest/internal/config"
	"mbti-quest/internal/flow"
	"mbti-quest/internal/handler"
	"mbti-quest/internal/insight"
	"mbti-quest/internal/mbti"
	"mbti-quest/internal/messaging"
	"mbti-quest/internal/questions"
	"mbti-quest/internal/repository"
	"mbti-quest/internal/results"
	"mbti-quest/internal/scene"
	"mbti-quest/internal/voice"
	sharedLogger "mbti-quest/shared/logger"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"
)

func main() {
	// --- Configuration ---
	cfg, err := config.LoadConfig(".env")
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// --- Logger Setup ---
	logger, err := sharedLogger.New(sharedLogger.Config{
		Level:    cfg.LogLevel,
		Encoding: cfg.LogEncoding,
		Service:  "mbti-quest",
	})
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	zap.ReplaceGlobals(logger)
	zap.L().Info("Logger initialized successfully", zap.String("logLevel", cfg.LogLevel))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- Content ---
	catalog, err := mbti.LoadCatalog()
	if err != nil {
		zap.L().Fatal("Failed to load personality catalog", zap.Error(err))
	}
	bank, err := questions.Load()
	if err != nil {
		zap.L().Fatal("Failed to load question bank", zap.Error(err))
	}
	if cfg.QuizQuestionLimit > 0 {
		bank = bank.Limit(cfg.QuizQuestionLimit)
	}
	registry, err := scene.LoadRegistry()
	if err != nil {
		zap.L().Fatal("Failed to load scenes", zap.Error(err))
	}
	zap.L().Info("Content loaded",
		zap.Int("questions", bank.Len()),
		zap.Int("scenes", len(registry.IDs())),
		zap.Int("personalities", catalog.Len()),
	)

	// --- Optional External Connections ---
	var resultRepo repository.ResultRepository
	if cfg.DatabaseEnabled() {
		pgPool, err := setupPostgres(cfg)
		if err != nil {
			zap.L().Fatal("Failed to connect to PostgreSQL", zap.Error(err))
		}
		defer pgPool.Close()
		// миграции после успешного ping, чтобы не гоняться со стартом базы
		if err := repository.ApplyMigrations(cfg.DatabaseDSN(), logger); err != nil {
			zap.L().Fatal("Failed to apply migrations", zap.Error(err))
		}
		resultRepo = repository.NewPgResultRepository(pgPool, logger)
	} else {
		zap.L().Info("DB_HOST not set, quiz results are not persisted")
	}

	var redisClient *redis.Client
	if cfg.RedisEnabled() {
		redisClient, err = setupRedis(cfg)
		if err != nil {
			zap.L().Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
	} else {
		zap.L().Info("REDIS_ADDR not set, using in-process cache and limiters")
	}

	var (
		publisher messaging.ResultPublisher
		mqConn    *amqp.Connection
	)
	if cfg.RabbitMQEnabled() {
		mqConn, err = connectRabbitMQ(cfg.RabbitMQURL, logger)
		if err != nil {
			zap.L().Fatal("Failed to connect to RabbitMQ", zap.Error(err))
		}
		defer mqConn.Close()
		publisher, err = messaging.NewRabbitMQResultPublisher(mqConn, cfg.QuizCompletedQueue, logger)
		if err != nil {
			zap.L().Fatal("Failed to create result publisher", zap.Error(err))
		}
	} else {
		zap.L().Info("RABBITMQ_URL not set, quiz.completed events are not published")
	}

	// --- Dependency Injection ---
	aiClient, aiErr := insight.NewAIClient(ctx, insight.ClientConfig{
		Provider:    cfg.AIProvider,
		APIKey:      cfg.AIAPIKey(),
		Model:       cfg.AIModel,
		BaseURL:     cfg.AIBaseURL,
		Timeout:     cfg.AITimeout,
		Temperature: cfg.AITemperature,
	}, logger)
	if aiErr != nil {
		zap.L().Warn("AI narrative is disabled", zap.Error(aiErr))
	}
	var insightCache insight.Cache
	if redisClient != nil {
		insightCache = insight.NewRedisCache(redisClient)
	}
	insightSvc := insight.NewService(aiClient, aiErr, insightCache, insight.ServiceConfig{CacheTTL: cfg.InsightCacheTTL}, logger)

	var synth voice.Synthesizer
	if cfg.ElevenLabsAPIKey != "" {
		synth = voice.NewElevenLabsClient(voice.ElevenLabsConfig{
			APIKey:  cfg.ElevenLabsAPIKey,
			BaseURL: cfg.ElevenLabsBaseURL,
			ModelID: cfg.ElevenLabsModelID,
			Timeout: cfg.ElevenLabsTimeout,
		}, logger)
	} else {
		zap.L().Warn("ELEVENLABS_API_KEY not set, voice narration is disabled")
	}
	var limiter voice.Limiter = voice.NewMemoryLimiter(cfg.VoiceCooldown)
	if redisClient != nil {
		redisLimiter := voice.NewRedisLimiter(redisClient, cfg.VoiceCooldown)
		redisLimiter.OnError(func(err error) {
			zap.L().Warn("Voice cooldown fell back to memory", zap.Error(err))
		})
		limiter = redisLimiter
	}
	voiceSvc := voice.NewService(synth, limiter, cfg.ElevenLabsVoiceID, logger)

	deps := flow.SessionDeps{
		Bank:     bank,
		Registry: registry,
		Sink:     results.NewRecorder(resultRepo, publisher, logger),
		Controller: flow.Config{
			LoadingDelay:   cfg.QuizLoadingDelay,
			HandoffTimeout: cfg.QuizHandoffTimeout,
		},
		NarrativeTimeout: cfg.NarrativeTimeout,
	}
	if insightSvc.Configured() {
		deps.Narrative = insightSvc
	}
	manager, err := flow.NewManager(deps, flow.ManagerConfig{
		IdleTTL:     cfg.SessionIdleTTL,
		MaxSessions: cfg.SessionMaxCount,
	}, logger)
	if err != nil {
		zap.L().Fatal("Failed to create session manager", zap.Error(err))
	}
	go manager.Run(ctx)

	quizHandler := handler.NewQuizHandler(handler.Deps{
		Sessions:     manager,
		Insight:      insightSvc,
		Voice:        voiceSvc,
		Presenter:    results.NewPresenter(catalog),
		TickInterval: cfg.QuizTickInterval,
	}, logger)

	// --- HTTP Server Setup (Gin) ---
	gin.SetMode(gin.ReleaseMode)
	if cfg.Env == "development" {
		gin.SetMode(gin.DebugMode)
	}
	router := newRouter(cfg, quizHandler, newRateLimiter(cfg, redisClient), ginprometheus.NewPrometheus("gin"), logger)

	// WriteTimeout не задан: WebSocket соединения живут долго
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	zap.L().Info("Starting HTTP server", zap.String("port", cfg.Port))
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zap.L().Fatal("HTTP Server listen error", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zap.L().Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("HTTP Server forced to shutdown", zap.Error(err))
	}

	// сессии закрываются после сервера: незавершённые handoff'ы успеют записать результат
	cancel()
	manager.Shutdown()
	if closer, ok := publisher.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			zap.L().Error("Error closing result publisher", zap.Error(err))
		}
	}

	zap.L().Info("Server exiting")
}

// setupPostgres initializes the PostgreSQL connection pool with retry logic.
func setupPostgres(cfg *config.Config) (*pgxpool.Pool, error) {
	zap.L().Debug("Setting up PostgreSQL connection...")
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseDSN())
	if err != nil {
		return nil, fmt.Errorf("unable to parse postgres config: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.DBMaxConns)
	poolConfig.MaxConnIdleTime = cfg.DBIdleTimeout

	var lastErr error
	maxRetries := 20
	retryDelay := 3 * time.Second

	zap.L().Info("Attempting to connect to PostgreSQL", zap.Int("max_retries", maxRetries), zap.Duration("retry_delay", retryDelay))

	for i := 0; i < maxRetries; i++ {
		attempt := i + 1
		connectCtx, connectCancel := context.WithTimeout(context.Background(), 5*time.Second)
		pool, err := pgxpool.NewWithConfig(connectCtx, poolConfig)
		connectCancel()
		if err != nil {
			lastErr = fmt.Errorf("unable to create postgres connection pool (attempt %d/%d): %w", attempt, maxRetries, err)
			zap.L().Warn("Postgres connection pool creation failed, retrying...", zap.Int("attempt", attempt), zap.Error(err))
			time.Sleep(retryDelay)
			continue
		}

		pingCtx, pingCancel := context.WithTimeout(context.Background(), 2*time.Second)
		err = pool.Ping(pingCtx)
		pingCancel()
		if err == nil {
			zap.L().Info("Successfully connected and pinged PostgreSQL", zap.Int("attempt", attempt))
			return pool, nil
		}

		pool.Close()
		lastErr = fmt.Errorf("unable to ping postgres database (attempt %d/%d): %w", attempt, maxRetries, err)
		zap.L().Warn("Postgres ping failed, retrying...", zap.Int("attempt", attempt), zap.Error(err))
		time.Sleep(retryDelay)
	}

	return nil, fmt.Errorf("failed to connect to postgres after %d attempts: %w", maxRetries, lastErr)
}

// setupRedis initializes the Redis client with retry logic.
func setupRedis(cfg *config.Config) (*redis.Client, error) {
	redisOpts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
	zap.L().Info("Redis connection options configured", zap.String("address", redisOpts.Addr), zap.Int("db", redisOpts.DB))

	var lastErr error
	maxRetries := 20
	retryDelay := 3 * time.Second

	for i := 0; i < maxRetries; i++ {
		attempt := i + 1
		client := redis.NewClient(redisOpts)

		pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
		_, err := client.Ping(pingCtx).Result()
		pingCancel()
		if err == nil {
			zap.L().Info("Successfully connected and pinged Redis", zap.Int("attempt", attempt))
			return client, nil
		}

		client.Close()
		lastErr = fmt.Errorf("unable to ping redis (attempt %d/%d): %w", attempt, maxRetries, err)
		zap.L().Warn("Redis ping failed, retrying...", zap.Int("attempt", attempt), zap.Error(err))
		time.Sleep(retryDelay)
	}

	return nil, fmt.Errorf("failed to connect to redis after %d attempts: %w", maxRetries, lastErr)
}

// connectRabbitMQ пытается подключиться к RabbitMQ с несколькими попытками
func connectRabbitMQ(rawURL string, logger *zap.Logger) (*amqp.Connection, error) {
	var err error
	maxRetries := 20
	retryDelay := 5 * time.Second
	logger.Info("Attempting to connect to RabbitMQ",
		zap.String("url", maskURL(rawURL)),
		zap.Int("max_retries", maxRetries),
	)
	for i := 0; i < maxRetries; i++ {
		attempt := i + 1
		var conn *amqp.Connection
		conn, err = amqp.Dial(rawURL)
		if err == nil {
			logger.Info("Successfully connected to RabbitMQ", zap.Int("attempt", attempt))
			go func() {
				notifyClose := conn.NotifyClose(make(chan *amqp.Error, 1))
				if err := <-notifyClose; err != nil {
					logger.Error("RabbitMQ connection closed unexpectedly", zap.Error(err))
				} else {
					logger.Info("RabbitMQ connection closed gracefully.")
				}
			}()
			return conn, nil
		}
		logger.Warn("RabbitMQ connection failed, retrying...", zap.Int("attempt", attempt), zap.Error(err))
		time.Sleep(retryDelay)
	}
	return nil, fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", maxRetries, err)
}

// maskURL прячет пароль перед записью в лог.
func maskURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "<invalid url>"
	}
	return u.Redacted()
}
