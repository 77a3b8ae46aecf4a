package main

import (
	"net/http"
	"time"

	"mbti-quest/internal/config"
	"mbti-quest/internal/handler"
	sharedMiddleware "mbti-quest/shared/middleware"
	"mbti-quest/shared/models"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"
)

// newRateLimiter guards the endpoints that spend upstream quota. The store is
// shared through Redis when it is configured.
func newRateLimiter(cfg *config.Config, redisClient *redis.Client) gin.HandlerFunc {
	var store ratelimit.Store
	if redisClient != nil {
		store = ratelimit.RedisStore(&ratelimit.RedisOptions{
			RedisClient: redisClient,
			Rate:        cfg.RateLimitWindow,
			Limit:       cfg.RateLimitRequests,
		})
	} else {
		store = ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{
			Rate:  cfg.RateLimitWindow,
			Limit: cfg.RateLimitRequests,
		})
	}
	return ratelimit.RateLimiter(store, &ratelimit.Options{
		ErrorHandler: func(c *gin.Context, info ratelimit.Info) {
			zap.L().Warn("Rate limit exceeded",
				zap.String("clientIP", c.ClientIP()),
				zap.Time("resetTime", info.ResetTime),
				zap.String("path", c.Request.URL.Path),
			)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, models.ErrorResponse{
				Error: "Too many requests. Try again in " + time.Until(info.ResetTime).Round(time.Second).String(),
			})
		},
		KeyFunc: func(c *gin.Context) string {
			return c.ClientIP()
		},
	})
}

func corsConfig(cfg *config.Config) cors.Config {
	corsCfg := cors.DefaultConfig()
	if origins := cfg.GetAllowedOrigins(); len(origins) > 0 {
		corsCfg.AllowOrigins = origins
	} else {
		// "*" вместе с credentials браузер не примет, поэтому origin отражается
		corsCfg.AllowOriginFunc = func(string) bool { return true }
	}
	corsCfg.AllowMethods = []string{"GET", "OPTIONS", "PATCH", "DELETE", "POST", "PUT"}
	corsCfg.AllowHeaders = []string{
		"Origin", "X-CSRF-Token", "X-Requested-With", "Accept", "Accept-Version",
		"Content-Length", "Content-MD5", "Content-Type", "Date", "X-Api-Version",
	}
	corsCfg.AllowCredentials = true
	corsCfg.OptionsResponseStatusCode = http.StatusOK
	corsCfg.MaxAge = 12 * time.Hour
	return corsCfg
}

// newRouter assembles middleware, health check and application routes.
// metrics may be nil.
func newRouter(cfg *config.Config, h *handler.QuizHandler, rateLimit gin.HandlerFunc, metrics *ginprometheus.Prometheus, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.RedirectTrailingSlash = true
	router.Use(sharedMiddleware.GinZapLogger(logger))
	router.Use(gin.Recovery())
	router.Use(cors.New(corsConfig(cfg)))

	// до регистрации роутов, иначе middleware на них не попадёт
	if metrics != nil {
		metrics.Use(router)
	}

	healthHandler := func(c *gin.Context) {
		c.JSON(http.StatusOK, models.StatusResponse{Status: "ok"})
	}
	router.GET("/health", healthHandler)
	router.HEAD("/health", healthHandler)

	h.RegisterRoutes(router, rateLimit)
	return router
}
