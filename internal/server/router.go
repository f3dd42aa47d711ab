package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/idilsaglam/tada/internal/logger"
	"github.com/idilsaglam/tada/internal/model"
)

// Repository is the authoritative card store.
type Repository interface {
	GetCard(ctx context.Context, cardID string) (*model.Card, error)
	UpdateItem(ctx context.Context, d model.Delta) (model.ChecklistItem, error)
	DeleteItem(ctx context.Context, itemID string) error
	CardIDForItem(ctx context.Context, itemID string) (string, error)
}

// CardCache is an optional read-through cache in front of the repository.
// Forget advances the card's version; PutCard drops a fill whose version
// is no longer current.
type CardCache interface {
	GetCard(ctx context.Context, cardID string) (*model.Card, bool, error)
	Version(ctx context.Context, cardID string) (int64, error)
	PutCard(ctx context.Context, card *model.Card, version int64) error
	Forget(ctx context.Context, cardID string) error
}

type RouterConfig struct {
	Repo  Repository
	Cache CardCache
	// Token, when set, is required as a bearer token on /api.
	Token string
	Log   *logger.Logger
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	log := cfg.Log
	if log == nil {
		log = logger.Nop()
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(log))

	health := NewHealthHandler()
	r.GET("/healthcheck", health.HealthCheck)

	cards := NewCardHandler(cfg.Repo, cfg.Cache, log)
	api := r.Group("/api")
	api.Use(requireToken(cfg.Token))
	{
		api.GET("/cards/:cardPublicId", cards.GetCard)
		api.PATCH("/checklist-items/:checklistItemPublicId", cards.UpdateItem)
		api.DELETE("/checklist-items/:checklistItemPublicId", cards.DeleteItem)
	}
	return r
}

func requestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"elapsed", time.Since(start),
		)
	}
}

func requireToken(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.Next()
			return
		}
		h := c.GetHeader("Authorization")
		if !strings.HasPrefix(strings.ToLower(h), "bearer ") || strings.TrimSpace(h[7:]) != token {
			RespondError(c, http.StatusUnauthorized, "unauthorized", errUnauthorized)
			c.Abort()
			return
		}
		c.Next()
	}
}
