package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/idilsaglam/tada/internal/logger"
	"github.com/idilsaglam/tada/internal/model"
	"github.com/idilsaglam/tada/internal/store/sqlstore"
)

type HealthHandler struct{}

func NewHealthHandler() *HealthHandler { return &HealthHandler{} }

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

type CardHandler struct {
	repo  Repository
	cache CardCache
	log   *logger.Logger
}

func NewCardHandler(repo Repository, cache CardCache, log *logger.Logger) *CardHandler {
	return &CardHandler{repo: repo, cache: cache, log: log.With("handler", "CardHandler")}
}

func (h *CardHandler) GetCard(c *gin.Context) {
	ctx := c.Request.Context()
	cardID := c.Param("cardPublicId")

	fill := false
	var version int64
	if h.cache != nil {
		card, ok, err := h.cache.GetCard(ctx, cardID)
		if err != nil {
			h.log.Warn("card cache read failed", "card_id", cardID, "error", err)
		} else if ok {
			RespondOK(c, card)
			return
		}
		// The version is read before the repo so a Forget racing this
		// read voids the fill.
		if v, err := h.cache.Version(ctx, cardID); err != nil {
			h.log.Warn("card cache version failed", "card_id", cardID, "error", err)
		} else {
			fill, version = true, v
		}
	}
	card, err := h.repo.GetCard(ctx, cardID)
	if err != nil {
		h.respondStoreError(c, err)
		return
	}
	if fill {
		if err := h.cache.PutCard(ctx, card, version); err != nil {
			h.log.Warn("card cache write failed", "card_id", cardID, "error", err)
		}
	}
	RespondOK(c, card)
}

func (h *CardHandler) UpdateItem(c *gin.Context) {
	var d model.Delta
	if err := c.ShouldBindJSON(&d); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	d.ItemID = c.Param("checklistItemPublicId")
	item, err := h.repo.UpdateItem(c.Request.Context(), d)
	if err != nil {
		h.respondStoreError(c, err)
		return
	}
	h.forgetCardOf(c, d.ItemID)
	RespondOK(c, item)
}

func (h *CardHandler) DeleteItem(c *gin.Context) {
	itemID := c.Param("checklistItemPublicId")
	if err := h.repo.DeleteItem(c.Request.Context(), itemID); err != nil {
		h.respondStoreError(c, err)
		return
	}
	h.forgetCardOf(c, itemID)
	c.Status(http.StatusNoContent)
}

func (h *CardHandler) forgetCardOf(c *gin.Context, itemID string) {
	if h.cache == nil {
		return
	}
	ctx := c.Request.Context()
	cardID, err := h.repo.CardIDForItem(ctx, itemID)
	if err != nil {
		h.log.Warn("resolve card for cache drop", "item_id", itemID, "error", err)
		return
	}
	if err := h.cache.Forget(ctx, cardID); err != nil {
		h.log.Warn("card cache drop failed", "card_id", cardID, "error", err)
	}
}

func (h *CardHandler) respondStoreError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, model.ErrInvalidDelta):
		RespondError(c, http.StatusBadRequest, "invalid_delta", err)
	case errors.Is(err, sqlstore.ErrNotFound):
		RespondError(c, http.StatusNotFound, "not_found", err)
	default:
		h.log.Error("store failure", "path", c.FullPath(), "error", err)
		RespondError(c, http.StatusInternalServerError, "internal", errors.New("internal error"))
	}
}
