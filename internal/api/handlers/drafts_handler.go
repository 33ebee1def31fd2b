package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/rfp-assist/backend/internal/storage/sqlite"
	"github.com/rfp-assist/backend/pkg/logger"
)

type DraftsHandler struct {
	db *sqlite.Client
}

func NewDraftsHandler(db *sqlite.Client) *DraftsHandler {
	return &DraftsHandler{db: db}
}

// GetHistory returns the most recent draft records, newest first.
func (h *DraftsHandler) GetHistory(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	if limit < 1 || limit > 500 {
		limit = 50
	}

	records, err := h.db.GetDraftHistory(limit)
	if err != nil {
		logger.Error("Failed to load draft history", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load draft history",
		})
	}

	return c.JSON(fiber.Map{
		"count":  len(records),
		"drafts": records,
	})
}
