package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/rfp-assist/backend/internal/ingestion"
	"github.com/rfp-assist/backend/internal/notify"
	"github.com/rfp-assist/backend/pkg/logger"
)

type IngestHandler struct {
	processor *ingestion.Processor
	notifier  *notify.Client
}

func NewIngestHandler(processor *ingestion.Processor, notifier *notify.Client) *IngestHandler {
	return &IngestHandler{
		processor: processor,
		notifier:  notifier,
	}
}

// UploadFinal accepts a finalized RFP document and ingests its approved
// answers into the vector store.
func (h *IngestHandler) UploadFinal(c *fiber.Ctx) error {
	fileName, data, err := readUpload(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	result, err := h.processor.Process(c.Context(), fileName, data)
	if err != nil {
		logger.Error("Ingestion failed", zap.String("file", fileName), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to ingest document",
		})
	}

	if h.notifier != nil {
		if err := h.notifier.Notify(c.Context(), notify.EventFinalArchived, result); err != nil {
			logger.Warn("Webhook notification failed", zap.Error(err))
		}
	}

	return c.JSON(result)
}
