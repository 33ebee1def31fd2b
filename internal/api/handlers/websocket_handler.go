package handlers

import (
	"context"
	"encoding/base64"
	"errors"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/rfp-assist/backend/internal/pipeline"
	"github.com/rfp-assist/backend/pkg/logger"
)

type WebSocketHandler struct {
	engine *pipeline.Engine
}

func NewWebSocketHandler(engine *pipeline.Engine) *WebSocketHandler {
	return &WebSocketHandler{engine: engine}
}

// HandleConnection runs pipeline jobs submitted over a websocket and
// streams one progress event per question back to the client. The document
// content travels base64-encoded in the run message.
func (h *WebSocketHandler) HandleConnection(c *websocket.Conn) {
	logger.Info("WebSocket connection established")

	defer func() {
		c.Close()
		logger.Info("WebSocket connection closed")
	}()

	for {
		var msg struct {
			Type     string `json:"type"`
			FileName string `json:"file_name"`
			Content  string `json:"content"`
		}

		if err := c.ReadJSON(&msg); err != nil {
			logger.Debug("WebSocket read ended", zap.Error(err))
			break
		}

		if msg.Type != "run" {
			continue
		}

		data, err := base64.StdEncoding.DecodeString(msg.Content)
		if err != nil {
			h.sendError(c, "Content must be base64 encoded")
			continue
		}

		if err := h.streamRun(c, msg.FileName, data); err != nil {
			logger.Error("Streamed pipeline run failed", zap.String("file", msg.FileName), zap.Error(err))
			if errors.Is(err, pipeline.ErrNoQuestions) {
				h.sendError(c, "No questions found in the uploaded document")
			} else {
				h.sendError(c, "Failed to process document")
			}
		}
	}
}

func (h *WebSocketHandler) streamRun(c *websocket.Conn, fileName string, data []byte) error {
	result, err := h.engine.RunBytes(context.Background(), fileName, data, func(event pipeline.ProgressEvent) {
		if err := c.WriteJSON(map[string]interface{}{
			"type":  "progress",
			"event": event,
		}); err != nil {
			logger.Warn("Failed to push progress event", zap.Error(err))
		}
	})
	if err != nil {
		return err
	}

	return c.WriteJSON(map[string]interface{}{
		"type":   "complete",
		"result": result,
	})
}

func (h *WebSocketHandler) sendError(c *websocket.Conn, errorMsg string) {
	c.WriteJSON(map[string]interface{}{
		"type":  "error",
		"error": errorMsg,
	})
}
