package handlers

import (
	"errors"
	"io"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/rfp-assist/backend/internal/pipeline"
	"github.com/rfp-assist/backend/pkg/logger"
)

// maxUploadBytes caps questionnaire uploads at 20MB.
const maxUploadBytes = 20 << 20

type RFPHandler struct {
	engine    *pipeline.Engine
	outputDir string
}

func NewRFPHandler(engine *pipeline.Engine, outputDir string) *RFPHandler {
	return &RFPHandler{
		engine:    engine,
		outputDir: outputDir,
	}
}

// UploadRFP accepts a multipart questionnaire upload, runs the drafting
// pipeline and returns the run summary with download paths.
func (h *RFPHandler) UploadRFP(c *fiber.Ctx) error {
	fileName, data, err := readUpload(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	result, err := h.engine.RunBytes(c.Context(), fileName, data, nil)
	if err != nil {
		if errors.Is(err, pipeline.ErrNoQuestions) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error": "No questions found in the uploaded document",
			})
		}
		logger.Error("Pipeline run failed", zap.String("file", fileName), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to process document",
		})
	}

	return c.JSON(result)
}

// DownloadOutput serves a generated draft document by file name.
func (h *RFPHandler) DownloadOutput(c *fiber.Ctx) error {
	name := c.Params("name")
	if name == "" || strings.ContainsAny(name, "/\\") || strings.Contains(name, "..") {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid file name",
		})
	}

	return c.Download(filepath.Join(h.outputDir, name))
}

// readUpload pulls the "file" part out of a multipart request and enforces
// the extension and size limits shared by the upload endpoints.
func readUpload(c *fiber.Ctx) (string, []byte, error) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return "", nil, errors.New("multipart field 'file' is required")
	}

	if fileHeader.Size > maxUploadBytes {
		return "", nil, errors.New("file exceeds the 20MB upload limit")
	}

	switch strings.ToLower(filepath.Ext(fileHeader.Filename)) {
	case ".docx", ".txt", ".html", ".htm":
	default:
		return "", nil, errors.New("unsupported file type: expected .docx, .txt or .html")
	}

	f, err := fileHeader.Open()
	if err != nil {
		return "", nil, errors.New("failed to open uploaded file")
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return "", nil, errors.New("failed to read uploaded file")
	}

	return filepath.Base(fileHeader.Filename), data, nil
}
