package routes

import (
	"encoding/json"
	"net/http"

	"github.com/houmingya/LLM-MCP-TOOLS/internal/queue"
	"github.com/houmingya/LLM-MCP-TOOLS/internal/server/middleware"
	"github.com/houmingya/LLM-MCP-TOOLS/internal/storage"
	"github.com/houmingya/LLM-MCP-TOOLS/pkg/graph"
	"github.com/houmingya/LLM-MCP-TOOLS/pkg/logger"

	"github.com/labstack/echo/v4"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// inlineContentLimit is the largest content carried inside a queue message.
// Bigger documents go through the archive when one is configured.
const inlineContentLimit = 128 * 1024

// BuildDocumentHandler integrates a document synchronously and returns the
// build summary.
func BuildDocumentHandler(c echo.Context) error {
	type buildDocumentBody struct {
		Filename string `json:"filename" validate:"required"`
		Content  string `json:"content" validate:"required"`
	}

	type buildDocumentResponse struct {
		Message string             `json:"message"`
		Result  *graph.BuildResult `json:"result,omitempty"`
	}

	data := new(buildDocumentBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, buildDocumentResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, buildDocumentResponse{
			Message: "Invalid request body",
		})
	}

	app := c.(*middleware.AppContext).App
	result, err := app.Engine.BuildFromDocument(
		c.Request().Context(),
		data.Content,
		data.Filename,
		app.AiClient,
	)
	if err != nil {
		logger.Error("Failed to build graph from document", "filename", data.Filename, "err", err)
		return c.JSON(http.StatusInternalServerError, buildDocumentResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, buildDocumentResponse{
		Message: result.Message,
		Result:  result,
	})
}

// EnqueueDocumentHandler queues a document build for the worker. Large
// documents are archived and referenced by key instead of traveling inline.
func EnqueueDocumentHandler(c echo.Context) error {
	type enqueueDocumentBody struct {
		Filename string `json:"filename" validate:"required"`
		Content  string `json:"content" validate:"required"`
	}

	type enqueueDocumentResponse struct {
		Message     string `json:"message"`
		BuildID     string `json:"build_id,omitempty"`
		DocumentKey string `json:"document_key,omitempty"`
	}

	data := new(enqueueDocumentBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, enqueueDocumentResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, enqueueDocumentResponse{
			Message: "Invalid request body",
		})
	}

	app := c.(*middleware.AppContext).App
	if app.Queue == nil {
		return c.JSON(http.StatusServiceUnavailable, enqueueDocumentResponse{
			Message: "Async builds are not configured",
		})
	}

	buildID, err := gonanoid.New()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, enqueueDocumentResponse{
			Message: "Internal server error",
		})
	}

	msg := queue.BuildMessage{
		Filename: data.Filename,
		Content:  data.Content,
		BuildID:  buildID,
	}

	if app.S3 != nil && len(data.Content) > inlineContentLimit {
		key, err := storage.PutDocument(
			c.Request().Context(),
			app.S3,
			buildID,
			data.Filename,
			[]byte(data.Content),
		)
		if err != nil {
			logger.Error("Failed to archive document", "filename", data.Filename, "err", err)
			return c.JSON(http.StatusInternalServerError, enqueueDocumentResponse{
				Message: "Internal server error",
			})
		}
		msg.Content = ""
		msg.DocumentKey = key
	}

	msgBytes, err := json.Marshal(msg)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, enqueueDocumentResponse{
			Message: "Internal server error",
		})
	}
	if err := queue.PublishFIFO(app.Queue, queue.BuildQueue, msgBytes); err != nil {
		logger.Error("Failed to publish build message", "filename", data.Filename, "err", err)
		return c.JSON(http.StatusInternalServerError, enqueueDocumentResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusAccepted, enqueueDocumentResponse{
		Message:     "Document queued for processing",
		BuildID:     buildID,
		DocumentKey: msg.DocumentKey,
	})
}
