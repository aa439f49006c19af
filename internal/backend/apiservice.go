package backend

import (
	"context"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/ecoclassify/ecoclassify/internal/backend/catalog"
	"github.com/ecoclassify/ecoclassify/internal/backend/classifier"
	"github.com/ecoclassify/ecoclassify/internal/backend/database"
	"github.com/ecoclassify/ecoclassify/internal/backend/upload"
	"github.com/ecoclassify/ecoclassify/internal/core"
)

// ClassificationService is the slice of the core service the JSON API needs.
type ClassificationService interface {
	Classify(ctx context.Context, file *multipart.FileHeader) (*database.Prediction, error)
	History(ctx context.Context) ([]*database.Prediction, error)
	DashboardStats(ctx context.Context) (*core.Stats, error)
}

type APIService struct {
	config  *core.ServiceConfig
	service ClassificationService
}

type errorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

type predictionResponse struct {
	Message    string               `json:"message"`
	Prediction *database.Prediction `json:"prediction"`
}

type historyResponse struct {
	Message     string                 `json:"message"`
	Predictions []*database.Prediction `json:"predictions"`
}

type statsResponse struct {
	Message string      `json:"message"`
	Stats   *core.Stats `json:"stats"`
}

type categoriesResponse struct {
	Message    string             `json:"message"`
	Categories []catalog.Category `json:"categories"`
}

func NewAPIService(config *core.ServiceConfig, service ClassificationService) *APIService {
	return &APIService{
		config:  config,
		service: service,
	}
}

func (s *APIService) SetRoutes(e *echo.Echo) {
	// Set probe route
	e.GET("/", func(c echo.Context) error {
		return c.String(http.StatusOK, "Waste Classification Backend is running!")
	})

	e.POST("/api/predict", s.predictHandler)
	e.GET("/api/predictions", s.historyHandler)
	e.GET("/api/stats", s.statsHandler)
	e.GET("/api/categories", s.categoriesHandler)
}

func (s *APIService) predictHandler(ctx echo.Context) error {
	file, err := ctx.FormFile(upload.FieldName)
	if err != nil {
		slog.Warn("predictHandler: no image in request", "status", http.StatusBadRequest, "error", err)
		return ctx.JSON(http.StatusBadRequest, errorResponse{Message: "No image uploaded."})
	}

	record, err := s.service.Classify(ctx.Request().Context(), file)
	if err != nil {
		return s.classificationError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, predictionResponse{
		Message:    "Prediction successful",
		Prediction: record,
	})
}

// classificationError maps the pipeline's failure taxonomy onto HTTP
// responses. Every branch carries a human-readable message plus the
// underlying detail where one exists.
func (s *APIService) classificationError(ctx echo.Context, err error) error {
	switch {
	case errors.Is(err, upload.ErrValidation):
		slog.Warn("predictHandler: rejected upload", "status", http.StatusBadRequest, "error", err)
		return ctx.JSON(http.StatusBadRequest, errorResponse{
			Message: "Invalid image upload.",
			Error:   errorDetail(err, upload.ErrValidation),
		})
	case errors.Is(err, classifier.ErrPrediction):
		slog.Error("predictHandler: predictor reported an error", "status", http.StatusInternalServerError, "error", err)
		return ctx.JSON(http.StatusInternalServerError, errorResponse{
			Message: "Error during prediction.",
			Error:   errorDetail(err, classifier.ErrPrediction),
		})
	case errors.Is(err, classifier.ErrUnusableOutput):
		slog.Error("predictHandler: unusable predictor output", "status", http.StatusInternalServerError, "error", err)
		return ctx.JSON(http.StatusInternalServerError, errorResponse{
			Message: "Error processing prediction result.",
			Error:   errorDetail(err, classifier.ErrUnusableOutput),
		})
	case errors.Is(err, classifier.ErrInvocation):
		slog.Error("predictHandler: prediction script failed", "status", http.StatusInternalServerError, "error", err)
		return ctx.JSON(http.StatusInternalServerError, errorResponse{
			Message: "Error executing prediction script.",
			Error:   errorDetail(err, classifier.ErrInvocation),
		})
	case errors.Is(err, core.ErrPersistence):
		slog.Error("predictHandler: failed to save prediction", "status", http.StatusInternalServerError, "error", err)
		return ctx.JSON(http.StatusInternalServerError, errorResponse{
			Message: "Error saving prediction result.",
			Error:   errorDetail(err, core.ErrPersistence),
		})
	default:
		slog.Error("predictHandler: classification failed", "status", http.StatusInternalServerError, "error", err)
		return ctx.JSON(http.StatusInternalServerError, errorResponse{
			Message: "Error during prediction.",
			Error:   err.Error(),
		})
	}
}

func (s *APIService) historyHandler(ctx echo.Context) error {
	predictions, err := s.service.History(ctx.Request().Context())
	if err != nil {
		slog.Error("historyHandler: failed to fetch history", "status", http.StatusInternalServerError, "error", err)
		return ctx.JSON(http.StatusInternalServerError, errorResponse{
			Message: "Error fetching prediction history.",
			Error:   err.Error(),
		})
	}

	return ctx.JSON(http.StatusOK, historyResponse{
		Message:     "Prediction history fetched successfully",
		Predictions: predictions,
	})
}

func (s *APIService) statsHandler(ctx echo.Context) error {
	stats, err := s.service.DashboardStats(ctx.Request().Context())
	if err != nil {
		slog.Error("statsHandler: failed to compute stats", "status", http.StatusInternalServerError, "error", err)
		return ctx.JSON(http.StatusInternalServerError, errorResponse{
			Message: "Error fetching classification statistics.",
			Error:   err.Error(),
		})
	}

	return ctx.JSON(http.StatusOK, statsResponse{
		Message: "Classification statistics fetched successfully",
		Stats:   stats,
	})
}

func (s *APIService) categoriesHandler(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, categoriesResponse{
		Message:    "Waste categories fetched successfully",
		Categories: catalog.All(),
	})
}

// errorDetail strips the taxonomy prefix so the response's error field
// carries only the underlying cause, e.g. the predictor's own message.
func errorDetail(err, sentinel error) string {
	return strings.TrimPrefix(err.Error(), sentinel.Error()+": ")
}
