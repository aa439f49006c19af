package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"os"

	"github.com/ecoclassify/ecoclassify/internal/backend/cache"
	"github.com/ecoclassify/ecoclassify/internal/backend/classifier"
	"github.com/ecoclassify/ecoclassify/internal/backend/database"
	"github.com/ecoclassify/ecoclassify/internal/backend/upload"
)

// ErrPersistence marks store failures after a successful classification, so
// the HTTP layer can surface them with their own message.
var ErrPersistence = errors.New("failed to save prediction")

// Invoker is the classifier boundary the core service depends on.
type Invoker interface {
	Invoke(ctx context.Context, imagePath string) (*classifier.Result, error)
}

// PredictionObserver counts successful classifications; nil disables it.
type PredictionObserver interface {
	ObservePrediction(class string)
}

// Stats are the dashboard aggregates derived from the prediction history.
type Stats struct {
	TotalClassifications int            `json:"totalClassifications"`
	ByClass              map[string]int `json:"byClass"`
	OrganicWaste         int            `json:"organicWaste"`
	RecyclableWaste      int            `json:"recyclableWaste"`
	HazardousWaste       int            `json:"hazardousWaste"`
	GeneralWaste         int            `json:"generalWaste"`
}

// CoreService orchestrates the classification flow: store the upload, invoke
// the predictor, persist the result and clean up the temp file on every path.
type CoreService struct {
	config   *ServiceConfig
	store    database.PredictionStore
	receiver *upload.Receiver
	invoker  Invoker
	cache    *cache.Cache
	observer PredictionObserver
}

func NewCoreService(config *ServiceConfig, observer PredictionObserver) (*CoreService, error) {
	store, err := database.NewPredictionStore(config.Database.Type, config.Database.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	slog.Info("database initialized successfully", "type", config.Database.Type)

	receiver, err := upload.NewReceiver(upload.Config{
		Directory:    config.Upload.Directory,
		MaxSizeBytes: config.Upload.MaxSizeBytes,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize upload receiver: %w", err)
	}

	invoker, err := classifier.NewInvoker(classifier.Config{
		Interpreter:     config.Classifier.Interpreter,
		InterpreterArgs: config.Classifier.InterpreterArgs,
		ScriptPath:      config.Classifier.ScriptPath,
		Timeout:         config.ClassifierTimeout(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize classifier invoker: %w", err)
	}

	historyCache := cache.New(cache.Config{
		Address:  config.Cache.Address,
		Password: config.Cache.Password,
		TTL:      config.CacheTTL(),
	})
	if historyCache != nil {
		slog.Info("history cache enabled", "address", config.Cache.Address)
	}

	return &CoreService{
		config:   config,
		store:    store,
		receiver: receiver,
		invoker:  invoker,
		cache:    historyCache,
		observer: observer,
	}, nil
}

// Classify runs the full pipeline for one uploaded image. The temp file is
// removed exactly once on every exit path past the upload step; removal
// failures never alter the outcome.
func (service *CoreService) Classify(ctx context.Context, file *multipart.FileHeader) (*database.Prediction, error) {
	stored, err := service.receiver.Store(file)
	if err != nil {
		return nil, err
	}
	defer func() {
		if removeErr := os.Remove(stored.Path); removeErr != nil {
			slog.Error("failed to delete temp file", "path", stored.Path, "error", removeErr)
		} else {
			slog.Info("deleted temp file", "path", stored.Path)
		}
	}()

	result, err := service.invoker.Invoke(ctx, stored.Path)
	if err != nil {
		return nil, err
	}

	record, err := service.store.CreatePrediction(ctx, database.NewPrediction{
		PredictedClass: result.PredictedClass,
		Confidence:     result.Confidence,
		Handling:       result.Handling,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	slog.Info("prediction saved", "id", record.ID, "predicted_class", record.PredictedClass)

	service.cache.Invalidate(ctx, cache.KeyPredictions, cache.KeyStats)
	if service.observer != nil {
		service.observer.ObservePrediction(record.PredictedClass)
	}

	return record, nil
}

// History returns the full prediction history, newest first.
func (service *CoreService) History(ctx context.Context) ([]*database.Prediction, error) {
	var cached []*database.Prediction
	if service.cache.Get(ctx, cache.KeyPredictions, &cached) {
		return cached, nil
	}

	predictions, err := service.store.ListPredictions(ctx)
	if err != nil {
		return nil, err
	}
	service.cache.Set(ctx, cache.KeyPredictions, predictions)
	return predictions, nil
}

// DashboardStats aggregates the stored predictions for the dashboard.
func (service *CoreService) DashboardStats(ctx context.Context) (*Stats, error) {
	var cached Stats
	if service.cache.Get(ctx, cache.KeyStats, &cached) {
		return &cached, nil
	}

	counts, err := service.store.CountByClass(ctx)
	if err != nil {
		return nil, err
	}

	stats := &Stats{ByClass: counts}
	for class, count := range counts {
		stats.TotalClassifications += count
		switch class {
		case "biological":
			stats.OrganicWaste += count
		case "battery":
			stats.HazardousWaste += count
		case "trash":
			stats.GeneralWaste += count
		default:
			stats.RecyclableWaste += count
		}
	}

	service.cache.Set(ctx, cache.KeyStats, stats)
	return stats, nil
}

func (service *CoreService) Close() error {
	var closeErr error
	if service.cache != nil {
		closeErr = service.cache.Close()
	}
	if err := service.store.Close(); err != nil {
		return err
	}
	return closeErr
}
