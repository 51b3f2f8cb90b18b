package screening

import (
	"context"
	"fmt"

	authhttp "lungscreen/internal/auth/adapter/http"
	"lungscreen/internal/screening/adapter/cache"
	screeninghttp "lungscreen/internal/screening/adapter/http"
	"lungscreen/internal/screening/adapter/inference"
	"lungscreen/internal/screening/adapter/pdf"
	"lungscreen/internal/screening/adapter/persistence/mongodb"
	"lungscreen/internal/screening/config"
	"lungscreen/internal/screening/domain/repository"
	"lungscreen/internal/screening/usecase"
	"lungscreen/internal/shared/eventbus"
	"lungscreen/internal/shared/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// ScreeningModule wires the screening workflow: classification, history,
// trend analysis, saved records and reports.
type ScreeningModule struct {
	usecase     usecase.ScreeningUsecaseInterface
	handler     *screeninghttp.ScreeningHTTPHandler
	cache       repository.HistoryCache
	redisClient *redis.Client
	events      eventbus.EventBusInterface
	config      *config.Config
	logger      logger.Logger
}

// NewScreeningModule creates a new screening module instance
func NewScreeningModule(
	db *mongo.Database,
	cfg *config.Config,
	events eventbus.EventBusInterface,
	log logger.Logger,
) (*ScreeningModule, error) {
	scanRepo, err := mongodb.NewMongoScanRepository(db)
	if err != nil {
		return nil, fmt.Errorf("failed to create scan repository: %w", err)
	}
	patientRepo, err := mongodb.NewMongoPatientRepository(db)
	if err != nil {
		return nil, fmt.Errorf("failed to create patient record repository: %w", err)
	}
	reportRepo, err := mongodb.NewMongoReportRepository(db)
	if err != nil {
		return nil, fmt.Errorf("failed to create report repository: %w", err)
	}

	inferenceClient := inference.NewClient(cfg.InferenceURL)
	renderer := pdf.NewReportRenderer()

	var redisClient *redis.Client
	var historyCache repository.HistoryCache
	if cfg.RedisEnabled {
		redisClient = config.NewRedisClient(cfg)
		historyCache = cache.NewRedisHistoryCache(redisClient, log)
	}

	screeningUsecase := usecase.NewScreeningUsecase(
		scanRepo,
		patientRepo,
		reportRepo,
		inferenceClient,
		historyCache,
		renderer,
		events,
		log,
	)

	module := &ScreeningModule{
		usecase:     screeningUsecase,
		handler:     screeninghttp.NewScreeningHTTPHandler(screeningUsecase),
		cache:       historyCache,
		redisClient: redisClient,
		events:      events,
		config:      cfg,
		logger:      log.WithComponent("screening.module"),
	}
	module.subscribeCacheInvalidation()

	return module, nil
}

// subscribeCacheInvalidation drops the cached history for a patient whenever
// a record is appended, so the next read reflects the new scan.
func (sm *ScreeningModule) subscribeCacheInvalidation() {
	if sm.events == nil || sm.cache == nil {
		return
	}

	sm.events.Subscribe(eventbus.EventRecordAppended, func(ctx context.Context, event eventbus.Event) error {
		payload, ok := event.Data().(map[string]interface{})
		if !ok {
			return nil
		}
		userID, _ := payload["user_id"].(string)
		patientID, _ := payload["patient_id"].(string)
		if userID == "" || patientID == "" {
			return nil
		}

		if err := sm.cache.InvalidateHistory(ctx, userID, patientID); err != nil {
			sm.logger.Warn("Failed to invalidate history cache",
				zap.String("patientID", patientID),
				zap.Error(err))
		}
		return nil
	})
}

// RegisterRoutes registers screening routes with the provided router
func (sm *ScreeningModule) RegisterRoutes(router fiber.Router, middleware *authhttp.AuthMiddleware) {
	sm.handler.SetupScreeningRoutesWithMiddleware(router, middleware)
}

// GetUsecase returns the screening usecase for external access
func (sm *ScreeningModule) GetUsecase() usecase.ScreeningUsecaseInterface {
	return sm.usecase
}

// Stop performs cleanup when the module is shut down
func (sm *ScreeningModule) Stop() error {
	if sm.redisClient != nil {
		return sm.redisClient.Close()
	}
	return nil
}
