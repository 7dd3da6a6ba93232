package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/PabloGalante/counsel-agent/internal/adapters/audio"
	"github.com/PabloGalante/counsel-agent/internal/adapters/llm"
	firestorestore "github.com/PabloGalante/counsel-agent/internal/adapters/storage/firestore"
	memstore "github.com/PabloGalante/counsel-agent/internal/adapters/storage/memory"
	redisstore "github.com/PabloGalante/counsel-agent/internal/adapters/storage/redis"
	sqlitestore "github.com/PabloGalante/counsel-agent/internal/adapters/storage/sqlite"
	"github.com/PabloGalante/counsel-agent/internal/adapters/upload"
	"github.com/PabloGalante/counsel-agent/internal/app/conversation"
	"github.com/PabloGalante/counsel-agent/internal/app/risk"
	"github.com/PabloGalante/counsel-agent/internal/app/store"
	"github.com/PabloGalante/counsel-agent/internal/config"
	"github.com/PabloGalante/counsel-agent/internal/domain"
	"github.com/PabloGalante/counsel-agent/internal/observability"
)

// App holds every wired service. Close releases the storage backing.
type App struct {
	Config     *config.Config
	Sessions   *conversation.Service
	Evaluator  *risk.Evaluator
	Recognizer domain.AudioRecognizer

	closers []func() error
}

// New builds the services selected by cfg. The caller must Close the App.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	log := observability.Logger()
	app := &App{Config: cfg}

	kv, err := app.openBacking(ctx, cfg)
	if err != nil {
		return nil, err
	}

	analyzer, err := newAnalyzer(ctx, cfg)
	if err != nil {
		_ = app.Close()
		return nil, err
	}

	var uploader domain.AttachmentUploader
	if cfg.UploadsEnabled() {
		log.Info().Str("cloud", cfg.CloudinaryCloudName).Msg("[UPLOAD] Using Cloudinary uploader")
		uploader = upload.NewCloudinaryUploader(
			cfg.CloudinaryCloudName,
			cfg.CloudinaryUploadPreset,
			cfg.UploadMaxBytes,
			cfg.HTTPTimeout,
		)
	} else {
		log.Warn().Msg("[UPLOAD] Cloudinary not configured, attachments limited to URLs")
	}

	if cfg.AudioEnabled() {
		log.Info().Str("host", cfg.ACRCloudHost).Msg("[AUDIO] Using ACRCloud recognizer")
		app.Recognizer = audio.NewRecognizer(
			"https://"+cfg.ACRCloudHost,
			cfg.ACRCloudAccessKey,
			cfg.ACRCloudSecretKey,
			cfg.HTTPTimeout,
		)
	}

	policy, err := risk.LoadPolicy(cfg.RiskPolicyFile)
	if err != nil {
		_ = app.Close()
		return nil, err
	}
	app.Evaluator = risk.NewEvaluator(policy)

	app.Sessions = conversation.NewService(
		store.New(kv),
		analyzer,
		uploader,
		conversation.WithHistoryBudget(cfg.HistoryBudget),
	)
	return app, nil
}

// Close releases backing resources in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) openBacking(ctx context.Context, cfg *config.Config) (domain.KeyValueStore, error) {
	log := observability.Logger()

	switch cfg.StorageBackend {
	case "memory":
		log.Info().Msg("[STORE] Using in-memory storage")
		return memstore.NewKVStore(), nil

	case "redis":
		log.Info().Str("addr", cfg.RedisAddr).Int("db", cfg.RedisDB).Msg("[STORE] Using Redis storage")
		s, err := redisstore.NewStore(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, fmt.Errorf("init redis store: %w", err)
		}
		a.closers = append(a.closers, s.Close)
		return s, nil

	case "firestore":
		log.Info().Str("project", cfg.GCPProjectID).Msg("[STORE] Using Firestore storage")
		s, err := firestorestore.NewStore(ctx, cfg.GCPProjectID)
		if err != nil {
			return nil, fmt.Errorf("init firestore store: %w", err)
		}
		a.closers = append(a.closers, s.Close)
		return s, nil

	default:
		log.Info().Str("dir", cfg.DataDir).Msg("[STORE] Using SQLite storage")
		s, err := sqlitestore.Open(ctx, cfg.DataDir)
		if err != nil {
			return nil, fmt.Errorf("init sqlite store: %w", err)
		}
		a.closers = append(a.closers, s.Close)
		return s, nil
	}
}

func newAnalyzer(ctx context.Context, cfg *config.Config) (domain.AnalysisService, error) {
	log := observability.Logger()

	switch cfg.AnalysisBackend {
	case "vertex":
		log.Info().Str("model", cfg.ModelName).Msg("[LLM] Using Vertex analyzer")
		a, err := llm.NewVertexAnalyzer(ctx, cfg.GCPProjectID, cfg.GCPLocation, cfg.ModelName)
		if err != nil {
			return nil, fmt.Errorf("init vertex analyzer: %w", err)
		}
		return a, nil

	case "gemini":
		log.Info().Str("model", cfg.ModelName).Msg("[LLM] Using Gemini API analyzer")
		a, err := llm.NewGeminiAnalyzer(ctx, cfg.GeminiAPIKey, cfg.ModelName)
		if err != nil {
			return nil, fmt.Errorf("init gemini analyzer: %w", err)
		}
		return a, nil

	case "http":
		log.Info().Str("url", cfg.AnalysisURL).Msg("[LLM] Using remote analysis endpoint")
		return llm.NewRemoteAnalyzer(cfg.AnalysisURL, cfg.AnalysisAPIKey, cfg.HTTPTimeout), nil

	default:
		log.Info().Msg("[LLM] Using MOCK analyzer")
		return llm.NewMockAnalyzer(), nil
	}
}
