package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/fieldscope/server/adapters/audio"
	"github.com/fieldscope/server/adapters/devices"
	"github.com/fieldscope/server/adapters/llm"
	"github.com/fieldscope/server/adapters/media"
	fsmongo "github.com/fieldscope/server/adapters/mongo"
	"github.com/fieldscope/server/adapters/storage"
	"github.com/fieldscope/server/adapters/stt"
	"github.com/fieldscope/server/adapters/tts"
	"github.com/fieldscope/server/domain/repositories"
	"github.com/fieldscope/server/internal/api"
	"github.com/fieldscope/server/internal/auth"
	"github.com/fieldscope/server/internal/config"
	"github.com/fieldscope/server/internal/pipeline"
	"github.com/fieldscope/server/internal/speaker"
	"github.com/fieldscope/server/internal/websocket"
	"github.com/fieldscope/server/usecase"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg := config.Load()

	// Create Echo instance
	e := echo.New()

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	audioCfg := repositories.AudioConfig{
		SampleRate: cfg.SampleRate,
		Encoding:   cfg.AudioEncoding,
		Language:   cfg.DefaultLocale,
	}

	// Initialize adapters
	useMocks := cfg.UseMockAdapters || cfg.GeminiAPIKey == ""

	var model repositories.GenerativeTextModel
	var liveRecognizer repositories.SpeechRecognizer
	var reviewRecognizer repositories.SpeechRecognizer
	var transcriber repositories.TranscriptionModel
	var synthesizer repositories.SpeechSynthesisModel

	if useMocks {
		logger.Warn("Running with mock adapters; set GEMINI_API_KEY to use real services")
		model = llm.NewMockModel()
		liveRecognizer = stt.NewMockSpeechRecognizer(logger)
		reviewRecognizer = stt.NewMockSpeechRecognizer(logger)
		transcriber = &stt.MockTranscriber{}
		synthesizer = &tts.MockTTS{}
	} else {
		gemini, err := llm.NewGeminiModel(llm.GeminiConfig{APIKey: cfg.GeminiAPIKey}, logger)
		if err != nil {
			logger.Fatal("Failed to initialize Gemini client", zap.Error(err))
		}
		model = gemini

		liveRecognizer = stt.NewGoogleSpeechRecognizer(audioCfg, logger)
		reviewRecognizer = stt.NewGoogleSpeechRecognizer(audioCfg, logger)
		transcriber = stt.NewGoogleTranscriber(logger)

		eleven, err := tts.NewElevenLabsTTS(tts.ElevenLabsConfig{APIKey: cfg.ElevenLabsAPIKey}, logger)
		if err != nil {
			logger.Fatal("Failed to initialize ElevenLabs client", zap.Error(err))
		}
		synthesizer = eleven
	}

	// Persistence
	gateway, err := storage.NewFileStore(cfg.BundleDir, logger)
	if err != nil {
		logger.Fatal("Failed to initialize bundle store", zap.Error(err))
	}

	var archive repositories.SessionArchive
	var mongoClient *fsmongo.Client
	if cfg.MongoURI != "" {
		mongoClient, err = fsmongo.NewClient(cfg.MongoURI, cfg.MongoDBName, logger)
		if err != nil {
			logger.Warn("MongoDB unavailable; session archive disabled", zap.Error(err))
		} else {
			archive = fsmongo.NewBundleArchive(mongoClient.Database)
		}
	}

	deviceRepo := devices.NewMemoryDeviceRepository()
	seedDevices(deviceRepo, logger)

	captureDevice := media.NewFileCaptureDevice(logger)
	issuer := auth.NewTokenIssuer(cfg.JWTSecret, 0)

	// Narration audio flows out through the hub; the hub does not
	// exist yet, so the sink resolves it lazily.
	var hub *websocket.Hub
	player := audio.NewSinkPlayer(func(audioData []byte) {
		if hub != nil {
			hub.BroadcastNarration(audioData)
		}
	}, logger)

	// Initialize usecase services
	live := usecase.NewLiveTranscriptionEngine(
		liveRecognizer,
		speaker.NewClassifier(speaker.ConsultationVocabulary()),
		logger,
	)
	enhancer := usecase.NewEnhancementPipeline(
		captureDevice,
		transcriber,
		model,
		speaker.NewClassifier(speaker.ConsultationVocabulary()),
		speaker.NewClassifier(speaker.RoleVocabulary()),
		logger,
	)
	scopeGen := usecase.NewScopeOfWorkGenerator(model, logger)
	review := usecase.NewInteractiveReviewEngine(model, synthesizer, player, reviewRecognizer, logger)

	controller := usecase.NewSessionController(
		live,
		enhancer,
		scopeGen,
		review,
		captureDevice,
		gateway,
		archive,
		pipeline.NewRunner(logger, nil),
		cfg.AudioDir,
		audioCfg,
		logger,
	)

	// Initialize WebSocket hub with the session controller
	hub = websocket.NewHub(controller, logger)
	go hub.Run()

	// Initialize API routes
	api.InitRoutes(e, api.Dependencies{
		Hub:        hub,
		Controller: controller,
		Devices:    deviceRepo,
		Issuer:     issuer,
		Gateway:    gateway,
		Archive:    archive,
		Logger:     logger,
	})

	// Graceful shutdown
	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	logger.Info("Server started", zap.String("port", cfg.Port), zap.Bool("mock_adapters", useMocks))

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")

	controller.Abandon()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}
	if mongoClient != nil {
		if err := mongoClient.Close(ctx); err != nil {
			logger.Warn("MongoDB close failed", zap.Error(err))
		}
	}

	logger.Info("Server exited")
}

// seedDevices registers development credentials so a recorder can
// authenticate out of the box.
func seedDevices(repo *devices.MemoryDeviceRepository, logger *zap.Logger) {
	seeds := []struct {
		serial, secret, label string
	}{
		{"FS-DEV-001", "dev-secret-001", "Workbench recorder"},
		{"FS-DEV-002", "dev-secret-002", "Field kit recorder"},
	}
	for _, s := range seeds {
		if _, err := repo.Register(s.serial, s.secret, s.label); err != nil {
			logger.Warn("Failed to seed device", zap.String("serial", s.serial), zap.Error(err))
		}
	}
}
