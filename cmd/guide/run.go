package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/spf13/cobra"

	"github.com/hairizuan-noorazman/screen-guide/capture"
	"github.com/hairizuan-noorazman/screen-guide/cmd/guide/handlers"
	"github.com/hairizuan-noorazman/screen-guide/detect"
	"github.com/hairizuan-noorazman/screen-guide/guidance"
	"github.com/hairizuan-noorazman/screen-guide/logger"
	"github.com/hairizuan-noorazman/screen-guide/matcher"
	"github.com/hairizuan-noorazman/screen-guide/overlay"
	"github.com/hairizuan-noorazman/screen-guide/plansource"
	"github.com/hairizuan-noorazman/screen-guide/snapshot"
	"github.com/hairizuan-noorazman/screen-guide/transcript"
)

var configFile string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the guidance engine and its control API",
	RunE:  runEngine,
}

func init() {
	runCmd.Flags().StringVarP(&configFile, "config", "c", "", "config file path")
	rootCmd.AddCommand(runCmd)
}

func runEngine(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// stdout may carry overlay commands for the UI process; logs go to stderr
	log := logger.NewLogrusLoggerWithOutput(cfg.Log.Level, os.Stderr)
	log.Info(ctx, "starting guidance engine", map[string]interface{}{
		"version": Version,
		"commit":  Commit,
		"date":    BuildDate,
	})

	grabber, err := capture.NewScreenGrabber()
	if err != nil {
		return fmt.Errorf("failed to initialize screen capture: %w", err)
	}

	remote := detect.NewRemoteDetector(detect.RemoteConfig{
		BaseURL:       cfg.Detection.RemoteURL,
		Timeout:       cfg.Detection.Timeout,
		MinConfidence: cfg.Detection.MinConfidence,
		MaxDetections: cfg.Detection.MaxDetections,
	}, log)
	local := detect.NewLocalDetector(detect.LocalConfig{
		MaxDetections: cfg.Detection.MaxDetections,
	}, log)
	orchestrator := detect.NewOrchestrator(remote, local, detect.OrchestratorConfig{
		Timeout:       cfg.Detection.Timeout,
		MinInterval:   cfg.Detection.Interval,
		MinConfidence: cfg.Detection.MinConfidence,
		MaxDetections: cfg.Detection.MaxDetections,
	}, log)

	stepMatcher := matcher.New(matcher.Config{
		LabelWeight:      cfg.Match.LabelWeight,
		TextWeight:       cfg.Match.TextWeight,
		ConfidenceWeight: cfg.Match.ConfidenceWeight,
		Threshold:        cfg.Match.Threshold,
	})

	overlayOut, closeOverlay, err := openOverlayOutput(cfg.Overlay.Output)
	if err != nil {
		return fmt.Errorf("failed to open overlay output: %w", err)
	}
	defer closeOverlay()
	renderer := overlay.NewPipeRenderer(overlayOut, log)

	source, err := plansource.NewSource(plansource.Config{
		Backend: cfg.Plan.Source,
		Bedrock: plansource.BedrockConfig{
			Region:    cfg.Plan.BedrockRegion,
			ModelID:   cfg.Plan.BedrockModel,
			MaxTokens: cfg.Plan.MaxTokens,
		},
		OpenAI: plansource.OpenAIConfig{
			APIKey:  cfg.Plan.OpenAIAPIKey,
			Model:   cfg.Plan.OpenAIModel,
			BaseURL: cfg.Plan.OpenAIBaseURL,
		},
	}, log)
	if err != nil {
		return fmt.Errorf("failed to initialize plan source: %w", err)
	}

	blobStore, err := snapshot.NewBlobStore(snapshot.StoreConfig{
		Backend: cfg.Snapshot.Backend,
		Dir:     cfg.Snapshot.Dir,
		Bucket:  cfg.Snapshot.Bucket,
		Region:  cfg.Snapshot.Region,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize snapshot store: %w", err)
	}
	archiver := snapshot.NewArchiver(blobStore, log)

	transcriptStore, err := transcript.Open(cfg.Transcript.Path, log)
	if err != nil {
		return fmt.Errorf("failed to open transcript store: %w", err)
	}
	log.Info(ctx, "transcript store ready", map[string]interface{}{
		"path": cfg.Transcript.Path,
	})

	engine := guidance.New(guidance.Config{
		TickInterval:    cfg.Detection.Interval,
		NoMatchStreak:   cfg.Recovery.NoMatchStreak,
		RecoveryTimeout: cfg.Recovery.Timeout,
		RetryCeiling:    cfg.Recovery.RetryCeiling,
		PlanTimeout:     cfg.Guidance.PlanTimeout,
		AutoStart:       cfg.Guidance.AutoStart,
	}, guidance.Deps{
		Grabber:  grabber,
		Detector: orchestrator,
		Matcher:  stepMatcher,
		Renderer: renderer,
		Source:   source,
		Sink:     transcript.NewSink(transcriptStore, log),
		Archiver: archiver,
		Logger:   log,
	})

	// Setup router
	router := mux.NewRouter()
	router.HandleFunc("/health", handlers.HealthHandler).Methods("GET")

	guidanceHandler := handlers.NewGuidanceHandler(engine, log)
	transcriptHandler := handlers.NewTranscriptHandler(transcriptStore, log)

	apiRouter := router.PathPrefix("/api/v1").Subrouter()
	apiRouter.HandleFunc("/task", guidanceHandler.StartTask).Methods("POST")
	apiRouter.HandleFunc("/start", guidanceHandler.StartGuidance).Methods("POST")
	apiRouter.HandleFunc("/pause", guidanceHandler.Pause).Methods("POST")
	apiRouter.HandleFunc("/resume", guidanceHandler.Resume).Methods("POST")
	apiRouter.HandleFunc("/reset", guidanceHandler.Reset).Methods("POST")
	apiRouter.HandleFunc("/click", guidanceHandler.Click).Methods("POST")
	apiRouter.HandleFunc("/chat", guidanceHandler.Chat).Methods("POST")
	apiRouter.HandleFunc("/status", guidanceHandler.Status).Methods("GET")
	apiRouter.HandleFunc("/plan", guidanceHandler.Plan).Methods("GET")
	apiRouter.HandleFunc("/sessions", transcriptHandler.ListSessions).Methods("GET")
	apiRouter.HandleFunc("/transcript/{session_id}", transcriptHandler.ListEntries).Methods("GET")

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info(ctx, "control API listening", map[string]interface{}{
			"address": addr,
		})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(ctx, "server error", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info(ctx, "shutting down", nil)
	engine.Reset(ctx)

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info(ctx, "stopped", nil)
	return nil
}

// openOverlayOutput resolves the overlay command destination: stdout by
// default, otherwise a named pipe or file shared with the overlay UI.
func openOverlayOutput(output string) (io.Writer, func(), error) {
	if output == "" || output == "-" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.OpenFile(output, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}
