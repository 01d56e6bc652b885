package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"

	"github.com/menta2k/noface/internal/config"
	"github.com/menta2k/noface/internal/janitor"
	"github.com/menta2k/noface/internal/logging"
	"github.com/menta2k/noface/internal/session"
	"github.com/menta2k/noface/internal/utils"
	"github.com/menta2k/noface/pkg/client"
	"github.com/menta2k/noface/pkg/detection"
	"github.com/menta2k/noface/pkg/llamacpp"
	"github.com/menta2k/noface/pkg/ollama"
	"github.com/menta2k/noface/pkg/processing"
	"github.com/menta2k/noface/pkg/rekognition"
	"github.com/menta2k/noface/pkg/render"
)

func main() {
	var configPath, backend, url, model, tmp, logMode string
	var userID int64

	flag.StringVar(&configPath, "config", config.GetConfigPath(), "JSON config file (ignored if missing)")
	flag.StringVar(&backend, "backend", "", "detector backend: rekognition|ollama|llamacpp")
	flag.StringVar(&url, "url", "", "vision server URL for ollama/llamacpp")
	flag.StringVar(&model, "model", "", "vision model name for ollama/llamacpp")
	flag.StringVar(&tmp, "tmp", "", "work folder for rendered photos")
	flag.StringVar(&logMode, "log", "", "log mode: release|debug")
	flag.Int64Var(&userID, "user", 1, "user id of the console conversation")
	flag.Parse()

	cfg, err := loadConfig(configPath)
	if err != nil {
		log.Fatal(err)
	}
	if backend != "" {
		cfg.Detector.Backend = backend
	}
	if url != "" {
		cfg.Detector.URL = url
	}
	if model != "" {
		cfg.Detector.Model = model
	}
	if tmp != "" {
		cfg.Session.TmpFolder = tmp
	}
	if logMode != "" {
		cfg.Log.Mode = logMode
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	logger, err := logging.New(cfg.Log.Mode)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, userID); err != nil {
		logger.Fatal("bot stopped", zap.Error(err))
	}
}

func loadConfig(path string) (*config.Config, error) {
	cfg := config.Default()
	if path != "" && utils.FileExists(path) {
		loaded, err := config.LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newDetector(ctx context.Context, cfg config.DetectorConfig) (detection.Detector, error) {
	var visionClient client.VisionClient
	var err error

	switch cfg.Backend {
	case config.BackendRekognition:
		rcfg := rekognition.DefaultConfig()
		rcfg.Region = cfg.Region
		detector, err := rekognition.NewDetector(ctx, rcfg)
		if err != nil {
			return nil, err
		}
		return detector, nil
	case config.BackendOllama:
		visionClient, err = ollama.NewClient(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to create Ollama client: %w", err)
		}
	case config.BackendLlamaCpp:
		visionClient, err = llamacpp.NewClient(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to create llama.cpp client: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown backend: %s (use 'rekognition', 'ollama' or 'llamacpp')", cfg.Backend)
	}

	return detection.NewVisionDetector(visionClient, cfg.Model), nil
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger, userID int64) error {
	if err := utils.EnsureDir(cfg.Session.TmpFolder); err != nil {
		return fmt.Errorf("failed to create work folder: %w", err)
	}

	detector, err := newDetector(ctx, cfg.Detector)
	if err != nil {
		return err
	}

	opts := render.Options{
		Opacity:    cfg.Render.Opacity,
		BlurSigma:  cfg.Render.BlurSigma,
		LabelScale: cfg.Render.LabelScale,
		FontFile:   cfg.Render.FontFile,
	}
	reference, err := render.NewReference(opts)
	if err != nil {
		return err
	}
	framer, err := render.NewFramer(cfg.Render.BorderSize, cfg.Render.FooterText, cfg.Render.FontFile)
	if err != nil {
		return err
	}

	processor := processing.NewProcessor()
	store := session.NewStore()
	transport := newConsoleTransport(os.Stdout)

	machine := session.NewMachine(session.Dependencies{
		Store:     store,
		Detector:  detection.NewRetrying(detector, cfg.Session.DetectRetries, cfg.Session.RetryDelay()),
		Processor: processor,
		Reference: reference,
		Redaction: render.NewRedaction(opts),
		Artifacts: render.NewStore(processor, framer, cfg.Render.Quality),
		Transport: transport,
		Registry:  session.NewMemoryRegistry(),
		Logger:    logger,
	}, session.Options{
		TmpFolder:   cfg.Session.TmpFolder,
		MaxFaces:    cfg.Session.MaxFaces,
		SendSize:    cfg.Detector.SendSize,
		SendQuality: cfg.Detector.SendQuality,
	})

	dispatcher := session.NewDispatcher(ctx, machine, logger)
	defer dispatcher.Close()

	cleaner := janitor.New(store, cfg.Session.TmpFolder, cfg.Session.IdleTimeout(), cfg.Session.CleanupInterval(), logger)
	go cleaner.Run(ctx)
	defer cleaner.Stop()

	logger.Info("bot initialized",
		zap.String("backend", cfg.Detector.Backend),
		zap.String("tmp_folder", cfg.Session.TmpFolder),
	)
	fmt.Printf("%s: type /start to begin, \"photo <path|url>\" to send a photo, /cancel to stop\n", filepath.Base(os.Args[0]))

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if line == "" {
				continue
			}
			ev, err := parseLine(processor, userID, line)
			if err != nil {
				fmt.Println(err)
				continue
			}
			if err := dispatcher.Submit(ev); err != nil {
				return err
			}
		}
	}
}
