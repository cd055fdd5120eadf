package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"statehold/internal/engine"
	"statehold/internal/state"
	"statehold/pkg/gateway"
)

const (
	envConfigFile           = "STATEHOLD_CONFIG_FILE"
	defaultConfigFilePath   = "config/replay.json"
	alternateConfigFilePath = "bin/config/replay.json"

	defaultFrameBuffer         = 256
	defaultSubscriptionBuffer  = 256
	defaultSubscriptionWorkers = 1
	defaultShutdownTimeout     = 10 * time.Second

	maxFrameBytes = 4 << 20
)

type appConfig struct {
	logLevel slog.Level

	frameBuffer         int
	subscriptionBuffer  int
	subscriptionWorkers int
	shutdownTimeout     time.Duration
	messageCap          int
}

type fileConfig struct {
	LogLevel string           `json:"log_level"`
	Engine   fileEngineConfig `json:"engine"`
	Cache    fileCacheConfig  `json:"cache"`
}

type fileEngineConfig struct {
	FrameBuffer         *int   `json:"frame_buffer"`
	SubscriptionBuffer  *int   `json:"subscription_buffer"`
	SubscriptionWorkers *int   `json:"subscription_workers"`
	ShutdownTimeout     string `json:"shutdown_timeout"`
}

type fileCacheConfig struct {
	MessageCap *int `json:"message_cap"`
}

type replaySummary struct {
	Frames  int              `json:"frames"`
	Skipped int              `json:"skipped"`
	Events  map[string]int   `json:"events"`
	Stores  map[string]int64 `json:"stores"`
}

func run(args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.logLevel}))

	input, closeInput, err := openInput(args)
	if err != nil {
		return err
	}
	defer closeInput()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := replay(ctx, logger, cfg, input)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(summary); err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}

	return nil
}

func loadConfig() (appConfig, error) {
	cfg := defaultAppConfig()

	configFile, err := resolveConfigFilePath()
	if err != nil {
		return appConfig{}, err
	}
	if configFile == "" {
		return cfg, nil
	}

	if err := applyConfigFile(&cfg, configFile); err != nil {
		return appConfig{}, err
	}

	return cfg, nil
}

// resolveConfigFilePath returns an empty path when no config file exists; the
// replay tool runs fine on defaults alone.
func resolveConfigFilePath() (string, error) {
	if configFile := strings.TrimSpace(os.Getenv(envConfigFile)); configFile != "" {
		return configFile, nil
	}

	candidates := []string{defaultConfigFilePath, alternateConfigFilePath}
	for _, candidate := range candidates {
		info, err := os.Stat(candidate)
		if err == nil {
			if info.IsDir() {
				return "", fmt.Errorf("config file %s is a directory", candidate)
			}
			return candidate, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("stat config file %s: %w", candidate, err)
		}
	}

	return "", nil
}

func defaultAppConfig() appConfig {
	return appConfig{
		logLevel: slog.LevelInfo,

		frameBuffer:         defaultFrameBuffer,
		subscriptionBuffer:  defaultSubscriptionBuffer,
		subscriptionWorkers: defaultSubscriptionWorkers,
		shutdownTimeout:     defaultShutdownTimeout,
	}
}

func applyConfigFile(cfg *appConfig, path string) error {
	if cfg == nil {
		return fmt.Errorf("apply config file: nil config")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}

	var parsed fileConfig
	if err := json.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if rawLevel := strings.TrimSpace(parsed.LogLevel); rawLevel != "" {
		level, err := parseLogLevel(rawLevel)
		if err != nil {
			return fmt.Errorf("parse log_level: %w", err)
		}
		cfg.logLevel = level
	}

	if parsed.Engine.FrameBuffer != nil {
		if *parsed.Engine.FrameBuffer <= 0 {
			return fmt.Errorf("parse engine.frame_buffer: must be > 0")
		}
		cfg.frameBuffer = *parsed.Engine.FrameBuffer
	}
	if parsed.Engine.SubscriptionBuffer != nil {
		if *parsed.Engine.SubscriptionBuffer <= 0 {
			return fmt.Errorf("parse engine.subscription_buffer: must be > 0")
		}
		cfg.subscriptionBuffer = *parsed.Engine.SubscriptionBuffer
	}
	if parsed.Engine.SubscriptionWorkers != nil {
		if *parsed.Engine.SubscriptionWorkers <= 0 {
			return fmt.Errorf("parse engine.subscription_workers: must be > 0")
		}
		cfg.subscriptionWorkers = *parsed.Engine.SubscriptionWorkers
	}
	if rawTimeout := strings.TrimSpace(parsed.Engine.ShutdownTimeout); rawTimeout != "" {
		timeout, err := time.ParseDuration(rawTimeout)
		if err != nil {
			return fmt.Errorf("parse engine.shutdown_timeout: %w", err)
		}
		if timeout <= 0 {
			return fmt.Errorf("parse engine.shutdown_timeout: must be > 0")
		}
		cfg.shutdownTimeout = timeout
	}

	if parsed.Cache.MessageCap != nil {
		if *parsed.Cache.MessageCap < 0 {
			return fmt.Errorf("parse cache.message_cap: must be >= 0")
		}
		cfg.messageCap = *parsed.Cache.MessageCap
	}

	return nil
}

func parseLogLevel(raw string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unsupported level %q", raw)
	}
}

func openInput(args []string) (io.Reader, func(), error) {
	if len(args) == 0 || args[0] == "-" {
		return os.Stdin, func() {}, nil
	}

	file, err := os.Open(args[0])
	if err != nil {
		return nil, nil, fmt.Errorf("open frame file: %w", err)
	}

	return file, func() { _ = file.Close() }, nil
}

// replay feeds every newline-delimited frame from r through a single-shard
// engine and returns the resulting cache counts.
func replay(ctx context.Context, logger *slog.Logger, cfg appConfig, r io.Reader) (replaySummary, error) {
	var registryOpts []state.RegistryOption
	if cfg.messageCap > 0 {
		registryOpts = append(registryOpts, state.WithMessageCap(cfg.messageCap))
	}
	registry := state.NewRegistry(registryOpts...)
	updater := state.NewUpdater(registry, logger)
	router := state.NewRouter(updater, logger)

	eng := engine.New(
		registry,
		router,
		engine.WithShardCount(1),
		engine.WithFrameBuffer(cfg.frameBuffer),
		engine.WithDefaultSubscriptionBuffer(cfg.subscriptionBuffer),
		engine.WithDefaultSubscriptionWorkers(cfg.subscriptionWorkers),
		engine.WithLogger(logger),
	)

	var (
		eventsMu sync.Mutex
		events   = make(map[string]int)
	)
	_, err := eng.Subscribe(ctx, engine.SubscriptionSpec{
		Name:         "replay-counter",
		Backpressure: engine.BackpressureBlock,
	}, func(ctx context.Context, ev state.Event) error {
		eventsMu.Lock()
		events[ev.Name()]++
		eventsMu.Unlock()
		return nil
	})
	if err != nil {
		return replaySummary{}, fmt.Errorf("subscribe counter: %w", err)
	}

	summary := replaySummary{Events: events}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxFrameBytes)
	line := 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}

		frame, err := gateway.ParseFrame([]byte(raw))
		if err != nil {
			if errors.Is(err, gateway.ErrNotADispatch) {
				summary.Skipped++
				logger.Debug("skipping non-dispatch frame", "line", line)
				continue
			}
			return replaySummary{}, fmt.Errorf("parse frame at line %d: %w", line, err)
		}

		if err := eng.Submit(ctx, 0, frame); err != nil {
			return replaySummary{}, fmt.Errorf("submit frame at line %d: %w", line, err)
		}
		summary.Frames++
	}
	if err := scanner.Err(); err != nil {
		return replaySummary{}, fmt.Errorf("read frames: %w", err)
	}

	closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.shutdownTimeout)
	defer cancel()
	if err := eng.Close(closeCtx); err != nil {
		return replaySummary{}, fmt.Errorf("close engine: %w", err)
	}

	counts, err := registry.Counts(closeCtx)
	if err != nil {
		return replaySummary{}, fmt.Errorf("count stores: %w", err)
	}
	summary.Stores = counts

	return summary, nil
}
