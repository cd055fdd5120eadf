package engine

import (
	"log/slog"
)

const (
	defaultShardCount          = 1
	defaultFrameBuffer         = 256
	defaultSubscriptionBuffer  = 256
	defaultSubscriptionWorkers = 1
)

// config stores resolved engine settings after option application.
type config struct {
	shardCount     int
	frameBuffer    int
	defaultBuffer  int
	defaultWorkers int
	log            *slog.Logger
}

// Option mutates engine construction configuration.
type Option func(*config)

// defaultConfig returns production-safe defaults for engine controls.
func defaultConfig() config {
	return config{
		shardCount:     defaultShardCount,
		frameBuffer:    defaultFrameBuffer,
		defaultBuffer:  defaultSubscriptionBuffer,
		defaultWorkers: defaultSubscriptionWorkers,
		log:            slog.Default(),
	}
}

// WithShardCount configures how many ordered ingest loops the engine runs.
func WithShardCount(count int) Option {
	return func(cfg *config) {
		if count > 0 {
			cfg.shardCount = count
		}
	}
}

// WithFrameBuffer configures the per-shard frame queue depth.
func WithFrameBuffer(size int) Option {
	return func(cfg *config) {
		if size > 0 {
			cfg.frameBuffer = size
		}
	}
}

// WithDefaultSubscriptionBuffer configures default subscriber queue depth.
func WithDefaultSubscriptionBuffer(size int) Option {
	return func(cfg *config) {
		if size > 0 {
			cfg.defaultBuffer = size
		}
	}
}

// WithDefaultSubscriptionWorkers configures default subscriber worker count.
func WithDefaultSubscriptionWorkers(workers int) Option {
	return func(cfg *config) {
		if workers > 0 {
			cfg.defaultWorkers = workers
		}
	}
}

// WithLogger configures the engine logger.
func WithLogger(log *slog.Logger) Option {
	return func(cfg *config) {
		if log != nil {
			cfg.log = log
		}
	}
}
