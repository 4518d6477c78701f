package main

import (
	"context"
	"fmt"
	"os"

	"github.com/annel0/voxelcore/internal/config"
	"github.com/annel0/voxelcore/internal/logging"
	"github.com/annel0/voxelcore/internal/material"
	"github.com/annel0/voxelcore/internal/observability"
	"github.com/annel0/voxelcore/internal/storage"
	"github.com/prometheus/client_golang/prometheus"
)

// session открытое хранилище имен и готовый реестр поверх него
type session struct {
	opts     options
	cfg      *config.Config
	root     storage.WorldRootFunc
	store    storage.NameStore
	registry *material.Registry
	gatherer *prometheus.Registry // nil, если метрики выключены
	shutdown observability.ShutdownFunc
}

func openSession(ctx context.Context, opts options) (*session, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if opts.world != "" {
		cfg.Registry.WorldRoot = opts.world
	}
	if opts.backend != "" {
		cfg.Registry.Backend = opts.backend
	}

	registryLogger, storageLogger, err := setupLogging(cfg.Logging)
	if err != nil {
		return nil, err
	}

	shutdown, err := observability.InitTelemetry(ctx, cfg.Telemetry)
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	s := &session{
		opts:     opts,
		cfg:      cfg,
		root:     storage.StaticWorldRoot(cfg.Registry.GetWorldRoot()),
		shutdown: shutdown,
	}

	s.store, err = storage.OpenNameStore(ctx, &cfg.Registry, s.root, storage.WithStoreLogger(storageLogger))
	if err != nil {
		s.Close(ctx)
		return nil, err
	}

	regOpts := []material.RegistryOption{material.WithLogger(registryLogger)}
	if cfg.Metrics.Enabled {
		s.gatherer = prometheus.NewRegistry()
		metrics, err := material.NewMetrics(s.gatherer)
		if err != nil {
			s.Close(ctx)
			return nil, err
		}
		regOpts = append(regOpts, material.WithMetrics(metrics))
	}

	s.registry = material.NewRegistry(s.store, regOpts...)
	if err := s.registry.Setup(ctx); err != nil {
		s.Close(ctx)
		return nil, err
	}

	registryLogger.Debug("Реестр готов: backend=%s, root=%s", cfg.Registry.GetBackend(), cfg.Registry.GetWorldRoot())
	return s, nil
}

// setupLogging возвращает логгеры реестра и хранилища.
// С logging.file пишет в logs/<component>_<время>.log, иначе только в stderr.
func setupLogging(cfg config.LoggingConfig) (registry, store *logging.Logger, err error) {
	level, err := logging.ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}

	if !cfg.File {
		console := logging.NewConsoleLogger("materialctl", os.Stderr, level)
		logging.SetDefaultLogger(console)
		return console, console, nil
	}

	if err := logging.InitDefaultLogger("materialctl"); err != nil {
		return nil, nil, fmt.Errorf("init logging: %w", err)
	}
	logging.Default().SetLevel(level, logging.TRACE)

	registry = logging.GetRegistryLogger()
	store = logging.GetStorageLogger()
	registry.SetLevel(level, logging.TRACE)
	store.SetLevel(level, logging.TRACE)
	return registry, store, nil
}

// Close закрывает хранилище, сбрасывает спаны и файлы логов
func (s *session) Close(ctx context.Context) {
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			logging.Warn("Ошибка закрытия хранилища: %v", err)
		}
	}
	if s.shutdown != nil {
		if err := s.shutdown(ctx); err != nil {
			logging.Warn("Ошибка остановки телеметрии: %v", err)
		}
	}
	if s.cfg != nil && s.cfg.Logging.File {
		logging.GetLoggerManager().CloseAll()
		logging.CloseDefaultLogger()
	}
}
