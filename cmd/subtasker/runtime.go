package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/sd155/subtasker/internal/chat"
	"github.com/sd155/subtasker/internal/checker"
	"github.com/sd155/subtasker/internal/config"
	"github.com/sd155/subtasker/internal/decompose"
	"github.com/sd155/subtasker/internal/llm"
	"github.com/sd155/subtasker/internal/logging"
	"github.com/sd155/subtasker/internal/metrics"
	"github.com/sd155/subtasker/internal/prompts"
)

// runtime holds everything a chat front end needs.
type runtime struct {
	cfg     *config.Config
	logger  *zap.Logger
	tracker *llm.TokenTracker
	store   *prompts.Store
	session *chat.Session
	metrics *metrics.Server

	closeLog func() error
}

// loadConfig loads the configuration and applies the persistent flags.
func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if rootConfigPath != "" {
		cfg, err = config.LoadFromPath(rootConfigPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if rootModel != "" {
		cfg.LLM.Model = rootModel
	}
	if rootLogFile != "" {
		cfg.Logging.Path = rootLogFile
	}
	if rootLogLevel != "" {
		if _, err := logging.ParseLevel(rootLogLevel); err != nil {
			return nil, err
		}
		cfg.Logging.Level = rootLogLevel
	}
	if rootPromptsPath != "" {
		cfg.Prompts.Path = rootPromptsPath
	}
	if rootMetricsAddr != "" {
		cfg.Metrics.Addr = rootMetricsAddr
	}
	return cfg, nil
}

// newRuntime wires the gateway clients, agents and session.
func newRuntime() (*runtime, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	apiKey, err := config.GetAPIKey(cfg)
	if err != nil {
		if errors.Is(err, config.ErrNoAPIKey) {
			return nil, fmt.Errorf("%w\n\nSet SUBTASKER_API_KEY or run:\n  subtasker config llm.api_key <key>", err)
		}
		return nil, err
	}

	logger, closeLog, err := logging.New(cfg.Logging.Path, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}

	rt := &runtime{cfg: cfg, logger: logger, closeLog: closeLog}
	if err := rt.wire(apiKey); err != nil {
		rt.Close()
		return nil, err
	}

	logger.Info("runtime ready",
		zap.String("model", cfg.LLM.Model),
		zap.String("endpoint", cfg.LLM.Endpoint),
		zap.String("prompts", cfg.Prompts.Path),
		zap.String("session", rt.session.ID().String()))
	return rt, nil
}

func (rt *runtime) wire(apiKey string) error {
	store, err := prompts.NewStore(rt.cfg.Prompts.Path, rt.logger.Named("prompts"))
	if err != nil {
		return fmt.Errorf("load prompts: %w", err)
	}
	rt.store = store
	if rt.cfg.Prompts.Watch {
		if err := store.Watch(); err != nil {
			return fmt.Errorf("watch prompts: %w", err)
		}
	}

	rt.tracker = llm.NewTokenTracker()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m, err := metrics.New(registry)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}
	if rt.cfg.Metrics.Addr != "" {
		srv, err := metrics.Serve(rt.cfg.Metrics.Addr, registry, rt.logger.Named("metrics"))
		if err != nil {
			return fmt.Errorf("serve metrics: %w", err)
		}
		rt.metrics = srv
	}

	decomposerCfg := rt.cfg.DecomposerGateway(apiKey)
	decomposerCfg.Tracker = rt.tracker
	decomposerGateway, err := llm.NewClient(decomposerCfg, rt.logger.Named("llm.decomposer"))
	if err != nil {
		return fmt.Errorf("create decomposer gateway: %w", err)
	}

	checkerCfg := rt.cfg.CheckerGateway(apiKey)
	checkerCfg.Tracker = rt.tracker
	checkerGateway, err := llm.NewClient(checkerCfg, rt.logger.Named("llm.checker"))
	if err != nil {
		return fmt.Errorf("create checker gateway: %w", err)
	}

	session, err := chat.NewSession(chat.RequiredConfig{
		Decomposer: decompose.New(m.InstrumentGateway("decomposer", decomposerGateway), store, rt.logger.Named("decomposer")),
		Checker:    checker.New(m.InstrumentGateway("checker", checkerGateway), store, rt.logger.Named("checker")),
	}, chat.WithLogger(rt.logger.Named("chat")), chat.WithRecorder(m))
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	rt.session = session
	return nil
}

// Close stops the session and releases the metrics server, prompt watcher
// and log file. It does not wait for a request in flight.
func (rt *runtime) Close() {
	if rt.session != nil {
		rt.session.Close()
	}
	if rt.metrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := rt.metrics.Shutdown(ctx); err != nil {
			rt.logger.Warn("shutdown metrics server", zap.Error(err))
		}
		cancel()
	}
	if rt.store != nil {
		if err := rt.store.Close(); err != nil {
			rt.logger.Warn("close prompt store", zap.Error(err))
		}
	}
	if rt.closeLog != nil {
		_ = rt.closeLog()
	}
}
