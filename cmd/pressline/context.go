package main

import (
	"strings"
	"sync"

	"log/slog"

	"pressline/internal/api"
	"pressline/internal/config"
	"pressline/internal/learning"
	"pressline/internal/logging"
	"pressline/internal/orders"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// withEngine opens the store for the duration of one command. Short-lived
// commands keep logging quiet; the serve command builds its own logger.
func (c *commandContext) withEngine(fn func(*config.Config, *api.Service) error) error {
	return c.withEngineLogger(logging.NewNop(), fn)
}

func (c *commandContext) withEngineLogger(logger *slog.Logger, fn func(*config.Config, *api.Service) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := orders.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	learningSvc := learning.NewService(cfg, store, logger)
	engine := api.NewService(store, learningSvc, logger)
	return fn(cfg, engine)
}

// defaultSequence maps the configured substep names onto the engine type.
// An empty configuration falls back to the built-in sequence.
func defaultSequence(cfg *config.Config) []orders.Substage {
	if cfg == nil || len(cfg.Workflow.DefaultSubstages) == 0 {
		return nil
	}
	sequence := make([]orders.Substage, 0, len(cfg.Workflow.DefaultSubstages))
	for _, name := range cfg.Workflow.DefaultSubstages {
		sequence = append(sequence, orders.Substage(name))
	}
	return sequence
}
