package main

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"epubshrink/internal/config"
	"epubshrink/internal/history"
	"epubshrink/internal/logging"
	"epubshrink/internal/notifications"
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

// runLogger builds the run logger tagged with a fresh run id. When fileOnly is
// set nothing is written to the terminal.
func (c *commandContext) runLogger(ctx context.Context, fileOnly bool) (context.Context, *slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return ctx, nil, err
	}
	var logger *slog.Logger
	if fileOnly {
		logger, err = logging.NewFileOnly(cfg)
	} else {
		logger, err = logging.NewFromConfig(cfg)
	}
	if err != nil {
		return ctx, nil, err
	}
	ctx = logging.WithRunID(ctx, logging.NewRunID())
	return ctx, logging.WithContext(ctx, logger), nil
}

// notifier publishes to ntfy when a topic is configured. Events are logged
// where they happen, not here.
func (c *commandContext) notifier() notifications.Service {
	cfg, _ := c.ensureConfig()
	return notifications.NewService(cfg)
}

func (c *commandContext) withHistory(fn func(*history.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := history.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
