package main

import (
	"context"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"alforqan/internal/api"
	"alforqan/internal/config"
	"alforqan/internal/queue"
)

type commandContext struct {
	apiFlag    *string
	tokenFlag  *string
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(apiFlag, tokenFlag, configFlag *string) *commandContext {
	return &commandContext{
		apiFlag:    apiFlag,
		tokenFlag:  tokenFlag,
		configFlag: configFlag,
	}
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

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

func (c *commandContext) apiAddress() string {
	if c.apiFlag != nil {
		if addr := strings.TrimSpace(*c.apiFlag); addr != "" {
			return addr
		}
	}
	if cfg := c.configValue(); cfg != nil {
		return strings.TrimSpace(cfg.Paths.APIBind)
	}
	return ""
}

func (c *commandContext) apiToken() string {
	if c.tokenFlag != nil {
		if token := strings.TrimSpace(*c.tokenFlag); token != "" {
			return token
		}
	}
	if cfg := c.configValue(); cfg != nil {
		return strings.TrimSpace(cfg.Paths.APIToken)
	}
	return ""
}

// dialDaemon returns a client when a daemon answers on the configured API
// address. A nil client without error means no daemon is reachable.
func (c *commandContext) dialDaemon(ctx context.Context) (*api.Client, error) {
	addr := c.apiAddress()
	if addr == "" {
		return nil, nil
	}
	client := api.NewClient(addr, c.apiToken())
	if err := client.Ping(ctx); err != nil {
		return nil, nil
	}
	return client, nil
}

// withQueue hands the callback a daemon client when one is reachable, falling
// back to direct store access otherwise. Exactly one of the two is non-nil.
func (c *commandContext) withQueue(ctx context.Context, fn func(client *api.Client, store *queue.Store) error) error {
	client, err := c.dialDaemon(ctx)
	if err != nil {
		return err
	}
	if client != nil {
		return fn(client, nil)
	}

	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := queue.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(nil, store)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
