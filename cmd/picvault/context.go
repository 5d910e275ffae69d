package main

import (
	"strings"

	"picvault/internal/api"
	"picvault/internal/config"
)

// commandContext lazily resolves configuration and the daemon client so
// commands that never touch the daemon (config init) skip both.
type commandContext struct {
	configFlag *string
	addrFlag   *string

	cfg *config.Config
}

func newCommandContext(configFlag, addrFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag, addrFlag: addrFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	path := ""
	if c.configFlag != nil {
		path = strings.TrimSpace(*c.configFlag)
	}
	cfg, _, _, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	c.cfg = cfg
	return cfg, nil
}

func (c *commandContext) client() (*api.Client, error) {
	if c.addrFlag != nil && strings.TrimSpace(*c.addrFlag) != "" {
		return api.NewClient(*c.addrFlag), nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return api.NewClient(cfg.Paths.APIBind), nil
}
