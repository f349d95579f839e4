package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/scrambledgregs/fleet-sub001/core/dispatch"
	"github.com/scrambledgregs/fleet-sub001/core/metrics"
	"github.com/scrambledgregs/fleet-sub001/infra/crm"
	"github.com/scrambledgregs/fleet-sub001/infra/eta"
	"github.com/scrambledgregs/fleet-sub001/infra/notify"
)

type Config struct {
	API      APIConfig       `json:"api"`
	Dispatch dispatch.Config `json:"dispatch"`
	ETA      eta.Config      `json:"eta"`
	CRM      crm.Config      `json:"crm"`
	Notify   notify.Config   `json:"notify"`
	Metrics  metrics.Config  `json:"metrics"`
	Logging  LoggingConfig   `json:"logging"`
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("K_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.API.SetDefaults()
	cfg.Dispatch.SetDefaults()
	cfg.ETA.SetDefaults()
	cfg.CRM.SetDefaults()
	cfg.Metrics.SetDefaults()
	cfg.Logging.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints after defaults are applied.
func (c Config) Validate() error {
	if !dispatch.Mode(c.Dispatch.Mode).Valid() {
		return fmt.Errorf("unknown dispatch mode %q", c.Dispatch.Mode)
	}
	if dispatch.Mode(c.Dispatch.Mode) == dispatch.ModeAuto && c.CRM.BaseURL == "" {
		return fmt.Errorf("auto mode requires crm.base_url")
	}
	if err := c.Logging.Validate(); err != nil {
		return err
	}
	return nil
}
