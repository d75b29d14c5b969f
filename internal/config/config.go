package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Prefix das variáveis de ambiente (VATCALC_CALCULATION_TIMEOUT, ...).
const Prefix = "VATCALC"

// Config agrega a configuração do serviço de cálculo.
type Config struct {
	Stage              string        `yaml:"stage" envconfig:"STAGE" default:"dev" validate:"oneof=dev staging prod"`
	LogLevel           string        `yaml:"log_level" envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn warning error fatal"`
	HTTPAddr           string        `yaml:"http_addr" envconfig:"HTTP_ADDR" default:":8080" validate:"required"`
	ReferenceDir       string        `yaml:"reference_dir" envconfig:"REFERENCE_DIR" default:"data/reference" validate:"required"`
	CalculationTimeout time.Duration `yaml:"calculation_timeout" envconfig:"CALCULATION_TIMEOUT" default:"5s" validate:"gt=0"`
	CacheTTL           time.Duration `yaml:"cache_ttl" envconfig:"CACHE_TTL" default:"10m" validate:"gt=0"`
	RefreshSchedule    string        `yaml:"refresh_schedule" envconfig:"REFRESH_SCHEDULE" default:"@every 5m"`
	Currency           string        `yaml:"currency" envconfig:"CURRENCY" default:"EUR" validate:"len=3,uppercase,alpha"`
	MaxParallelism     int           `yaml:"max_parallelism" envconfig:"MAX_PARALLELISM" default:"8" validate:"gte=1,lte=256"`
	ConfigFile         string        `yaml:"-" envconfig:"CONFIG_FILE"`
}

// Load lê as variáveis de ambiente e, se VATCALC_CONFIG_FILE existir, sobrepõe o ficheiro YAML.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if cfg.ConfigFile != "" {
		raw, err := os.ReadFile(cfg.ConfigFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.RefreshSchedule != "" {
		if _, err := cron.ParseStandard(c.RefreshSchedule); err != nil {
			return fmt.Errorf("invalid configuration: refresh schedule %q: %w", c.RefreshSchedule, err)
		}
	}
	return nil
}

func (c *Config) IsProduction() bool { return c.Stage == "prod" }
