package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/dgallion1/docoutline/internal/outline"
	"github.com/dgallion1/docoutline/internal/parser"
)

type Config struct {
	Port string `env:"PORT" envDefault:"8090"`

	// Auth
	APIKey string `env:"DOCOUTLINE_API_KEY"`

	// Storage and batch directories
	DataDir   string `env:"DATA_DIR" envDefault:"./data"`
	InputDir  string `env:"INPUT_DIR" envDefault:"input"`
	OutputDir string `env:"OUTPUT_DIR" envDefault:"output"`

	// Worker pool
	WorkerCount  int `env:"WORKER_COUNT" envDefault:"4"`
	MaxQueueSize int `env:"MAX_QUEUE_SIZE" envDefault:"100"`

	// Upload limits
	MaxUploadBytes int64 `env:"MAX_UPLOAD_BYTES" envDefault:"52428800"` // 50MB

	// Rate limiting of authenticated endpoints
	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"10"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"20"`

	// Job state
	JobTTL time.Duration `env:"JOB_TTL" envDefault:"1h"`

	// PDF
	PDFFallbackPdftotext bool `env:"PDF_FALLBACK_PDFTOTEXT" envDefault:"true"`
	PDFValidate          bool `env:"PDF_VALIDATE" envDefault:"false"`

	// Heading rules
	RulesFile string `env:"RULES_FILE"`
	Rules     outline.Options
}

// Rules is the on-disk form of the heading rules. Unset keys keep their
// defaults.
type Rules struct {
	ProximityThreshold  *float64 `toml:"proximity_threshold"`
	CanonicalHeadings   []string `toml:"canonical_headings"`
	AllowCrossPageMerge *bool    `toml:"allow_cross_page_merge"`
}

// Load reads an optional .env file, then the environment, then the rules
// file named by RULES_FILE.
func Load() (Config, error) {
	// A missing .env is normal.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse environment: %w", err)
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.RateLimitRPS <= 0 {
		cfg.RateLimitRPS = 10
	}
	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = 20
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}

	cfg.Rules = outline.DefaultOptions()
	if cfg.RulesFile != "" {
		rules, err := LoadRules(cfg.RulesFile, cfg.Rules)
		if err != nil {
			return cfg, err
		}
		cfg.Rules = rules
	}
	return cfg, nil
}

// Validate checks settings required by the HTTP server.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return errors.New("DOCOUTLINE_API_KEY is required")
	}
	if c.Port == "" {
		return errors.New("PORT must not be empty")
	}
	return nil
}

// ParseOptions returns the parser settings carried by the config.
func (c Config) ParseOptions() parser.Options {
	return parser.Options{
		PDFFallbackPdftotext: c.PDFFallbackPdftotext,
		PDFValidate:          c.PDFValidate,
	}
}

// LoadRules overlays the TOML rules file at path onto base.
func LoadRules(path string, base outline.Options) (outline.Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("read rules file: %w", err)
	}
	var r Rules
	if err := toml.Unmarshal(data, &r); err != nil {
		return base, fmt.Errorf("parse rules file %s: %w", path, err)
	}
	return r.Apply(base)
}

// Apply overlays r onto base.
func (r Rules) Apply(base outline.Options) (outline.Options, error) {
	out := base
	if r.ProximityThreshold != nil {
		if *r.ProximityThreshold <= 0 {
			return base, fmt.Errorf("proximity_threshold must be positive, got %v", *r.ProximityThreshold)
		}
		out.ProximityThreshold = *r.ProximityThreshold
	}
	if r.CanonicalHeadings != nil {
		out.CanonicalHeadings = append([]string(nil), r.CanonicalHeadings...)
	}
	if r.AllowCrossPageMerge != nil {
		out.AllowCrossPageMerge = *r.AllowCrossPageMerge
	}
	return out, nil
}
