package config

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/sethvargo/go-envconfig"
	yaml "gopkg.in/yaml.v2"
)

// DefaultConfigFile is looked up in the working directory when no path is given.
const DefaultConfigFile = ".ghasmell.yml"

type Config struct {
	Logger Logger `yaml:"logger" env:",prefix=GHASMELL_LOG_"`
	Scan   Scan   `yaml:"scan" env:",prefix=GHASMELL_SCAN_"`
	Rules  Rules  `yaml:"rules" env:",prefix=GHASMELL_RULES_"`
	Report Report `yaml:"report" env:",prefix=GHASMELL_REPORT_"`
}

type Logger struct {
	Level           string `yaml:"level" env:"LEVEL, overwrite" validate:"omitempty,oneof=TRACE DEBUG INFO WARN ERROR trace debug info warn error"`
	DisableTime     *bool  `yaml:"disable_time"`
	JSONFormat      bool   `yaml:"json_format" env:"JSON_FORMAT, overwrite"`
	IncludeLocation *bool  `yaml:"include_location"`
}

type Scan struct {
	WorkflowsDir string   `yaml:"workflows_dir" env:"WORKFLOWS_DIR, overwrite" validate:"required"`
	Extensions   []string `yaml:"extensions" env:"EXTENSIONS, overwrite" validate:"required,min=1,dive,required"`
	Exclude      []string `yaml:"exclude" env:"EXCLUDE, overwrite"`
	Threads      int      `yaml:"threads" env:"THREADS, overwrite" validate:"min=1,max=64"`
}

type Rules struct {
	Disabled    []string `yaml:"disabled" env:"DISABLED, overwrite" validate:"dive,ruleid"`
	MutableRefs []string `yaml:"mutable_refs" env:"MUTABLE_REFS, overwrite" validate:"dive,required"`
}

type Report struct {
	Format string `yaml:"format" env:"FORMAT, overwrite" validate:"oneof=text json sarif github"`
	Output string `yaml:"output" env:"OUTPUT, overwrite"`
	FailOn string `yaml:"fail_on" env:"FAIL_ON, overwrite"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Logger: Logger{Level: "INFO"},
		Scan: Scan{
			WorkflowsDir: ".github/workflows",
			Extensions:   []string{"yml", "yaml"},
			Threads:      1,
		},
		Rules: Rules{
			MutableRefs: []string{"main", "master", "dev", "develop", "head"},
		},
		Report: Report{
			Format: "text",
			FailOn: "total > 0",
		},
	}
}

func ValidateConfigPath(path string) error {
	s, err := os.Stat(path)
	if err != nil {
		return err
	}
	if s.IsDir() {
		return fmt.Errorf("'%s' is a directory, not a file", path)
	}
	return nil
}

func LoadYAML(configPath string, data interface{}) error {
	if err := ValidateConfigPath(configPath); err != nil {
		return err
	}

	file, err := os.Open(configPath)
	if err != nil {
		return err
	}
	defer file.Close()

	d := yaml.NewDecoder(file)
	d.SetStrict(true)
	if err := d.Decode(data); err != nil {
		return err
	}

	return nil
}

// LoadConfig layers defaults, the YAML file and environment overrides. An
// empty path falls back to DefaultConfigFile, which may be absent.
func LoadConfig(ctx context.Context, configPath string) (*Config, error) {
	cfg := Default()

	optional := configPath == ""
	if optional {
		configPath = DefaultConfigFile
	}
	if err := LoadYAML(configPath, cfg); err != nil {
		if !(optional && errors.Is(err, os.ErrNotExist)) {
			return nil, fmt.Errorf("failed to load config %q: %w", configPath, err)
		}
	}

	if err := ApplyEnv(ctx, cfg, envconfig.OsLookuper()); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides configuration values from the environment.
func ApplyEnv(ctx context.Context, cfg *Config, lookuper envconfig.Lookuper) error {
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   cfg,
		Lookuper: lookuper,
	}); err != nil {
		return fmt.Errorf("failed to apply environment overrides: %w", err)
	}
	return nil
}
