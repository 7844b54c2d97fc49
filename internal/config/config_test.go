package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ghasmell.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
logger:
  level: debug
  disable_time: false
scan:
  workflows_dir: ci/workflows
  extensions: [yml]
  exclude: ["**/generated-*.yml"]
  threads: 4
rules:
  disabled: [S2_MISSING_TIMEOUT]
report:
  format: sarif
  fail_on: "s1 > 0"
`)

	cfg, err := LoadConfig(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.False(t, GetBoolValue(cfg, "Logger.DisableTime", true))
	assert.Equal(t, "ci/workflows", cfg.Scan.WorkflowsDir)
	assert.Equal(t, []string{"yml"}, cfg.Scan.Extensions)
	assert.Equal(t, []string{"**/generated-*.yml"}, cfg.Scan.Exclude)
	assert.Equal(t, 4, cfg.Scan.Threads)
	assert.Equal(t, []string{"S2_MISSING_TIMEOUT"}, cfg.Rules.Disabled)
	assert.Equal(t, Default().Rules.MutableRefs, cfg.Rules.MutableRefs, "unset sections keep defaults")
	assert.Equal(t, "sarif", cfg.Report.Format)
	assert.Equal(t, "s1 > 0", cfg.Report.FailOn)
	assert.NoError(t, ValidateConfig(cfg))
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(context.Background(), filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err, "an explicit path must exist")

	_, err = LoadConfig(context.Background(), t.TempDir())
	assert.Error(t, err, "directories are rejected")

	_, err = LoadConfig(context.Background(), writeConfig(t, "scan:\n  unknown_key: 1\n"))
	assert.Error(t, err, "unknown keys are rejected")

	_, err = LoadConfig(context.Background(), writeConfig(t, "scan: [\n"))
	assert.Error(t, err)
}

func TestLoadConfigDefaultFileIsOptional(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := LoadConfig(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, Default().Scan, cfg.Scan)
	assert.Equal(t, Default().Report, cfg.Report)
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	cfg.Report.Format = "json"

	lookuper := envconfig.MapLookuper(map[string]string{
		"GHASMELL_LOG_LEVEL":      "TRACE",
		"GHASMELL_SCAN_THREADS":   "8",
		"GHASMELL_SCAN_EXCLUDE":   "a/**,b/**",
		"GHASMELL_REPORT_FORMAT":  "github",
		"GHASMELL_RULES_DISABLED": "s1_floating_tag",
	})
	require.NoError(t, ApplyEnv(context.Background(), cfg, lookuper))

	assert.Equal(t, "TRACE", cfg.Logger.Level)
	assert.Equal(t, 8, cfg.Scan.Threads)
	assert.Equal(t, []string{"a/**", "b/**"}, cfg.Scan.Exclude)
	assert.Equal(t, "github", cfg.Report.Format, "environment wins over file values")
	assert.Equal(t, []string{"s1_floating_tag"}, cfg.Rules.Disabled)
	assert.Equal(t, "total > 0", cfg.Report.FailOn, "unset variables keep the current value")
	assert.NoError(t, ValidateConfig(cfg))

	err := ApplyEnv(context.Background(), cfg, envconfig.MapLookuper(map[string]string{
		"GHASMELL_SCAN_THREADS": "many",
	}))
	assert.Error(t, err)
}

func TestValidateConfig(t *testing.T) {
	testCases := []struct {
		name    string
		mutate  func(cfg *Config)
		wantErr string
	}{
		{
			name:   "defaults",
			mutate: func(cfg *Config) {},
		},
		{
			name:    "unknown log level",
			mutate:  func(cfg *Config) { cfg.Logger.Level = "verbose" },
			wantErr: "logger directive is invalid",
		},
		{
			name:    "zero threads",
			mutate:  func(cfg *Config) { cfg.Scan.Threads = 0 },
			wantErr: "scan directive is invalid",
		},
		{
			name:    "no extensions",
			mutate:  func(cfg *Config) { cfg.Scan.Extensions = nil },
			wantErr: "scan directive is invalid",
		},
		{
			name:    "extension with separator",
			mutate:  func(cfg *Config) { cfg.Scan.Extensions = []string{"a/yml"} },
			wantErr: "must not contain a path separator",
		},
		{
			name:    "unknown rule",
			mutate:  func(cfg *Config) { cfg.Rules.Disabled = []string{"S9_UNKNOWN"} },
			wantErr: "rules directive is invalid",
		},
		{
			name:    "unknown format",
			mutate:  func(cfg *Config) { cfg.Report.Format = "xml" },
			wantErr: "report directive is invalid",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := ValidateConfig(cfg)
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}

	assert.Error(t, ValidateConfig(nil))
}

func TestGetBoolValue(t *testing.T) {
	yes := true
	cfg := &Config{Logger: Logger{DisableTime: &yes, JSONFormat: true}}

	assert.True(t, GetBoolValue(cfg, "Logger.DisableTime", false))
	assert.True(t, GetBoolValue(cfg, "Logger.JSONFormat", false))
	assert.False(t, GetBoolValue(cfg, "Logger.IncludeLocation", false), "nil pointer falls back")
	assert.True(t, GetBoolValue(cfg, "Logger.Missing", true))
	assert.True(t, GetBoolValue(nil, "Logger.DisableTime", true))
	assert.True(t, GetBoolValue((*Config)(nil), "Logger.DisableTime", true))
}

func TestSetThen(t *testing.T) {
	assert.Equal(t, "text", SetThen("", "text"))
	assert.Equal(t, "json", SetThen("json", "text"))
	assert.Equal(t, 1, SetThen(0, 1))
}
