package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":5001", cfg.HTTP.Address)
	require.Equal(t, DefaultLexicalModel, cfg.Model.Name)
	require.Equal(t, BackendLexical, cfg.Model.Backend)
	require.Equal(t, 1, cfg.Model.MaxConcurrentGenerations)
}

func TestLoadPortOverride(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("PORT", "7002")
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":7002", cfg.HTTP.Address)
}

func TestLoadIgnoresInvalidPort(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("PORT", "not-a-port")
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":5001", cfg.HTTP.Address)
}

func TestLoadFromFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
http:
  address: ":9000"
  allowedOrigins: ["https://app.example.com"]
model:
  backend: remote
  remote:
    baseUrl: http://inference:8000
    timeout: 12s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("MODEL_MAX_CONCURRENT_GENERATIONS", "3")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":9000", cfg.HTTP.Address)
	require.Equal(t, []string{"https://app.example.com"}, cfg.HTTP.AllowedOrigins)
	require.Equal(t, BackendRemote, cfg.Model.Backend)
	require.Equal(t, "http://inference:8000", cfg.Model.Remote.BaseURL)
	require.Equal(t, 12*time.Second, cfg.Model.Remote.Timeout)
	require.Equal(t, 3, cfg.Model.MaxConcurrentGenerations)
	require.Equal(t, DefaultRemoteModel, cfg.Model.Name)
}

func TestLoadModelNameFollowsBackend(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{name: "lexical default", want: DefaultLexicalModel},
		{
			name: "remote backend",
			env:  map[string]string{"MODEL_BACKEND": "remote", "MODEL_REMOTE_BASE_URL": "http://inference:8000"},
			want: DefaultRemoteModel,
		},
		{
			name: "explicit name wins",
			env:  map[string]string{"MODEL_BACKEND": "remote", "MODEL_REMOTE_BASE_URL": "http://inference:8000", "MODEL_NAME": "flan-t5-base"},
			want: "flan-t5-base",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("CONFIG_PATH", "")
			t.Setenv("MODEL_NAME", "")
			t.Setenv("MODEL_BACKEND", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			chdir(t, t.TempDir())

			cfg, err := Load()
			require.NoError(t, err)
			require.Equal(t, tt.want, cfg.Model.Name)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "empty address",
			mutate:  func(c *Config) { c.HTTP.Address = "" },
			wantErr: "http.address cannot be empty",
		},
		{
			name:    "unknown backend",
			mutate:  func(c *Config) { c.Model.Backend = "onnx" },
			wantErr: `model.backend "onnx" is not supported`,
		},
		{
			name:    "remote without url",
			mutate:  func(c *Config) { c.Model.Backend = BackendRemote },
			wantErr: "model.remote.baseUrl cannot be empty for the remote backend",
		},
		{
			name:    "empty model name",
			mutate:  func(c *Config) { c.Model.Name = " " },
			wantErr: "model.name cannot be empty",
		},
		{
			name:    "zero concurrency",
			mutate:  func(c *Config) { c.Model.MaxConcurrentGenerations = 0 },
			wantErr: "model.maxConcurrentGenerations must be positive",
		},
		{
			name: "artifacts without bucket",
			mutate: func(c *Config) {
				c.Model.Artifacts.Enabled = true
				c.Model.Artifacts.Endpoint = "https://r2.example.com"
			},
			wantErr: "model.artifacts.bucket cannot be empty when artifacts are enabled",
		},
		{
			name: "valkey without addr",
			mutate: func(c *Config) {
				c.HTTP.RateLimit.Valkey.Enabled = true
			},
			wantErr: "http.rateLimit.valkey.addr cannot be empty when valkey is enabled",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := defaultConfig()
			cfg.applyModelDefaults()
			tt.mutate(cfg)
			require.EqualError(t, cfg.Validate(), tt.wantErr)
		})
	}
}

func TestSplitList(t *testing.T) {
	require.Equal(t, []string{"a", "b"}, splitList(" a, ,b "))
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { require.NoError(t, os.Chdir(prev)) })
}
