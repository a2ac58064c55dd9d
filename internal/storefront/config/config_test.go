package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	for _, a := range Aliases {
		t.Setenv(a.Env, "")
	}
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	// given
	isolate(t)

	// when
	cfg, err := Load("")

	// then
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:5000", cfg.AuthService.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.AuthService.Timeout)
	assert.Equal(t, uint32(5), cfg.CircuitBreaker.ConsecutiveFailures)
	assert.Equal(t, 30*time.Second, cfg.CircuitBreaker.OpenTimeout)
	assert.Equal(t, ".shophub/session.json", cfg.Session.File)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.False(t, cfg.Telemetry.Enabled)
}

func TestLoad_Overrides(t *testing.T) {
	testCases := []struct {
		name        string
		yaml        string
		env         map[string]string
		expectedURL string
	}{
		{
			name:        "yaml file",
			yaml:        "authservice:\n  baseurl: http://yaml:5000\n",
			expectedURL: "http://yaml:5000",
		},
		{
			name:        "prefixed env beats yaml",
			yaml:        "authservice:\n  baseurl: http://yaml:5000\n",
			env:         map[string]string{"STOREFRONT_AUTHSERVICE_BASEURL": "http://env:5000"},
			expectedURL: "http://env:5000",
		},
		{
			name: "bare alias beats prefixed env",
			env: map[string]string{
				"STOREFRONT_AUTHSERVICE_BASEURL": "http://env:5000",
				"AUTH_API_URL":                   "http://alias:5000",
			},
			expectedURL: "http://alias:5000",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			dir := isolate(t)
			if tc.yaml != "" {
				require.NoError(t, os.WriteFile(filepath.Join(dir, "storefront.yaml"), []byte(tc.yaml), 0o600))
			}
			for k, v := range tc.env {
				t.Setenv(k, v)
			}

			// when
			cfg, err := Load("")

			// then
			require.NoError(t, err)
			assert.Equal(t, tc.expectedURL, cfg.AuthService.BaseURL)
		})
	}
}

func TestLoad_Invalid(t *testing.T) {
	testCases := []struct {
		name string
		env  map[string]string
	}{
		{name: "relative base url", env: map[string]string{"AUTH_API_URL": "localhost"}},
		{name: "empty session file", env: map[string]string{"STOREFRONT_SESSION_FILE": " "}},
		{name: "unknown log level", env: map[string]string{"STOREFRONT_LOG_LEVEL": "loud"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			isolate(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}

			// when
			_, err := Load("")

			// then
			assert.Error(t, err)
		})
	}
}
