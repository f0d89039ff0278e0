package config

import (
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	tests := []struct {
		name        string
		args        []string
		start       *Config
		expected    *Config
		expectPanic bool
	}{
		{
			name: "all flags",
			args: []string{"cmd",
				"-a", "127.0.0.1:9090", "-d", "db", "-s", "secret", "-t", "60",
				"-cors", "https://a.example, https://b.example", "-assets", "/srv/assets",
				"-v", "ontology-2", "-debug",
			},
			start: &Config{},
			expected: &Config{
				EndpointAddr:          "127.0.0.1:9090",
				DatabaseDSN:           "db",
				Debug:                 true,
				PasswordAuth:          &PasswordAuth{Secret: "secret"},
				TokenValidityDuration: time.Hour,
				CORSOrigins:           []string{"https://a.example", "https://b.example"},
				AssetsDir:             "/srv/assets",
				VersionSuffix:         "ontology-2",
			},
		},
		{
			name:  "no flags keep previous values",
			args:  []string{"cmd"},
			start: &Config{EndpointAddr: ":1", TokenValidityDuration: 90 * time.Second, PasswordAuth: &PasswordAuth{Secret: "x"}},
			expected: &Config{
				EndpointAddr:          ":1",
				TokenValidityDuration: 90 * time.Second,
				PasswordAuth:          &PasswordAuth{Secret: "x"},
			},
		},
		{
			name:  "empty dsn selects memory store",
			args:  []string{"cmd", "-d="},
			start: &Config{DatabaseDSN: "postgres://x"},
			expected: &Config{
				DatabaseDSN: "",
			},
		},
		{
			name:        "zero minutes",
			args:        []string{"cmd", "-t", "0"},
			start:       &Config{},
			expectPanic: true,
		},
		{
			name:        "negative minutes",
			args:        []string{"cmd", "-t=-5"},
			start:       &Config{},
			expectPanic: true,
		},
		{
			name:        "bad minutes",
			args:        []string{"cmd", "-t", "soon"},
			start:       &Config{},
			expectPanic: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args
			config := tt.start
			if tt.expectPanic {
				require.Panics(t, func() { parseFlags(config) })
				return
			}
			require.NotPanics(t, func() { parseFlags(config) })
			assert.Empty(t, cmp.Diff(tt.expected, config))
		})
	}
}

func TestSplitOrigins(t *testing.T) {
	assert.Equal(t, []string{"https://a", "https://b"}, splitOrigins(" https://a ,,https://b "))
	assert.Nil(t, splitOrigins(""))
}
