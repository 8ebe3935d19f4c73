package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeAddrIsValidated(t *testing.T) {
	g := &Globals{Config: filepath.Join(t.TempDir(), "absent.hcl")}

	cfg, _, err := g.load((&ServeCmd{Addr: "127.0.0.1:9090", Frontend: "http://example.test"}).apply)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9090", cfg.Address())
	assert.Equal(t, "http://example.test", cfg.Server.FrontendURL)

	tests := []struct {
		name string
		addr string
	}{
		{"port out of range", ":99999"},
		{"port not a number", "localhost:http-ish"},
		{"no port", "localhost"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := g.load((&ServeCmd{Addr: tt.addr}).apply)
			assert.Error(t, err)
		})
	}
}

func TestGlobalsOverrideConfig(t *testing.T) {
	seed := int64(7)
	g := &Globals{Config: filepath.Join(t.TempDir(), "absent.hcl"), LogLevel: "debug", Seed: &seed}

	cfg, logger, err := g.load()
	require.NoError(t, err)
	require.NotNil(t, logger)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, int64(7), cfg.Game.Seed)

	g.LogLevel = "loud"
	_, _, err = g.load()
	assert.Error(t, err)
}
