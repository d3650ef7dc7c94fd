package core

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConfigLoadMissingCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cm := NewConfigManager(path, nil)

	require.NoError(t, cm.Load())
	require.FileExists(t, path)

	cfg := cm.Get()
	require.Equal(t, "127.0.0.1:9814", cfg.Metrics.Listen)
	require.True(t, cfg.Notifications.Enabled)
	require.False(t, cfg.Autostart)
}

func TestConfigLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
autostart: true
endpoint:
  server_ip: 203.0.113.10
  server_port: 443
metrics:
  enabled: true
  listen: 127.0.0.1:9900
logging:
  level: warn
  components:
    injector: debug
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))

	bus := NewEventBus()
	reloads := 0
	bus.Subscribe(EventConfigReloaded, func(Event) { reloads++ })

	cm := NewConfigManager(path, bus)
	require.NoError(t, cm.Load())
	require.Equal(t, 1, reloads)

	cfg := cm.Get()
	require.True(t, cfg.Autostart)
	require.Equal(t, "203.0.113.10", cfg.Endpoint.ServerIP)
	require.Equal(t, uint16(443), cfg.Endpoint.ServerPort)
	require.Equal(t, "127.0.0.1:9900", cfg.Metrics.Listen)
	require.Equal(t, "warn", cfg.Logging.Level)
	require.Equal(t, "debug", cfg.Logging.Components["injector"])

	// Save and reload preserves everything.
	cm.SetEndpoint(EndpointConfig{ServerIP: "203.0.113.11", ServerPort: 8443})
	require.NoError(t, cm.Save())

	cm2 := NewConfigManager(path, nil)
	require.NoError(t, cm2.Load())
	require.Equal(t, "203.0.113.11", cm2.Get().Endpoint.ServerIP)
	require.Equal(t, uint16(8443), cm2.Get().Endpoint.ServerPort)
}

func TestConfigLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{not yaml"), 0644))

	cm := NewConfigManager(path, nil)
	require.Error(t, cm.Load())
}
