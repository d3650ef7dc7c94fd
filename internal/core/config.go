package core

import (
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// EndpointConfig identifies the VPN server whose flows get decoy injection.
type EndpointConfig struct {
	ServerIP   string `yaml:"server_ip,omitempty"`
	ServerPort uint16 `yaml:"server_port,omitempty"`
}

// MetricsConfig controls the Prometheus metrics listener.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled,omitempty"`
	Listen  string `yaml:"listen,omitempty"` // default 127.0.0.1:9814
}

// NotificationsConfig controls Windows toast notifications.
type NotificationsConfig struct {
	Enabled bool `yaml:"enabled,omitempty"`
}

// Config is the top-level application configuration.
type Config struct {
	// Autostart activates the injector for Endpoint at process start.
	Autostart     bool                `yaml:"autostart,omitempty"`
	Endpoint      EndpointConfig      `yaml:"endpoint,omitempty"`
	Metrics       MetricsConfig       `yaml:"metrics,omitempty"`
	Notifications NotificationsConfig `yaml:"notifications,omitempty"`
	Logging       LogConfig           `yaml:"logging,omitempty"`
}

// ConfigManager handles loading and saving configuration.
type ConfigManager struct {
	mu       sync.RWMutex
	config   Config
	filePath string
	bus      *EventBus
}

// NewConfigManager creates a config manager that reads from the given file.
func NewConfigManager(filePath string, bus *EventBus) *ConfigManager {
	return &ConfigManager{
		filePath: filePath,
		bus:      bus,
	}
}

// defaultConfig returns an empty but valid configuration.
func defaultConfig() Config {
	return Config{
		Metrics:       MetricsConfig{Listen: "127.0.0.1:9814"},
		Notifications: NotificationsConfig{Enabled: true},
	}
}

// Load reads and parses the configuration from disk.
// If the config file does not exist, it creates one with default values.
func (cm *ConfigManager) Load() error {
	data, err := os.ReadFile(cm.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			Log.Infof("Core", "Config %s not found, creating default config", cm.filePath)
			cm.mu.Lock()
			cm.config = defaultConfig()
			cm.mu.Unlock()
			if saveErr := cm.Save(); saveErr != nil {
				return fmt.Errorf("failed to create default config: %w", saveErr)
			}
			return nil
		}
		return fmt.Errorf("failed to read config %s: %w", cm.filePath, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Metrics.Listen == "" {
		cfg.Metrics.Listen = "127.0.0.1:9814"
	}

	cm.mu.Lock()
	cm.config = cfg
	cm.mu.Unlock()

	if cm.bus != nil {
		cm.bus.Publish(Event{Type: EventConfigReloaded})
	}

	return nil
}

// Save writes the current configuration to disk.
func (cm *ConfigManager) Save() error {
	cm.mu.RLock()
	data, err := yaml.Marshal(&cm.config)
	cm.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(cm.filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config %s: %w", cm.filePath, err)
	}

	return nil
}

// Get returns a copy of the current configuration.
func (cm *ConfigManager) Get() Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config
}

// SetEndpoint replaces the configured endpoint without touching other fields.
func (cm *ConfigManager) SetEndpoint(ep EndpointConfig) {
	cm.mu.Lock()
	cm.config.Endpoint = ep
	cm.mu.Unlock()
}
