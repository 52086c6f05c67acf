package config

import (
	"os"
	"path/filepath"
	"testing"
)

// writeConfig writes content to a temporary config.yaml and returns its path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	configPath := writeConfig(t, `
skill:
  client_id: "curtain-skill-test"
  base_topic: "assistant"
  min_confidence: 0.7
database:
  path: "/tmp/test.db"
  wal_mode: true
  busy_timeout: 5
mqtt:
  broker:
    host: "mosquitto"
    port: 1883
    client_id: "test-client"
  qos: 1
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Skill.ClientID != "curtain-skill-test" {
		t.Errorf("Skill.ClientID = %q, want %q", cfg.Skill.ClientID, "curtain-skill-test")
	}
	if cfg.Skill.MinConfidence != 0.7 {
		t.Errorf("Skill.MinConfidence = %v, want 0.7", cfg.Skill.MinConfidence)
	}
	if cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/tmp/test.db")
	}
	if cfg.MQTT.Broker.Host != "mosquitto" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "mosquitto")
	}
}

func TestLoad_TopicsLeftUnset(t *testing.T) {
	configPath := writeConfig(t, `
skill:
  base_topic: "home/"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Skill.BaseTopic != "home/" {
		t.Errorf("Skill.BaseTopic = %q, want %q", cfg.Skill.BaseTopic, "home/")
	}
	if cfg.Skill.IntentTopic != "" || cfg.Skill.DeviceUpdateTopic != "" {
		t.Errorf("topics = %q, %q, want both empty until startup fills them",
			cfg.Skill.IntentTopic, cfg.Skill.DeviceUpdateTopic)
	}
}

func TestLoad_ExplicitTopicsKept(t *testing.T) {
	configPath := writeConfig(t, `
skill:
  intent_topic: "custom/intents"
  device_update_topic: "custom/devices/changed"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Skill.IntentTopic != "custom/intents" {
		t.Errorf("Skill.IntentTopic = %q, want %q", cfg.Skill.IntentTopic, "custom/intents")
	}
	if cfg.Skill.DeviceUpdateTopic != "custom/devices/changed" {
		t.Errorf("Skill.DeviceUpdateTopic = %q, want %q", cfg.Skill.DeviceUpdateTopic, "custom/devices/changed")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := writeConfig(t, "invalid: [yaml: content")

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	configPath := writeConfig(t, `
skill:
  min_confidence: 1.5
`)

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected validation error for min_confidence > 1, got nil")
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		cfg := defaultConfig()
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid config",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:    "missing base topic",
			mutate:  func(c *Config) { c.Skill.BaseTopic = "" },
			wantErr: true,
		},
		{
			name:    "negative min confidence",
			mutate:  func(c *Config) { c.Skill.MinConfidence = -0.1 },
			wantErr: true,
		},
		{
			name:    "missing database path",
			mutate:  func(c *Config) { c.Database.Path = "" },
			wantErr: true,
		},
		{
			name:    "invalid QoS",
			mutate:  func(c *Config) { c.MQTT.QoS = 3 },
			wantErr: true,
		},
		{
			name:    "invalid port low",
			mutate:  func(c *Config) { c.MQTT.Broker.Port = 0 },
			wantErr: true,
		},
		{
			name:    "invalid port high",
			mutate:  func(c *Config) { c.MQTT.Broker.Port = 70000 },
			wantErr: true,
		},
		{
			name:    "missing client ID",
			mutate:  func(c *Config) { c.MQTT.Broker.ClientID = "" },
			wantErr: true,
		},
		{
			name: "influxdb enabled without url",
			mutate: func(c *Config) {
				c.InfluxDB.Enabled = true
				c.InfluxDB.Bucket = "curtains"
			},
			wantErr: true,
		},
		{
			name: "api enabled with bad port",
			mutate: func(c *Config) {
				c.API.Enabled = true
				c.API.Port = 0
			},
			wantErr: true,
		},
		{
			name:    "short jwt secret",
			mutate:  func(c *Config) { c.API.JWTSecret = "too-short" },
			wantErr: true,
		},
		{
			name: "api enabled with secret",
			mutate: func(c *Config) {
				c.API.Enabled = true
				c.API.JWTSecret = "0123456789abcdef0123456789abcdef"
			},
			wantErr: false,
		},
		{
			name: "influxdb enabled and complete",
			mutate: func(c *Config) {
				c.InfluxDB = InfluxDBConfig{Enabled: true, URL: "http://influx:8086", Bucket: "curtains"}
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := defaultConfig()

	t.Setenv("CURTAINSKILL_DATABASE_PATH", "/custom/path.db")
	t.Setenv("CURTAINSKILL_MQTT_HOST", "mqtt.example.com")
	t.Setenv("CURTAINSKILL_MQTT_PORT", "8883")
	t.Setenv("CURTAINSKILL_MQTT_USERNAME", "testuser")
	t.Setenv("CURTAINSKILL_MQTT_PASSWORD", "testpass")
	t.Setenv("CURTAINSKILL_INFLUXDB_TOKEN", "secret-token")
	t.Setenv("CURTAINSKILL_LOG_LEVEL", "debug")
	t.Setenv("CURTAINSKILL_API_JWT_SECRET", "env-secret")

	applyEnvOverrides(cfg)

	if cfg.API.JWTSecret != "env-secret" {
		t.Errorf("API.JWTSecret = %q, want %q", cfg.API.JWTSecret, "env-secret")
	}

	if cfg.Database.Path != "/custom/path.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/custom/path.db")
	}
	if cfg.MQTT.Broker.Host != "mqtt.example.com" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "mqtt.example.com")
	}
	if cfg.MQTT.Broker.Port != 8883 {
		t.Errorf("MQTT.Broker.Port = %d, want 8883", cfg.MQTT.Broker.Port)
	}
	if cfg.MQTT.Auth.Username != "testuser" {
		t.Errorf("MQTT.Auth.Username = %q, want %q", cfg.MQTT.Auth.Username, "testuser")
	}
	if cfg.MQTT.Auth.Password != "testpass" {
		t.Errorf("MQTT.Auth.Password = %q, want %q", cfg.MQTT.Auth.Password, "testpass")
	}
	if cfg.InfluxDB.Token != "secret-token" {
		t.Errorf("InfluxDB.Token = %q, want %q", cfg.InfluxDB.Token, "secret-token")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
}

func TestApplyEnvOverrides_InvalidPortIgnored(t *testing.T) {
	cfg := defaultConfig()
	t.Setenv("CURTAINSKILL_MQTT_PORT", "not-a-port")

	applyEnvOverrides(cfg)

	if cfg.MQTT.Broker.Port != 1883 {
		t.Errorf("MQTT.Broker.Port = %d, want 1883", cfg.MQTT.Broker.Port)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Skill.BaseTopic != "assistant" {
		t.Errorf("defaultConfig Skill.BaseTopic = %q, want %q", cfg.Skill.BaseTopic, "assistant")
	}
	if cfg.Skill.MinConfidence != 0.8 {
		t.Errorf("defaultConfig Skill.MinConfidence = %v, want 0.8", cfg.Skill.MinConfidence)
	}
	if cfg.Database.Path == "" {
		t.Error("defaultConfig should have non-empty Database.Path")
	}
	if cfg.MQTT.Broker.Port != 1883 {
		t.Errorf("defaultConfig MQTT.Broker.Port = %d, want 1883", cfg.MQTT.Broker.Port)
	}
	if cfg.MQTT.QoS != 1 {
		t.Errorf("defaultConfig MQTT.QoS = %d, want 1", cfg.MQTT.QoS)
	}
	if cfg.API.Enabled {
		t.Error("defaultConfig should leave the API disabled")
	}
	if cfg.API.Host != "127.0.0.1" {
		t.Errorf("defaultConfig API.Host = %q, want loopback", cfg.API.Host)
	}
}
