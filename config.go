package modem

import (
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"github.com/brocaar/lorawan"
	"gopkg.in/yaml.v3"
)

// Defaults mirror the vendor example script this driver descends from.
const (
	DefaultBaudRate        = 9600
	DefaultPayload         = "010203"
	DefaultUplinkPort      = 1
	DefaultIntervalSeconds = 10
	DefaultResponseDelayMS = 100

	defaultSessionKey = "00000000000000000000000000000000"
)

// Config mirrors the YAML configuration file. All fields have working
// defaults, so the file is optional.
type Config struct {
	Serial struct {
		Port     string `yaml:"port"`
		BaudRate int    `yaml:"baudrate"`
	} `yaml:"serial"`
	Session struct {
		NwkSKey string `yaml:"nwkskey"`
		AppSKey string `yaml:"appskey"`
	} `yaml:"session"`
	Uplink struct {
		Payload         string  `yaml:"payload"`
		Port            int     `yaml:"port"`
		IntervalSeconds float64 `yaml:"interval_seconds"`
	} `yaml:"uplink"`
	ResponseDelayMS int `yaml:"response_delay_ms"`
}

// DefaultConfig returns the configuration matching the vendor script:
// all-zero session keys, payload 010203 on port 1, a 10s uplink
// interval, and a 100ms response delay.
func DefaultConfig() Config {
	var cfg Config
	cfg.Serial.BaudRate = DefaultBaudRate
	cfg.Session.NwkSKey = defaultSessionKey
	cfg.Session.AppSKey = defaultSessionKey
	cfg.Uplink.Payload = DefaultPayload
	cfg.Uplink.Port = DefaultUplinkPort
	cfg.Uplink.IntervalSeconds = DefaultIntervalSeconds
	cfg.ResponseDelayMS = DefaultResponseDelayMS
	return cfg
}

// LoadConfig reads the YAML configuration file at path on top of the
// defaults and validates the result.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the session keys are well-formed 128-bit hex keys and
// the uplink payload is a hex string on a valid port. The keys are still
// sent to the modem as literal hex text.
func (c *Config) Validate() error {
	var key lorawan.AES128Key
	if err := key.UnmarshalText([]byte(c.Session.NwkSKey)); err != nil {
		return fmt.Errorf("nwkskey: %w", err)
	}
	if err := key.UnmarshalText([]byte(c.Session.AppSKey)); err != nil {
		return fmt.Errorf("appskey: %w", err)
	}
	if _, err := hex.DecodeString(c.Uplink.Payload); err != nil {
		return fmt.Errorf("payload: %w", err)
	}
	if c.Uplink.Port < 1 || c.Uplink.Port > 223 {
		return fmt.Errorf("uplink port %d outside 1..223", c.Uplink.Port)
	}
	if c.Uplink.IntervalSeconds < 0 {
		return fmt.Errorf("uplink interval must not be negative")
	}
	return nil
}

// Delay is the fixed wait between writing a command and reading its
// response.
func (c Config) Delay() time.Duration {
	return time.Duration(c.ResponseDelayMS) * time.Millisecond
}

// Interval is the pause between uplink loop iterations.
func (c Config) Interval() time.Duration {
	return time.Duration(c.Uplink.IntervalSeconds * float64(time.Second))
}
