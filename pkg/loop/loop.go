// Package loop drives a scheduler from a fixed-period control loop and holds
// the loop's YAML configuration.
package loop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const DefaultPeriod = 20 * time.Millisecond

const defaultConfigYAML = `# control loop configuration
# time between scheduler ticks
period: 20ms
# start with the scheduler enabled
enabled: true
# debug, info, warn or error
log_level: info
# address serving /metrics; empty disables it
metrics_addr: ""
`

var ErrInvalidPeriod = errors.New("loop: period must be positive")

// Config models the loop configuration file.
type Config struct {
	Period      time.Duration `yaml:"period"`
	Enabled     bool          `yaml:"enabled"`
	LogLevel    string        `yaml:"log_level"`
	MetricsAddr string        `yaml:"metrics_addr"`
}

func Default() Config {
	return Config{
		Period:   DefaultPeriod,
		Enabled:  true,
		LogLevel: "info",
	}
}

// DefaultYAML returns a commented configuration file holding the defaults.
func DefaultYAML() string {
	return defaultConfigYAML
}

// Parse decodes data over the defaults, so absent keys keep their default
// values.
func Parse(data []byte) (Config, error) {
	config := Default()
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("loop: parse config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

// Load reads the configuration at path. A missing file yields the defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("loop: read config: %w", err)
	}
	return Parse(data)
}

func (config Config) Validate() error {
	if config.Period <= 0 {
		return fmt.Errorf("%w: got %s", ErrInvalidPeriod, config.Period)
	}
	if _, err := config.Level(); err != nil {
		return err
	}
	return nil
}

// Level returns the slog level named by LogLevel.
func (config Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(config.LogLevel)); err != nil {
		return 0, fmt.Errorf("loop: log_level %q: %w", config.LogLevel, err)
	}
	return level, nil
}

// Run calls tick once per period until ctx is done. Ticks that would overlap
// a slow tick are dropped rather than queued. Run returns the context's error.
func Run(ctx context.Context, period time.Duration, tick func()) error {
	if period <= 0 {
		return fmt.Errorf("%w: got %s", ErrInvalidPeriod, period)
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := ctx.Err(); err != nil {
				return err
			}
			tick()
		}
	}
}
