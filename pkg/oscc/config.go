package oscc

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/oscc-protocol/oscc-go/pkg/can"
	"github.com/oscc-protocol/oscc-go/pkg/log"
)

// Config configures an Engine.
type Config struct {
	// Channel is the CAN channel ID connected to the OSCC modules.
	Channel int `yaml:"channel"`

	// LogPath, if set, is where tools write the CBOR protocol trace.
	// The engine itself does not open the file; see cmd/oscc-console.
	LogPath string `yaml:"log_path"`

	// DisableOnClose sends the disable broadcast before the channel is
	// torn down, so a closing supervisor never leaves modules armed.
	DisableOnClose bool `yaml:"disable_on_close"`

	// Logger receives protocol events. Nil disables logging.
	Logger log.Logger `yaml:"-"`

	// NewDriver supplies the CAN driver for each open. Nil selects the
	// platform driver (SocketCAN on Linux).
	NewDriver func() (can.Driver, error) `yaml:"-"`
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{
		Channel:        0,
		DisableOnClose: true,
	}
}

// LoadConfig reads a YAML configuration file over the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}
