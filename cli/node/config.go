package node

import (
	"os"
	"path/filepath"
	"time"

	"go.dedis.ch/heirloom/cli"
	"golang.org/x/xerrors"
	"gopkg.in/yaml.v2"
)

const (
	// ConfigFlag is the name of the global flag with the path to the
	// configuration file.
	ConfigFlag = "config"

	// DBFlag is the name of the global flag with the path to the database.
	DBFlag = "db"

	// KeyFlag is the name of the global flag with the path to the private key
	// of the user.
	KeyFlag = "key"

	// ClockOffsetFlag is the name of the global flag that shifts the clock of
	// the ledger.
	ClockOffsetFlag = "clock-offset"

	// MetricsFlag is the name of the global flag with the path of the file the
	// metrics are written to.
	MetricsFlag = "metrics"

	// LogLevelFlag is the name of the global flag with the logging level.
	LogLevelFlag = "log-level"
)

// DefaultConfigPath is the path of the configuration file when none is given.
var DefaultConfigPath = filepath.Join(".heirloom", "config.yml")

// Config is the configuration of a node. It is read from a YAML file and the
// global flags take precedence over it.
type Config struct {
	// DB is the path to the ledger database.
	DB string `yaml:"db"`

	// Key is the path to the private key of the user. A new key is created
	// when the file does not exist.
	Key string `yaml:"key"`

	// ClockOffset shifts the clock of the ledger, in whole seconds.
	ClockOffset time.Duration `yaml:"clock_offset"`

	// Metrics is the path of the text file the metrics are written to when the
	// node stops. Metrics are not written when it is empty.
	Metrics string `yaml:"metrics"`

	// LogLevel is the logging level of the node.
	LogLevel string `yaml:"log_level"`
}

// DefaultConfig returns the configuration that stores the files in the folder
// of the configuration file.
func DefaultConfig(path string) Config {
	dir := filepath.Dir(path)

	return Config{
		DB:  filepath.Join(dir, "ledger.db"),
		Key: filepath.Join(dir, "private.key"),
	}
}

// LoadConfig reads the configuration file at the given path. The default
// configuration is returned when the file does not exist.
func LoadConfig(path string) (Config, error) {
	return loadConfig(path, os.ReadFile)
}

func loadConfig(path string, readFile func(string) ([]byte, error)) (Config, error) {
	cfg := DefaultConfig(path)

	data, err := readFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}

	if err != nil {
		return cfg, xerrors.Errorf("failed to read file: %v", err)
	}

	err = yaml.UnmarshalStrict(data, &cfg)
	if err != nil {
		return cfg, xerrors.Errorf("failed to unmarshal: %v", err)
	}

	return cfg, nil
}

// Override returns the configuration with the values of the flags that are
// set.
func (cfg Config) Override(flags cli.Flags) Config {
	if flags.Path(DBFlag) != "" {
		cfg.DB = flags.Path(DBFlag)
	}

	if flags.Path(KeyFlag) != "" {
		cfg.Key = flags.Path(KeyFlag)
	}

	if flags.Duration(ClockOffsetFlag) != 0 {
		cfg.ClockOffset = flags.Duration(ClockOffsetFlag)
	}

	if flags.Path(MetricsFlag) != "" {
		cfg.Metrics = flags.Path(MetricsFlag)
	}

	if flags.String(LogLevelFlag) != "" {
		cfg.LogLevel = flags.String(LogLevelFlag)
	}

	return cfg
}
