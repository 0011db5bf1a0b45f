// Config loading for the notechain CLI.
package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/notechain/internal/paths"
	"github.com/mesh-intelligence/notechain/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	cfgKeyBackend         = "backend"
	cfgKeyDataDir         = "data_dir"
	cfgKeyStages          = "chain.stages"
	cfgKeyOperationalTags = "chain.operational_tags"
	cfgKeyNamespace       = "sync.namespace"
	cfgKeyLogLevel        = "log.level"
	cfgKeyLogFile         = "log.file"
)

// Defaults written to config.yaml on first run.
var (
	defaultStages          = []string{"Yaryna", "Solia", "Daryna"}
	defaultOperationalTags = []string{"leech"}
)

const (
	defaultNamespace = "English"
	defaultLogLevel  = "warn"
)

// configFile holds the structure written to config.yaml.
type configFile struct {
	// Backend is sqlite or memory. Memory state ends with each command.
	Backend string        `yaml:"backend"`
	DataDir string        `yaml:"data_dir,omitempty"`
	Chain   chainSection  `yaml:"chain"`
	Sync    syncSection   `yaml:"sync"`
	Log     loggingConfig `yaml:"log"`
}

type chainSection struct {
	Stages          []string `yaml:"stages"`
	OperationalTags []string `yaml:"operational_tags"`
}

type syncSection struct {
	Namespace string `yaml:"namespace"`
}

type loggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file,omitempty"`
}

func defaultConfigFile(dataDir string) configFile {
	return configFile{
		Backend: types.BackendSQLite,
		DataDir: dataDir,
		Chain: chainSection{
			Stages:          defaultStages,
			OperationalTags: defaultOperationalTags,
		},
		Sync: syncSection{Namespace: defaultNamespace},
		Log:  loggingConfig{Level: defaultLogLevel},
	}
}

// settings is the resolved configuration for one command invocation.
type settings struct {
	configDir       string
	dataDir         string
	backend         string
	stages          []string
	operationalTags []string
	namespace       string
	logLevel        string
	logFile         string
}

// loadSettings resolves directories, reads config.yaml, and applies flag
// overrides.
func loadSettings() (*settings, error) {
	configDir, err := paths.ResolveConfigDir(flags.configDir)
	if err != nil {
		return nil, sysError("resolve config dir: %w", err)
	}
	v, err := loadConfig(configDir)
	if err != nil {
		return nil, sysError("%w", err)
	}
	dataDir, err := paths.ResolveDataDir(flags.dataDir, v.GetString(cfgKeyDataDir))
	if err != nil {
		return nil, sysError("resolve data dir: %w", err)
	}

	s := &settings{
		configDir:       configDir,
		dataDir:         dataDir,
		backend:         v.GetString(cfgKeyBackend),
		stages:          v.GetStringSlice(cfgKeyStages),
		operationalTags: v.GetStringSlice(cfgKeyOperationalTags),
		namespace:       v.GetString(cfgKeyNamespace),
		logLevel:        v.GetString(cfgKeyLogLevel),
		logFile:         paths.ResolveLogFile(v.GetString(cfgKeyLogFile), dataDir),
	}
	if flags.verbose {
		s.logLevel = "debug"
	}
	return s, nil
}

// loadConfig reads config.yaml from configDir using Viper. It creates the
// config directory and a default config.yaml on first run. A missing
// config.yaml is not an error.
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := writeConfigIfMissing(filepath.Join(configDir, configFileExt), defaultConfigFile("")); err != nil {
		return nil, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	v.SetDefault(cfgKeyBackend, types.BackendSQLite)
	v.SetDefault(cfgKeyStages, defaultStages)
	v.SetDefault(cfgKeyOperationalTags, defaultOperationalTags)
	v.SetDefault(cfgKeyNamespace, defaultNamespace)
	v.SetDefault(cfgKeyLogLevel, defaultLogLevel)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// writeConfigIfMissing creates config.yaml from cfg if the file does not
// exist. An existing file is left alone.
func writeConfigIfMissing(path string, cfg configFile) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}

	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
