package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/notechain/internal/paths"
	"github.com/mesh-intelligence/notechain/pkg/types"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize notechain configuration and storage",
		Long: "Create the configuration directory with a default config.yaml and\n" +
			"initialize the data directory of the configured backend.",
		Args: cobra.NoArgs,
		RunE: runInit,
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	configDir, err := paths.ResolveConfigDir(flags.configDir)
	if err != nil {
		return sysError("resolve config dir: %w", err)
	}

	// Record an explicit --data-dir in a freshly written config.
	dataDir := ""
	if flags.dataDir != "" {
		if dataDir, err = filepath.Abs(flags.dataDir); err != nil {
			return sysError("resolve data dir: %w", err)
		}
	}
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return sysError("create config directory: %w", err)
	}
	if err := writeConfigIfMissing(filepath.Join(configDir, configFileExt), defaultConfigFile(dataDir)); err != nil {
		return sysError("write config: %w", err)
	}

	cfg, err := loadSettings()
	if err != nil {
		return err
	}

	// Initialize the data directory via Attach then Detach.
	coll := newCollection(cfg.backend)
	if err := coll.Attach(types.Config{Backend: cfg.backend, DataDir: cfg.dataDir}); err != nil {
		return sysError("initialize storage: %w", err)
	}
	if err := coll.Detach(); err != nil {
		return sysError("finalize storage: %w", err)
	}

	if flags.jsonMode {
		return writeJSON(cmd.OutOrStdout(), map[string]string{
			"config_dir": cfg.configDir,
			"data_dir":   cfg.dataDir,
			"backend":    cfg.backend,
		})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "notechain initialized\nconfig: %s\ndata:   %s\n",
		filepath.Join(cfg.configDir, configFileExt), cfg.dataDir)
	return nil
}
