package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"reelsmith/internal/config"
	"reelsmith/internal/paths"
)

var (
	configFormat string
	configForce  bool
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create project configuration",
	}

	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigInitCmd())
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration, environment overrides applied",
		RunE:  runConfigShow,
	}
	cmd.Flags().StringVar(&configFormat, "format", "yaml", "Output format: yaml or toml")
	return cmd
}

func newConfigInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration to the project",
		RunE:  runConfigInit,
	}
	cmd.Flags().StringVar(&configFormat, "format", "yaml", "File format: yaml or toml")
	cmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing configuration file")
	return cmd
}

func encodeConfig(cfg config.Config, format string) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "yaml", "yml":
		return cfg.Marshal()
	case "toml":
		return cfg.EncodeTOML()
	}
	return nil, fmt.Errorf("unknown format %q (want yaml or toml)", format)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	_, cfg, err := loadProject()
	if err != nil {
		return err
	}
	if outputJSON {
		return writeJSON(cmd.OutOrStdout(), cfg)
	}

	data, err := encodeConfig(cfg, configFormat)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), string(data))
	if len(data) == 0 || data[len(data)-1] != '\n' {
		fmt.Fprintln(cmd.OutOrStdout())
	}
	return nil
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	pp, err := paths.Resolve(projectDir)
	if err != nil {
		return err
	}
	if err := pp.EnsureRoot(); err != nil {
		return err
	}

	name := "reelsmith.yaml"
	if strings.EqualFold(strings.TrimSpace(configFormat), "toml") {
		name = "reelsmith.toml"
	}
	target := filepath.Join(pp.Root, name)

	if _, err := os.Stat(target); err == nil && !configForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", target)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat config: %w", err)
	}

	data, err := encodeConfig(config.Default(), configFormat)
	if err != nil {
		return err
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return fmt.Errorf("write default config: %w", err)
	}
	if outputJSON {
		return writeJSON(cmd.OutOrStdout(), map[string]string{"config": target})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", target)
	return nil
}
