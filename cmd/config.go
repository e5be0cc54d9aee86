package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/grovetools/nig-upload/cli"
	"github.com/grovetools/nig-upload/config"
	"github.com/grovetools/nig-upload/errors"
)

// NewConfigCmd creates the config command.
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Display the layered configuration for the current directory",
		Long: `Shows how the final configuration is built by merging layers:
1. Global config (~/.config/nig-upload/nig-upload.yml)
2. Project config (nig-upload.yml in the current directory or a parent)
With --config only the given file is shown.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			logger := cli.NewLogger(cli.GetOptions(cmd).Verbose)
			explicit := cli.GetOptions(cmd).ConfigFile

			inUse, err := cli.InitConfig(explicit)
			if err != nil {
				return errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to get current directory")
			}
			if inUse == "" {
				inUse = "none"
			}
			fmt.Fprintf(out, "# Config file in use: %s\n", inUse)

			if explicit != "" {
				cfg, err := config.Load(explicit)
				if err != nil {
					return err
				}
				return printLayer(out, "EXPLICIT CONFIG", explicit, cfg)
			}

			cwd, err := os.Getwd()
			if err != nil {
				return errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to get current directory")
			}
			layered, err := config.LoadLayered(cwd, logger)
			if err != nil {
				return err
			}

			if err := printLayer(out, "GLOBAL CONFIG", layered.FilePaths[config.SourceGlobal], layered.Global); err != nil {
				return err
			}
			if err := printLayer(out, "PROJECT CONFIG", layered.FilePaths[config.SourceProject], layered.Project); err != nil {
				return err
			}
			return printLayer(out, "FINAL MERGED CONFIG", "", layered.Final)
		},
	}

	cmd.AddCommand(newConfigSchemaCmd())
	return cmd
}

func newConfigSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON schema of nig-upload.yml",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, err := config.GenerateSchema()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(schema))
			return nil
		},
	}
}

func printLayer(w io.Writer, title, path string, cfg *config.Config) error {
	if cfg == nil {
		return nil
	}
	fmt.Fprintf(w, "--- # %s\n", title)
	if path != "" {
		fmt.Fprintf(w, "# Source: %s\n", path)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to render configuration")
	}
	fmt.Fprintln(w, string(data))
	return nil
}
