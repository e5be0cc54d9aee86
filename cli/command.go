package cli

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/grovetools/nig-upload/config"
	"github.com/grovetools/nig-upload/logging"
)

// CommandOptions holds the persistent flags shared by every command.
type CommandOptions struct {
	ConfigFile string
	Verbose    bool
	JSONOutput bool
	NoColor    bool
}

// NewStandardCommand creates a command carrying the standard persistent flags.
func NewStandardCommand(use, short string) *cobra.Command {
	cmd := &cobra.Command{
		Use:           use,
		Short:         short,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("json", false, "Output structured logs in JSON format")
	cmd.PersistentFlags().StringP("config", "c", "", "Path to nig-upload.yml config file")
	cmd.PersistentFlags().Bool("no-color", false, "Disable colored output")

	SetStyledHelp(cmd)
	return cmd
}

// GetOptions extracts the standard flags from a command.
func GetOptions(cmd *cobra.Command) CommandOptions {
	configFile, _ := cmd.Flags().GetString("config")
	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	noColor, _ := cmd.Flags().GetBool("no-color")

	return CommandOptions{
		ConfigFile: configFile,
		Verbose:    verbose,
		JSONOutput: jsonOutput,
		NoColor:    noColor,
	}
}

// GetLogger returns the unified logger of component configured from the
// standard flags.
func GetLogger(cmd *cobra.Command, component string) *logging.UnifiedLogger {
	opts := GetOptions(cmd)

	entry := logging.NewLogger(component)
	if opts.Verbose {
		entry.Logger.SetLevel(logrus.DebugLevel)
	}
	if opts.JSONOutput {
		entry.Logger.SetFormatter(&logrus.JSONFormatter{})
	}

	ulog := logging.NewUnifiedLoggerWith(component, entry)
	ulog.SetVerbose(opts.Verbose)
	return ulog
}

// LoadConfig resolves the configuration selected by the --config flag, or the
// layered configuration of the working directory.
func LoadConfig(cmd *cobra.Command, logger *logrus.Logger) (*config.Config, error) {
	return config.Resolve(GetOptions(cmd).ConfigFile, logger)
}

// InitConfig returns the configuration file in use, if any.
func InitConfig(configFile string) (string, error) {
	if configFile != "" {
		return configFile, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}

	found, err := config.FindConfigFile(cwd)
	if err != nil {
		return "", nil
	}
	return found, nil
}
