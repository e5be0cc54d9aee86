// Package cmd holds the nig-upload commands.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/grovetools/nig-upload/cli"
	"github.com/grovetools/nig-upload/pkg/profiling"
	"github.com/grovetools/nig-upload/version"
)

// NewRootCmd creates the nig-upload command tree.
func NewRootCmd() *cobra.Command {
	rootCmd, _ := newRootCmd()
	return rootCmd
}

func newRootCmd() (*cobra.Command, *profiling.CobraProfiler) {
	rootCmd := cli.NewStandardCommand(
		"nig-upload",
		"Upload sequencing studies to a NIG server",
	)
	profiler := profiling.NewCobraProfiler()
	profiler.AddFlags(rootCmd)
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		cli.ConfigureColor(cli.GetOptions(cmd).NoColor)
		profiler.PreRun(cmd, args)
	}

	info := version.GetInfo()
	cli.SetVersionTemplate(rootCmd, info)

	rootCmd.AddCommand(NewUploadCmd())
	rootCmd.AddCommand(cli.NewVersionCommand(info))
	rootCmd.AddCommand(NewConfigCmd())
	return rootCmd, profiler
}

// Execute runs nig-upload and reports a failure through the error handler.
// The --timing summary is printed whether the command failed or not.
func Execute() error {
	rootCmd, profiler := newRootCmd()
	return execute(rootCmd, profiler)
}

func execute(rootCmd *cobra.Command, profiler *profiling.CobraProfiler) error {
	defer profiler.Finish(rootCmd.ErrOrStderr())

	err := rootCmd.Execute()
	if err != nil {
		verbose, _ := rootCmd.PersistentFlags().GetBool("verbose")
		handler := cli.NewErrorHandler(verbose)
		handler.Out = rootCmd.ErrOrStderr()
		handler.Handle(err)
	}
	return err
}
