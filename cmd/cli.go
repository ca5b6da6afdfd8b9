// SPDX-License-Identifier: MIT

// Package cmd parses the command line into an Options record. The root
// command starts the session server; analyze and stems are offline
// one-shot commands over WAV files.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mixengine/pkg/build"
)

// Options is the parsed command line.
type Options struct {
	ConfigPath string // --config override for the YAML location.
	Command    string // "analyze" or "stems" for the one-shot commands.
	Serve      bool   // Root command: run the session server.
	InputFile  string // WAV path for the one-shot commands.
	OutputDir  string // Destination directory for exported stems.
}

// ParseArgs builds and executes the cobra command tree, returning the
// selected options.
func ParseArgs() (*Options, error) {
	buildInfo := build.GetBuildFlags()
	options := &Options{}

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         "Real-time DJ mix intelligence engine",
		Version:       fmt.Sprintf("%s (%s, built %s)", buildInfo.Version, buildInfo.Commit, buildInfo.Time),
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand: run the session server. Help and version
			// invocations never reach here, leaving Serve false.
			options.Serve = true
			return nil
		},
	}
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	analyzeCmd := &cobra.Command{
		Use:   "analyze <file.wav>",
		Short: "Analyze a WAV file and print its track descriptor as JSON",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			options.Command = "analyze"
			options.InputFile = args[0]
		},
	}
	rootCmd.AddCommand(analyzeCmd)

	stemsCmd := &cobra.Command{
		Use:   "stems <file.wav>",
		Short: "Separate a WAV file into vocal/drum/bass/melody stems",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			options.Command = "stems"
			options.InputFile = args[0]
		},
	}
	stemsCmd.Flags().StringVarP(&options.OutputDir, "output", "o", ".",
		"Directory the stem WAV files are written to")
	rootCmd.AddCommand(stemsCmd)

	rootCmd.PersistentFlags().StringVar(&options.ConfigPath, "config", "",
		"Path to the YAML configuration file (default: ./config.yaml if present)")

	rootCmd.SetArgs(os.Args[1:])
	if err := rootCmd.Execute(); err != nil {
		return nil, err
	}
	return options, nil
}
