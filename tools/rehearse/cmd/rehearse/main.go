package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/AltairaLabs/rehearsal/runtime/logger"
	"github.com/AltairaLabs/rehearsal/runtime/version"
)

const programName = "rehearse"

var rootCmd = &cobra.Command{
	Use:           programName,
	Short:         "Rehearse a talk or interview with a live AI coach",
	Version:       version.GetVersion(),
	SilenceUsage:  true,
	SilenceErrors: false,
	Long: `rehearse runs a live coaching session against the Gemini Live API.

Audio comes from a WAV file (or the microphone in portaudio builds), camera
frames from a directory of images. The coach's voice is recorded to a WAV
file, insights and the live utterance are printed as they arrive, and a
scored report is generated when the session ends.

Credentials are read from the manifest, then GEMINI_API_KEY or
GOOGLE_API_KEY. A .env file in the working directory is loaded first.`,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			logger.Warn("failed to load .env", "error", err)
		}
		if verbose, err := cmd.Flags().GetBool("verbose"); err == nil && verbose {
			logger.SetVerbose(true)
		}
		version.LogStartup(programName)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	rootCmd.SetVersionTemplate(version.GetVersionInfo(programName) + "\n")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
