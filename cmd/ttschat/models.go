package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/koscakluka/ttschat/core/texttospeech/kokoro"
	"github.com/spf13/cobra"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Manage the local Kokoro model",
}

var modelsDownloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download the Kokoro-82M snapshot into the model directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		dir := kokoroModelDir(cfg)
		fmt.Fprintf(cmd.OutOrStdout(), "downloading %s into %s\n", kokoro.Repository, dir)

		assets, err := kokoro.Download(ctx, dir)
		if err != nil {
			return err
		}
		voices, err := assets.VoiceNames()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "model ready in %s with %d voices\n", assets.Dir, len(voices))
		return nil
	},
}

func init() {
	modelsCmd.AddCommand(modelsDownloadCmd)
	rootCmd.AddCommand(modelsCmd)
}
