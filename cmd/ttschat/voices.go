package main

import (
	"fmt"

	"github.com/koscakluka/ttschat/core/texttospeech/deepgram"
	"github.com/koscakluka/ttschat/core/texttospeech/kokoro"
	"github.com/koscakluka/ttschat/internal/config"
	"github.com/spf13/cobra"
)

var voicesCmd = &cobra.Command{
	Use:   "voices",
	Short: "List and blend voices",
}

var voicesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the voices of the configured engine",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var names []string
		switch cfg.Engine {
		case config.EngineDeepgram:
			names = deepgram.AvailableVoices()
		default:
			assets, err := kokoro.LocateAssets(kokoroModelDir(cfg))
			if err != nil {
				return err
			}
			if names, err = assets.VoiceNames(); err != nil {
				return err
			}
		}

		for _, name := range names {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}

var voicesBlendCmd = &cobra.Command{
	Use:   "blend <name> <first> <second>",
	Short: "Mix two Kokoro voices and store the result as a new voice",
	Long: `Mix two Kokoro voices. The ratio is the share of the second voice:
0 keeps the first voice, 1 gives the second one.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Engine != config.EngineKokoro {
			return fmt.Errorf("voice blending needs the kokoro engine")
		}
		ratio, _ := cmd.Flags().GetFloat64("ratio")

		engine, err := newSpeechEngine(cfg)
		if err != nil {
			return err
		}
		defer engine.Close()

		library := engine.kokoro.Voices()
		voice, err := library.Blend(cmd.Context(), args[0], args[1], args[2], ratio)
		if err != nil {
			return err
		}
		if err := library.Save(cmd.Context(), voice.Name); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "saved %s to %s\n", voice.Name, engine.kokoro.Assets().VoicePath(voice.Name))
		return nil
	},
}

func init() {
	voicesBlendCmd.Flags().Float64("ratio", 0.5, "share of the second voice, between 0 and 1")
	voicesCmd.AddCommand(voicesListCmd, voicesBlendCmd)
	rootCmd.AddCommand(voicesCmd)
}

func kokoroModelDir(cfg config.Config) string {
	if cfg.KokoroModelDir != "" {
		return cfg.KokoroModelDir
	}
	return kokoro.DefaultModelDir()
}
