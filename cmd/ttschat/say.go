package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/koscakluka/ttschat/core/audio"
	"github.com/koscakluka/ttschat/core/speech"
	"github.com/spf13/cobra"
)

var sayCmd = &cobra.Command{
	Use:   "say [text...]",
	Short: "Speak text once, read from the arguments or stdin",
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.Join(args, " ")
		if strings.TrimSpace(text) == "" {
			raw, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("failed to read text: %w", err)
			}
			text = string(raw)
		}
		if strings.TrimSpace(text) == "" {
			return fmt.Errorf("nothing to say")
		}

		output, _ := cmd.Flags().GetString("output")
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		engine, err := newSpeechEngine(cfg)
		if err != nil {
			return err
		}
		defer engine.Close()

		if output != "" {
			return writeSpeech(ctx, engine, text, output)
		}
		return speak(ctx, engine, text)
	},
}

func init() {
	sayCmd.Flags().StringP("output", "o", "", "write a WAV file instead of playing")
	rootCmd.AddCommand(sayCmd)
}

// splitSpeech cuts text the way replies are cut while streaming.
func splitSpeech(text string) []string {
	var parts []string
	cursor := 0
	for _, segment := range speech.ExtractSegments(text, 0) {
		parts = append(parts, segment.Text)
		cursor = segment.End
	}
	if remainder := speech.Remainder(text, cursor); remainder != "" {
		parts = append(parts, remainder)
	}
	return parts
}

func speak(ctx context.Context, engine *speechEngine, text string) error {
	pipeline, err := engine.startPipeline()
	if err != nil {
		return err
	}
	defer pipeline.Stop()

	for _, part := range splitSpeech(text) {
		if err := pipeline.Speak(part, engine.voice, cfg.Speed); err != nil {
			return err
		}
	}
	return pipeline.WaitIdle(ctx)
}

func writeSpeech(ctx context.Context, engine *speechEngine, text, path string) error {
	var result audio.Buffer
	for _, part := range splitSpeech(text) {
		for buffer, err := range engine.synthesizer.Synthesize(ctx, part, engine.voice, cfg.Speed) {
			if err != nil {
				return err
			}
			if result.SampleRate == 0 {
				result.SampleRate, result.Channels = buffer.SampleRate, buffer.Channels
			}
			result.Samples = append(result.Samples, buffer.Samples...)
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := audio.WriteWAVFile(path, result); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	fmt.Fprintf(os.Stderr, "wrote %s (%s)\n", path, result.Duration().Round(10*time.Millisecond))
	return nil
}
