package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/koscakluka/ttschat/internal/config"
	"github.com/koscakluka/ttschat/internal/telemetry"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const telemetryShutdownTimeout = 5 * time.Second

var (
	v                 = viper.New()
	cfg               config.Config
	shutdownTelemetry telemetry.ShutdownFunc
)

var rootCmd = &cobra.Command{
	Use:   "ttschat",
	Short: "Chat with a local language model and hear the replies",
	Long: `ttschat streams replies from an OpenAI compatible completions endpoint
(LM Studio by default), shows them in the terminal and speaks them sentence
by sentence with Kokoro or Deepgram.`,
	SilenceUsage: true,
	Args:         cobra.NoArgs,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if path, _ := cmd.Flags().GetString("config"); path != "" {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return fmt.Errorf("failed to read config file %s: %w", path, err)
			}
		}

		loaded, err := config.Load(v)
		if err != nil {
			return err
		}
		cfg = loaded

		shutdownTelemetry, err = telemetry.Setup(cmd.Context())
		return err
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if shutdownTelemetry == nil {
			return nil
		}
		ctx, cancel := context.WithTimeout(context.Background(), telemetryShutdownTimeout)
		defer cancel()
		return shutdownTelemetry(ctx)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd.Context(), cfg)
	},
}

func init() {
	config.SetDefaults(v)
	config.BindEnv(v)
	registerFlags(rootCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
