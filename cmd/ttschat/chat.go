package main

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	orchestration "github.com/koscakluka/ttschat/core"
	"github.com/koscakluka/ttschat/core/llms/completions"
	"github.com/koscakluka/ttschat/core/presets"
	"github.com/koscakluka/ttschat/internal/config"
	"github.com/koscakluka/ttschat/internal/tui"
)

func runChat(ctx context.Context, cfg config.Config) error {
	preset, err := loadPreset(cfg)
	if err != nil {
		return err
	}

	settings := orchestration.Settings{
		Model:       cfg.Model,
		Voice:       cfg.Voice,
		Speed:       cfg.Speed,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Seed:        cfg.Seed,
	}

	model := tui.NewModel()
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	opts := []orchestration.OrchestratorOption{
		orchestration.WithCompletionClient(completions.NewClient(cfg.BaseURL, completions.WithTimeout(cfg.Timeout))),
		orchestration.WithPresenter(tui.NewPresenter(program)),
		orchestration.WithPreset(preset),
		orchestration.WithTextOnly(cfg.TextOnly),
	}

	var engine *speechEngine
	if !cfg.TextOnly {
		engine, err = newSpeechEngine(cfg)
		if err != nil {
			return err
		}
		defer engine.Close()

		settings.Voice = engine.voice
		opts = append(opts, orchestration.WithSpeechPipelineFactory(engine.newPipeline))
	}
	opts = append(opts, orchestration.WithSettings(settings))

	orchestrator := orchestration.NewOrchestrator(opts...)
	defer orchestrator.Close()
	model.Attach(orchestrator)

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("terminal ui failed: %w", err)
	}
	return nil
}

// loadPreset reads the configured preset and applies the command line
// overrides on top of it.
func loadPreset(cfg config.Config) (presets.Preset, error) {
	preset, err := presets.Load(cfg.PresetPath)
	if err != nil {
		return presets.Preset{}, err
	}

	if system := strings.TrimSpace(cfg.SystemPrompt); system != "" {
		preset.SystemPrompt = system
	}
	if cfg.UserRole != "" {
		preset.UserRole = cfg.UserRole
	}
	if cfg.AssistantRole != "" {
		preset.AssistantRole = cfg.AssistantRole
	}
	return preset, nil
}
