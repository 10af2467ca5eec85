package orchestration

import (
	"errors"
	"strings"
	"testing"

	"github.com/koscakluka/ttschat/core/llms"
	"github.com/koscakluka/ttschat/core/presets"
)

func TestRenderPromptDefaultTemplate(t *testing.T) {
	preset := presets.Default("")
	preset.BOSToken = "<|begin_of_text|>"
	messages := []llms.Message{
		llms.NewMessage(llms.MessageRoleUser, "user", "  Hi  "),
		llms.NewMessage(llms.MessageRoleAssistant, "assistant", "Hello."),
	}

	prompt, err := renderPrompt(preset, messages, false)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	want := "<|begin_of_text|>" +
		"<|start_header_id|>user<|end_header_id|>\n\nHi<|eot_id|>" +
		"<|start_header_id|>assistant<|end_header_id|>\n\nHello.<|eot_id|>" +
		"<|start_header_id|>assistant<|end_header_id|>\n\n"
	if prompt != want {
		t.Fatalf("expected %q, got %q", want, prompt)
	}

	prompt, err = renderPrompt(preset, messages, true)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.HasSuffix(prompt, "<|start_header_id|>assistant<|end_header_id|>\n\nHello.") {
		t.Fatalf("expected the last message to stay open, got %q", prompt)
	}
}

func TestRenderPromptCustomTemplate(t *testing.T) {
	preset := presets.Preset{
		UserRole:      "Ground Control",
		AssistantRole: "Major Tom",
		SystemPrompt:  " Stay calm. ",
		Template: `{{ .SystemPrompt }}|{{ range .Messages }}{{ $.UserRole | upper }}:{{ .Content }};{{ end }}` +
			`{{ .UserAPIName }}/{{ .AssistantAPIName }}{{ if .AddGenerationPrompt }}>{{ end }}`,
	}
	messages := []llms.Message{llms.NewMessage(llms.MessageRoleUser, "", "Check")}

	prompt, err := renderPrompt(preset, messages, false)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if want := "Stay calm.|GROUND CONTROL:Check;Ground_Control/Major_Tom>"; prompt != want {
		t.Fatalf("expected %q, got %q", want, prompt)
	}
}

func TestRenderPromptReportsTemplateErrors(t *testing.T) {
	_, err := renderPrompt(presets.Preset{Template: "{{ if }}"}, nil, false)

	var templateErr *TemplateError
	if !errors.As(err, &templateErr) {
		t.Fatalf("expected a TemplateError, got %v", err)
	}
}

func TestSanitizeAlias(t *testing.T) {
	tests := map[string]string{
		"user":             "user",
		"  Captain Kirk  ": "Captain_Kirk",
		"R2-D2_unit":       "R2-D2_unit",
		"Zoë":              "Zoë",
		"a.b@c":            "a_b_c",
		"   ":              "fallback",
		"":                 "fallback",
	}
	for alias, want := range tests {
		if got := sanitizeAlias(alias, "fallback"); got != want {
			t.Fatalf("expected %q for %q, got %q", want, alias, got)
		}
	}

	long := strings.Repeat("x", 100)
	if got := sanitizeAlias(long, "fallback"); len(got) != maxAliasLength {
		t.Fatalf("expected the alias to be cut to %d characters, got %d", maxAliasLength, len(got))
	}
}
