package orchestration

import (
	"strings"
	"text/template"
	"unicode"

	"github.com/jinzhu/copier"
	"github.com/koscakluka/ttschat/core/llms"
	"github.com/koscakluka/ttschat/core/presets"
)

const maxAliasLength = 64

var templateFuncs = template.FuncMap{
	"trim":  strings.TrimSpace,
	"lower": strings.ToLower,
	"upper": strings.ToUpper,
}

// promptMessage is a message as the template sees it. Open marks a message
// the model should continue instead of answering.
type promptMessage struct {
	ID      string
	Role    llms.MessageRole
	Name    string
	Content string
	Open    bool
}

type promptContext struct {
	Messages            []promptMessage
	UserRole            string
	AssistantRole       string
	UserAPIName         string
	AssistantAPIName    string
	SystemPrompt        string
	BOSToken            string
	AddGenerationPrompt bool
}

// renderPrompt renders messages with the preset template. When continuing,
// the last message is left open and no generation header is added.
func renderPrompt(preset presets.Preset, messages []llms.Message, continuing bool) (string, error) {
	source := preset.Template
	if strings.TrimSpace(source) == "" {
		source = presets.DefaultTemplate
	}

	tmpl, err := template.New("prompt").Funcs(templateFuncs).Option("missingkey=zero").Parse(source)
	if err != nil {
		return "", &TemplateError{Cause: err}
	}

	var records []promptMessage
	if err := copier.Copy(&records, &messages); err != nil {
		return "", &TemplateError{Cause: err}
	}
	if continuing && len(records) > 0 {
		records[len(records)-1].Open = true
	}

	userRole := aliasOrDefault(preset.UserRole, presets.DefaultUserRole)
	assistantRole := aliasOrDefault(preset.AssistantRole, presets.DefaultAssistantRole)

	var prompt strings.Builder
	if err := tmpl.Execute(&prompt, promptContext{
		Messages:            records,
		UserRole:            userRole,
		AssistantRole:       assistantRole,
		UserAPIName:         sanitizeAlias(userRole, presets.DefaultUserRole),
		AssistantAPIName:    sanitizeAlias(assistantRole, presets.DefaultAssistantRole),
		SystemPrompt:        strings.TrimSpace(preset.SystemPrompt),
		BOSToken:            preset.BOSToken,
		AddGenerationPrompt: !continuing,
	}); err != nil {
		return "", &TemplateError{Cause: err}
	}

	return prompt.String(), nil
}

// sanitizeAlias turns a display name into a name usable in prompt headers:
// letters, digits, '_' and '-' are kept, anything else becomes '_'.
func sanitizeAlias(alias, fallback string) string {
	cleaned := []rune(strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-' {
			return r
		}
		return '_'
	}, strings.TrimSpace(alias)))

	if len(cleaned) == 0 {
		return fallback
	}
	if len(cleaned) > maxAliasLength {
		cleaned = cleaned[:maxAliasLength]
	}
	return string(cleaned)
}

func aliasOrDefault(alias, fallback string) string {
	if alias = strings.TrimSpace(alias); alias != "" {
		return alias
	}
	return fallback
}
