// Package presets reads and writes conversation presets: the role names,
// system prompt, prompt template and stop sequences used to talk to a model.
package presets

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/jinzhu/copier"
)

const (
	DefaultUserRole      = "user"
	DefaultAssistantRole = "assistant"

	defaultFileName = "default.preset.json"
)

// Extensions are the file suffixes List recognises, most specific first.
var Extensions = []string{".preset.json", ".json"}

// DefaultTemplate renders Llama 3 style headers. Messages flagged Open are
// left without an end of turn token so the model continues them.
const DefaultTemplate = `{{- .BOSToken -}}
{{- range .Messages -}}
<|start_header_id|>{{ or .Name .Role }}<|end_header_id|>{{ "\n\n" }}{{ trim .Content }}{{ if not .Open }}<|eot_id|>{{ end }}
{{- end -}}
{{- if .AddGenerationPrompt -}}
<|start_header_id|>{{ .AssistantAPIName }}<|end_header_id|>{{ "\n\n" }}
{{- end -}}`

type Preset struct {
	// Path is where the preset was loaded from. It is not serialized.
	Path string `json:"-"`

	Name          string   `json:"name" jsonschema:"description=Display name of the preset"`
	UserRole      string   `json:"user_role" jsonschema:"description=Label of the user in the conversation,default=user"`
	AssistantRole string   `json:"assistant_role" jsonschema:"description=Label of the assistant in the conversation,default=assistant"`
	SystemPrompt  string   `json:"system_prompt" jsonschema:"description=Instructions kept as the first message of the conversation"`
	Template      string   `json:"template" jsonschema:"description=Go text/template that renders the conversation into a completion prompt"`
	BOSToken      string   `json:"bos_token" jsonschema:"description=Token prepended to the prompt"`
	StopSequences []string `json:"stop_sequences" jsonschema:"description=Strings that end generation"`
}

// fileFormat accepts the current keys and the legacy jinja_template and
// antiprompt keys.
type fileFormat struct {
	Name          *string  `json:"name"`
	UserRole      *string  `json:"user_role"`
	AssistantRole *string  `json:"assistant_role"`
	SystemPrompt  *string  `json:"system_prompt"`
	Template      *string  `json:"template"`
	JinjaTemplate *string  `json:"jinja_template"`
	BOSToken      *string  `json:"bos_token"`
	StopSequences []string `json:"stop_sequences"`
	Antiprompt    []string `json:"antiprompt"`
}

// DefaultDir is the directory presets are listed from when none is given.
func DefaultDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "ttschat", "presets")
}

func DefaultPath() string {
	return filepath.Join(DefaultDir(), defaultFileName)
}

// Default returns the preset used when path does not exist.
func Default(path string) Preset {
	return Preset{
		Path:          path,
		Name:          displayName(path),
		UserRole:      DefaultUserRole,
		AssistantRole: DefaultAssistantRole,
		Template:      DefaultTemplate,
	}
}

// Load reads the preset at path, or DefaultPath when path is empty. A missing
// file yields the default preset. Escape sequences such as \n in string
// fields are decoded.
func Load(path string) (Preset, error) {
	if path == "" {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(path), nil
	} else if err != nil {
		return Preset{}, fmt.Errorf("failed to read preset: %w", err)
	}

	var file fileFormat
	if err := json.Unmarshal(data, &file); err != nil {
		return Preset{}, fmt.Errorf("failed to parse preset %s: %w", path, err)
	}

	preset := Default(path)
	if name := value(file.Name); name != "" {
		preset.Name = name
	}
	preset.UserRole = orDefault(decode(value(file.UserRole)), DefaultUserRole)
	preset.AssistantRole = orDefault(decode(value(file.AssistantRole)), DefaultAssistantRole)
	preset.SystemPrompt = decode(value(file.SystemPrompt))
	preset.BOSToken = decode(value(file.BOSToken))

	switch {
	case file.Template != nil:
		preset.Template = orDefault(decode(*file.Template), DefaultTemplate)
	case file.JinjaTemplate != nil:
		preset.Template = orDefault(decode(*file.JinjaTemplate), DefaultTemplate)
	}

	stops := file.StopSequences
	if len(stops) == 0 {
		stops = file.Antiprompt
	}
	for _, stop := range stops {
		if stop = decode(stop); stop != "" {
			preset.StopSequences = append(preset.StopSequences, stop)
		}
	}

	return preset, nil
}

// Save writes p as indented JSON to path, falling back to p.Path and then
// DefaultPath. It returns the path written.
func Save(p Preset, path string) (string, error) {
	target := path
	if target == "" {
		target = p.Path
	}
	if target == "" {
		target = DefaultPath()
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("failed to create preset directory: %w", err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(p); err != nil {
		return "", fmt.Errorf("failed to encode preset: %w", err)
	}
	if err := os.WriteFile(target, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("failed to write preset: %w", err)
	}

	return target, nil
}

// List returns the preset file names in dir sorted case-insensitively. The
// directory is created when missing.
func List(dir string) ([]string, error) {
	if dir == "" {
		dir = DefaultDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create preset directory: %w", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list presets: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if slices.ContainsFunc(Extensions, func(ext string) bool { return strings.HasSuffix(entry.Name(), ext) }) {
			names = append(names, entry.Name())
		}
	}
	slices.SortFunc(names, func(a, b string) int {
		return strings.Compare(strings.ToLower(a), strings.ToLower(b))
	})
	return names, nil
}

// Clone returns a deep copy of p.
func (p Preset) Clone() Preset {
	var clone Preset
	if err := copier.CopyWithOption(&clone, &p, copier.Option{DeepCopy: true}); err != nil {
		clone = p
		clone.StopSequences = slices.Clone(p.StopSequences)
	}
	clone.Path = p.Path
	return clone
}

func displayName(path string) string {
	return filepath.Base(path)
}

// decode interprets backslash escapes the way a quoted Go string would and
// returns the raw value if that fails.
func decode(raw string) string {
	if !strings.Contains(raw, `\`) {
		return raw
	}
	quoted := strings.NewReplacer(`"`, `\"`, "\n", `\n`, "\r", `\r`).Replace(raw)
	decoded, err := strconv.Unquote(`"` + quoted + `"`)
	if err != nil {
		return raw
	}
	return decoded
}

func value(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
