package presets

import (
	"fmt"
	"os"
	"path/filepath"
)

// ImportResult lists the file names Import copied and the ones it left alone
// because they already existed.
type ImportResult struct {
	Copied  []string
	Skipped []string
}

// Import copies the preset files of source into target, DefaultDir when
// empty. Existing files are kept unless overwrite is set.
func Import(source, target string, overwrite bool) (ImportResult, error) {
	if target == "" {
		target = DefaultDir()
	}
	if info, err := os.Stat(source); err != nil || !info.IsDir() {
		return ImportResult{}, fmt.Errorf("preset source %s is not a directory", source)
	}

	names, err := List(source)
	if err != nil {
		return ImportResult{}, err
	}
	if err := os.MkdirAll(target, 0o755); err != nil {
		return ImportResult{}, fmt.Errorf("failed to create preset directory: %w", err)
	}

	var result ImportResult
	for _, name := range names {
		destination := filepath.Join(target, name)
		if _, err := os.Stat(destination); err == nil && !overwrite {
			result.Skipped = append(result.Skipped, name)
			continue
		}

		data, err := os.ReadFile(filepath.Join(source, name))
		if err != nil {
			return result, fmt.Errorf("failed to read preset %s: %w", name, err)
		}
		if err := os.WriteFile(destination, data, 0o644); err != nil {
			return result, fmt.Errorf("failed to write preset %s: %w", name, err)
		}
		result.Copied = append(result.Copied, name)
	}

	return result, nil
}
