package kokoro

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// AllowDownloadEnv enables fetching missing model files when set to a true
// value (1, true, yes, on).
const AllowDownloadEnv = "KOKORO_ALLOW_DOWNLOAD"

// DownloadAllowed reports whether KOKORO_ALLOW_DOWNLOAD permits network
// access. Unset means no.
func DownloadAllowed() bool {
	raw := strings.ToLower(strings.TrimSpace(os.Getenv(AllowDownloadEnv)))
	switch raw {
	case "yes", "on":
		return true
	}
	allowed, err := strconv.ParseBool(raw)
	return err == nil && allowed
}

// Download fetches the Kokoro-82M snapshot into dir through the engine
// process and returns the resulting assets. Files already present are kept.
func Download(ctx context.Context, dir string, opts ...Option) (Assets, error) {
	o := newOptions(opts)
	if dir != "" {
		o.modelDir = dir
	}
	return download(ctx, o)
}

func download(ctx context.Context, o options) (Assets, error) {
	dir := expandHome(o.modelDir)
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Assets{}, fmt.Errorf("failed to create model directory: %w", err)
	}

	ctx, span := tracer.Start(ctx, "kokoro download")
	defer span.End()

	w, err := startWorker(o.command, append([]string{ModelDirEnv + "=" + dir}, o.env...))
	if err != nil {
		span.RecordError(err)
		return Assets{}, err
	}
	defer w.Close()

	if err := w.download(ctx, dir, nil); err != nil {
		span.RecordError(err)
		return Assets{}, fmt.Errorf("failed to download %s: %w", Repository, err)
	}

	assets, err := LocateAssets(dir)
	if err != nil {
		return Assets{}, fmt.Errorf("downloaded %s but the snapshot is incomplete: %w", Repository, err)
	}
	logger.Info("kokoro model downloaded", "model_dir", dir)
	return assets, nil
}
