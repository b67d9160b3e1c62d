package pipeline

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ternarybob/arbor"
)

const sourceFileName = "source.pdf"

var errPayloadTooLarge = errors.New("payload exceeds size limit")

// workspace is the per-case temporary directory holding the uploaded file
type workspace struct {
	dir        string
	sourcePath string
}

func newWorkspace(root, caseID string) (*workspace, error) {
	dir := filepath.Join(root, caseID)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create case directory: %w", err)
	}
	return &workspace{
		dir:        dir,
		sourcePath: filepath.Join(dir, sourceFileName),
	}, nil
}

// cleanup removes the source file, then the directory if nothing else is in
// it. Errors are logged and never returned.
func (w *workspace) cleanup(logger arbor.ILogger) {
	if err := os.Remove(w.sourcePath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Error().Err(err).Str("path", w.sourcePath).Msg("Failed to remove temporary file")
	}

	entries, err := os.ReadDir(w.dir)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Error().Err(err).Str("dir", w.dir).Msg("Failed to inspect temporary directory")
		}
		return
	}
	if len(entries) > 0 {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		logger.Warn().
			Str("dir", w.dir).
			Strs("entries", names).
			Msg("Temporary directory not empty - leaving it in place")
		return
	}

	if err := os.Remove(w.dir); err != nil {
		logger.Error().Err(err).Str("dir", w.dir).Msg("Failed to remove temporary directory")
		return
	}
	logger.Debug().Str("dir", w.dir).Msg("Temporary directory removed")
}

// limitedWriter fails once more than limit bytes have been written
type limitedWriter struct {
	w         io.Writer
	remaining int64
}

func (l *limitedWriter) Write(p []byte) (int, error) {
	if int64(len(p)) > l.remaining {
		return 0, errPayloadTooLarge
	}
	n, err := l.w.Write(p)
	l.remaining -= int64(n)
	return n, err
}
