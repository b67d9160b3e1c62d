package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ternarybob/casebot/internal/app"
	"github.com/ternarybob/casebot/internal/common"
	"github.com/ternarybob/casebot/internal/interfaces"
	"github.com/ternarybob/casebot/internal/models"
)

const operatorUserID = "cli"

// consoleMessenger prints messages and saves the report into outDir
type consoleMessenger struct {
	out    io.Writer
	outDir string
	saved  string
}

var _ interfaces.Messenger = (*consoleMessenger)(nil)

func (m *consoleMessenger) SendText(_ context.Context, _ string, text string) error {
	_, err := fmt.Fprintln(m.out, text)
	return err
}

func (m *consoleMessenger) SendDocument(_ context.Context, _ string, filename string, data []byte, caption string) error {
	if err := os.MkdirAll(m.outDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(m.outDir, filename)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	m.saved = path
	_, err := fmt.Fprintf(m.out, "%s\n%s\n", caption, path)
	return err
}

// fileUpload offers a local file to the pipeline
func fileUpload(path string) (*models.Upload, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	return &models.Upload{
		UserID:   operatorUserID,
		Filename: filepath.Base(path),
		Size:     info.Size(),
		Source: models.FetcherFunc(func(_ context.Context, w io.Writer) (int64, error) {
			f, err := os.Open(path)
			if err != nil {
				return 0, err
			}
			defer f.Close()
			return io.Copy(w, f)
		}),
	}, nil
}

// runAnalyze processes one local PDF. The operator running the command is
// taken to have accepted the agreement.
func runAnalyze(args []string) int {
	fs := flag.NewFlagSet("analyze", flag.ContinueOnError)
	var configFiles configPaths
	fs.Var(&configFiles, "config", "Configuration file path (repeatable)")
	file := fs.String("file", "", "PDF file to analyse (required)")
	outDir := fs.String("out", ".", "Directory for the generated report")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *file == "" {
		fmt.Fprintln(os.Stderr, "analyze: -file is required")
		fs.Usage()
		return 2
	}

	config, _, err := loadConfig(configFiles)
	if err != nil {
		fmt.Fprintf(os.Stderr, "analyze: %v\n", err)
		return 1
	}
	config.Storage.Type = "memory"

	logger := common.InitLogger(config)
	application, err := app.New(config, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize application")
		return 1
	}
	defer application.Close()

	upload, err := fileUpload(*file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "analyze: %v\n", err)
		return 1
	}

	messenger := &consoleMessenger{out: os.Stdout, outDir: *outDir}
	sub := application.Orchestrator.Process(context.Background(), upload, messenger)
	if !sub.Succeeded() {
		logger.Error().
			Str("case_id", sub.CaseID).
			Str("stage", string(sub.FailedStage)).
			Str("reason", sub.FailureReason).
			Msg("Analysis failed")
		return 1
	}
	return 0
}
