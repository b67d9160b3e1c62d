package common

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/banner"
)

// PrintBanner displays the application banner and logs the effective settings
func PrintBanner(config *Config, logger arbor.ILogger) {
	banner.Print("Casebot", GetVersion())

	logger.Info().
		Str("version", GetFullVersion()).
		Str("environment", config.Environment).
		Str("listen", fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)).
		Str("llm_provider", string(config.LLM.DefaultProvider)).
		Str("storage", config.Storage.Type).
		Int("min_text_length", config.Processing.MinTextLength).
		Int("max_file_size_mb", config.Processing.MaxFileSizeMB).
		Msg("Casebot starting")
}
