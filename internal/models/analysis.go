package models

import "time"

// AnalysisResult is the successful outcome of one analysis call
type AnalysisResult struct {
	Text     string        `json:"text"`
	Backend  string        `json:"backend"`
	Model    string        `json:"model"`
	Duration time.Duration `json:"duration"`
}
