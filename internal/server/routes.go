package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// System
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/help", s.app.AgreementHandler.HelpHandler)

	// Agreement conversation
	mux.HandleFunc("/api/agreement", s.app.AgreementHandler.StatusHandler)
	mux.HandleFunc("/api/agreement/accept", s.app.AgreementHandler.AcceptHandler)
	mux.HandleFunc("/api/agreement/decline", s.app.AgreementHandler.DeclineHandler)
	mux.HandleFunc("/api/agreement/cancel", s.app.AgreementHandler.CancelHandler)

	// Document submission (rate limited)
	mux.Handle("/api/documents", s.submissionLimiter(http.HandlerFunc(s.app.DocumentHandler.SubmitHandler)))

	mux.HandleFunc("/", s.app.APIHandler.NotFoundHandler)

	return mux
}
