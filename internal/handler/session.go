package handler

import (
	"net/http"
	"textwatch/internal/dto"
	"textwatch/internal/logger"
)

// SessionController is the part of a capture session the API drives.
type SessionController interface {
	Status() dto.SessionStatus
	Pause()
	Resume()
}

// SessionStatusHandler reports the live session state.
func SessionStatusHandler(session SessionController, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := writeJSON(w, http.StatusOK, session.Status()); err != nil {
			logger.Error("Error encoding JSON response: %v", err)
		}
	}
}

// PauseSessionHandler stops sampling until resumed.
func PauseSessionHandler(session SessionController, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		session.Pause()
		logger.Info("Session paused")
		writeJSON(w, http.StatusOK, session.Status())
	}
}

// ResumeSessionHandler restarts sampling from a fresh baseline.
func ResumeSessionHandler(session SessionController, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		session.Resume()
		logger.Info("Session resumed")
		writeJSON(w, http.StatusOK, session.Status())
	}
}
