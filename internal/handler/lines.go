package handler

import (
	"net/http"
	"strconv"
	"textwatch/internal/dto"
	"textwatch/internal/logger"
	"textwatch/internal/model"
	"textwatch/internal/repository"
)

const (
	defaultLinesLimit = 50
	maxLinesLimit     = 500
)

// GetLinesHandler returns a page of recorded passes, newest first.
// Query: session, emitted (true/false), page, limit.
func GetLinesHandler(logger *logger.Logger, passRepo repository.PassRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		page := atoiDefault(q.Get("page"), 1)
		limit := atoiDefault(q.Get("limit"), defaultLinesLimit)
		if limit > maxLinesLimit {
			limit = maxLinesLimit
		}

		filter := &dto.PassFilter{
			SessionID: q.Get("session"),
			Emitted:   parseOptionalBool(q.Get("emitted")),
			Limit:     limit,
			Offset:    (page - 1) * limit,
		}

		passes, err := passRepo.GetAll(filter)
		if err != nil {
			logger.Error("Error querying passes from database: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		total, err := passRepo.GetTotalCount(filter)
		if err != nil {
			logger.Error("Error counting passes: %v", err)
			total = len(passes)
		}

		if passes == nil {
			passes = []model.Pass{}
		}
		data := dto.LinePage{
			Lines: passes,
			Total: total,
			Page:  page,
			Limit: limit,
		}
		if err := writeJSON(w, http.StatusOK, data); err != nil {
			logger.Error("Error encoding JSON response: %v", err)
		}
	}
}

// GetLineRegionsHandler returns the regions recorded for one pass (?id=).
func GetLineRegionsHandler(logger *logger.Logger, passRepo repository.PassRepository, regionRepo repository.RegionRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
		if err != nil || id <= 0 {
			http.Error(w, "Valid id required", http.StatusBadRequest)
			return
		}

		pass, err := passRepo.GetByID(id)
		if err != nil {
			logger.Error("Error loading pass %d: %v", id, err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if pass == nil {
			http.NotFound(w, r)
			return
		}

		regions, err := regionRepo.GetByPassID(id)
		if err != nil {
			logger.Error("Error loading regions for pass %d: %v", id, err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if regions == nil {
			regions = []model.Region{}
		}

		resp := struct {
			Pass    *model.Pass    `json:"pass"`
			Regions []model.Region `json:"regions"`
		}{pass, regions}
		if err := writeJSON(w, http.StatusOK, resp); err != nil {
			logger.Error("Error encoding JSON response: %v", err)
		}
	}
}

// GetSessionsHandler lists the session ids that have recorded passes.
func GetSessionsHandler(logger *logger.Logger, passRepo repository.PassRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessions, err := passRepo.GetSessions()
		if err != nil {
			logger.Error("Error listing sessions: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if sessions == nil {
			sessions = []string{}
		}
		if err := writeJSON(w, http.StatusOK, sessions); err != nil {
			logger.Error("Error encoding JSON response: %v", err)
		}
	}
}

// DeleteSessionHandler removes every recorded pass of a session (?session=).
func DeleteSessionHandler(logger *logger.Logger, passRepo repository.PassRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost && r.Method != http.MethodDelete {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		session := r.URL.Query().Get("session")
		if session == "" {
			http.Error(w, "Session required", http.StatusBadRequest)
			return
		}

		if err := passRepo.DeleteBySession(session); err != nil {
			logger.Error("Failed to delete session %s: %v", session, err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		logger.Info("Deleted recorded passes of session %s", session)
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "session": session})
	}
}
