package route

import (
	"net/http"
	"os"
	"path/filepath"
	"textwatch/internal/config"
	"textwatch/internal/handler"
	"textwatch/internal/logger"
	"textwatch/internal/metrics"
	"textwatch/internal/middleware"
	"textwatch/internal/repository"
	"textwatch/internal/service/websocket"
)

// StaticDir holds the overlay and login pages.
const StaticDir = "static"

// Deps groups everything the HTTP surface reads from.
type Deps struct {
	Config     *config.Config
	Logger     *logger.Logger
	Metrics    *metrics.Metrics
	Hub        *websocket.HubService
	Session    handler.SessionController
	PassRepo   repository.PassRepository
	RegionRepo repository.RegionRepository
}

// dynamicHTMLHandler serves /path as /static/path.html if the file exists; otherwise 404.
func dynamicHTMLHandler(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path

	if path == "/" {
		path = "/index"
	}

	filePath := filepath.Join(StaticDir, filepath.Clean(path)+".html")

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		http.NotFound(w, r)
		return
	}

	http.ServeFile(w, r, filePath)
}

// SetupRoutes registers HTTP routes, static file serving, API endpoints,
// and wraps the mux with the authentication middleware.
func SetupRoutes(d Deps) http.Handler {
	mux := http.NewServeMux()

	// Static files
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir(StaticDir))))

	// Live overlay feed and session control
	mux.HandleFunc("/api/view", handler.ViewWebsocketHandler(d.Hub, d.Logger))
	if d.Session != nil {
		mux.HandleFunc("/api/session", handler.SessionStatusHandler(d.Session, d.Logger))
		mux.HandleFunc("/api/session/pause", handler.PauseSessionHandler(d.Session, d.Logger))
		mux.HandleFunc("/api/session/resume", handler.ResumeSessionHandler(d.Session, d.Logger))
	}

	// Recorded history
	mux.HandleFunc("/api/lines", handler.GetLinesHandler(d.Logger, d.PassRepo))
	mux.HandleFunc("/api/lines/export", handler.ExportLinesHandler(d.Logger, d.PassRepo))
	mux.HandleFunc("/api/lines/regions", handler.GetLineRegionsHandler(d.Logger, d.PassRepo, d.RegionRepo))
	mux.HandleFunc("/api/sessions", handler.GetSessionsHandler(d.Logger, d.PassRepo))
	mux.HandleFunc("/api/sessions/delete", handler.DeleteSessionHandler(d.Logger, d.PassRepo))

	// Log endpoints
	for level, file := range handler.LogLevels {
		mux.HandleFunc("/logs/"+level, handler.ShowLogsHandler(d.Config.LogDirectory, file))
		mux.HandleFunc("/logs/"+level+"/clear", handler.ClearLogsHandler(d.Logger, file))
	}

	// Auth endpoints
	limiter := middleware.NewRateLimiter(d.Config.LoginRate, d.Config.LoginBurst)
	mux.HandleFunc("/auth/login", limiter.Limit(handler.LoginHandler(d.Config, d.Logger)))
	mux.HandleFunc("/auth/logout", handler.LogoutHandler)

	if d.Metrics != nil {
		mux.Handle("/metrics", d.Metrics.Handler())
	}

	// Automatic HTML handler mapping for example: /login -> /static/login.html
	mux.HandleFunc("/", dynamicHTMLHandler)

	// Apply middleware
	return middleware.AuthMiddleware(d.Config.TokenSecret(), mux)
}
