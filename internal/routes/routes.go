package routes

import (
	"net/http"

	"photocapture/internal/config"
	"photocapture/internal/handler"
	"photocapture/internal/logger"
	"photocapture/internal/middleware"
	"photocapture/internal/service"
	"photocapture/internal/view"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes registers the page, capture workflow, snapshot actions, live
// preview, static assets, metrics and log endpoints, wrapped in request logging.
func SetupRoutes(manager *service.Manager, renderer *view.Renderer, cfg *config.Config, imageURL handler.ImageURLFunc, logger *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Static files
	r.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServer(http.FS(view.Static())))).Methods("GET")

	// Page and list fragment
	r.HandleFunc("/", handler.IndexHandler(manager, renderer, cfg, imageURL, logger)).Methods("GET")
	r.HandleFunc("/fragments/snapshots", handler.ListFragmentHandler(manager, renderer, cfg, imageURL, logger)).Methods("GET")

	// Capture workflow
	r.HandleFunc("/capture/{slot}/start", handler.StartCaptureHandler(manager, logger)).Methods("POST")
	r.HandleFunc("/capture/stop", handler.StopCaptureHandler(manager)).Methods("POST")
	r.HandleFunc("/capture/shoot", handler.ShootHandler(manager, logger)).Methods("POST")
	r.HandleFunc("/capture/{slot}/retake", handler.RetakeHandler(manager)).Methods("POST")
	r.HandleFunc("/capture/submit", handler.SubmitHandler(manager, logger)).Methods("POST")
	r.HandleFunc(service.PreviewPrefix+"{id}", handler.PreviewHandler(manager)).Methods("GET")
	r.HandleFunc("/ws/preview", handler.ViewWebsocketHandler(manager, logger)).Methods("GET")

	// Snapshot actions
	r.HandleFunc("/snapshots/{id}/delete", handler.DeleteSnapshotHandler(manager, renderer, logger)).Methods("POST")
	r.HandleFunc("/snapshots/{id}/status", handler.UpdateStatusHandler(manager, cfg, logger)).Methods("POST")

	// Log endpoints
	r.HandleFunc("/logs/{level}", handler.ShowLogsHandler(logger)).Methods("GET")
	r.HandleFunc("/logs/{level}/clear", handler.ClearLogsHandler(logger)).Methods("POST")

	r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	r.HandleFunc("/healthz", handler.HealthHandler()).Methods("GET")

	r.Use(middleware.RequestLogging(logger))
	return r
}
