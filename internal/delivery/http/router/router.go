package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/user/page-archive-service/internal/delivery/http/handler"
	"github.com/user/page-archive-service/internal/delivery/http/middleware"
)

func New(h *handler.Handler, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logging(logger))
	r.Use(middleware.Metrics)
	r.Use(chimw.Recoverer)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.HandleHealthCheck)
		r.Route("/archive", func(r chi.Router) {
			r.Post("/export", h.HandleExport)
			r.Get("/export/{project}/{archiveID}", h.HandleGetExport)
			r.Get("/exports/recent", h.HandleRecentExports)
			r.Post("/upload", h.HandleUpload)
			r.Post("/delete-children", h.HandleDeleteChildren)
			r.Post("/delete-attachments", h.HandleDeleteAttachments)
			r.Post("/replace-content", h.HandleReplaceContent)
			r.Post("/save-to-db", h.HandleSaveToDB)
		})
		r.Get("/reports", h.HandleSearchReports)
		r.Get("/projects", h.HandleListProjects)
	})

	r.Post("/admin/sync", h.HandleSync)

	r.Get("/{project}/{archiveID}", h.HandleArchiveRedirect)
	r.Get("/{project}/{archiveID}/*", h.HandleArchiveFile)
	r.Head("/{project}/{archiveID}/*", h.HandleArchiveFile)

	return r
}
