package handler

import (
	"errors"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/user/page-archive-service/internal/delivery/http/request"
	"github.com/user/page-archive-service/internal/delivery/http/response"
	"github.com/user/page-archive-service/internal/entity"
	"github.com/user/page-archive-service/internal/usecase"
)

func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	var req request.ExportRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.ConfluenceURL) == "" || strings.TrimSpace(req.Project) == "" {
		h.writeJSONError(w, "confluenceUrl and project are required", http.StatusBadRequest)
		return
	}

	result, err := h.exporter.Export(r.Context(), usecase.ExportRequest{
		SourceURL: req.ConfluenceURL,
		Project:   req.Project,
		Force:     req.Force,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, response.NewExportResponse(result))
}

func (h *Handler) HandleGetExport(w http.ResponseWriter, r *http.Request) {
	result, err := h.exporter.FindResult(r.Context(), chi.URLParam(r, "project"), chi.URLParam(r, "archiveID"))
	if err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			h.writeJSONError(w, "Export result not found or expired", http.StatusNotFound)
			return
		}
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, response.NewExportResponse(result))
}

func (h *Handler) HandleRecentExports(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			h.writeJSONError(w, "limit must be a non-negative integer", http.StatusBadRequest)
			return
		}
		limit = n
	}
	results, err := h.exporter.Recent(r.Context(), limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out := make([]response.ExportResponse, 0, len(results))
	for i := range results {
		out = append(out, response.NewExportResponse(&results[i]))
	}
	h.writeJSON(w, http.StatusOK, out)
}

func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		h.writeJSONError(w, "Invalid multipart form", http.StatusBadRequest)
		return
	}
	project := strings.TrimSpace(r.FormValue("project"))
	if project == "" {
		h.writeJSONError(w, "project is required", http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeJSONError(w, "file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()
	if header.Size == 0 {
		h.writeJSONError(w, "file is empty", http.StatusBadRequest)
		return
	}

	result, err := h.catalog.Upload(r.Context(), project, header.Filename, file)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) HandleDeleteChildren(w http.ResponseWriter, r *http.Request) {
	var req request.DeleteChildrenRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.ConfluenceURL) == "" {
		h.writeJSONError(w, "confluenceUrl is required", http.StatusBadRequest)
		return
	}
	report, err := h.remediator.DeleteChildPages(r.Context(), req.ConfluenceURL, req.ChildPageIDs)
	h.writeDeleteReport(w, r, report, err)
}

func (h *Handler) HandleDeleteAttachments(w http.ResponseWriter, r *http.Request) {
	var req request.DeleteAttachmentsRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.ConfluenceURL) == "" {
		h.writeJSONError(w, "confluenceUrl is required", http.StatusBadRequest)
		return
	}
	report, err := h.remediator.DeleteAttachments(r.Context(), req.ConfluenceURL)
	h.writeDeleteReport(w, r, report, err)
}

func (h *Handler) writeDeleteReport(w http.ResponseWriter, r *http.Request, report usecase.DeleteReport, err error) {
	resp := response.DeleteResponse{Success: err == nil, Deleted: report.Deleted, Failed: report.Failed}
	if err == nil {
		h.writeJSON(w, http.StatusOK, resp)
		return
	}
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.writeError(w, r, err)
		return
	}
	h.logger.Warn("delete finished with errors", zap.String("path", r.URL.Path), zap.Error(err))
	resp.Error = err.Error()
	h.writeJSON(w, status, resp)
}

func (h *Handler) HandleReplaceContent(w http.ResponseWriter, r *http.Request) {
	var req request.ReplaceContentRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.ConfluenceURL) == "" || strings.TrimSpace(req.PageTitle) == "" ||
		strings.TrimSpace(req.ArchiveID) == "" || strings.TrimSpace(req.Project) == "" {
		h.writeJSONError(w, "confluenceUrl, pageTitle, archiveId and project are required", http.StatusBadRequest)
		return
	}
	err := h.remediator.ReplaceContent(r.Context(), usecase.ReplaceRequest{
		SourceURL: req.ConfluenceURL,
		PageTitle: req.PageTitle,
		ArchiveID: req.ArchiveID,
		Project:   req.Project,
		Ticket:    req.JiraKey,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, response.StatusResponse{Success: true, Message: "Page content replaced"})
}

// HandleArchiveRedirect adds the trailing slash so relative links inside the
// archive resolve below it.
func (h *Handler) HandleArchiveRedirect(w http.ResponseWriter, r *http.Request) {
	project := chi.URLParam(r, "project")
	archiveID := chi.URLParam(r, "archiveID")
	target := "/" + url.PathEscape(project) + "/" + url.PathEscape(archiveID) + "/"
	http.Redirect(w, r, target, http.StatusFound)
}

func (h *Handler) HandleArchiveFile(w http.ResponseWriter, r *http.Request) {
	project := urlParam(r, "project")
	archiveID := urlParam(r, "archiveID")
	rel := urlParam(r, "*")

	file, err := h.viewer.Resolve(r.Context(), project, archiveID, rel)
	if err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		h.logger.Error("failed to serve archive file",
			zap.String("project", project),
			zap.String("archive_id", archiveID),
			zap.String("path", rel),
			zap.Error(err),
		)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Cache-Control", file.CacheControl)
	w.Header().Set("Content-Length", strconv.Itoa(len(file.Data)))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	if file.Download {
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": path.Base(file.Name)}))
	}
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	if _, err := w.Write(file.Data); err != nil {
		h.logger.Debug("client went away", zap.Error(err))
	}
}

// urlParam returns a decoded route parameter. chi matches on the raw path
// when the request carries one.
func urlParam(r *http.Request, key string) string {
	v := chi.URLParam(r, key)
	if r.URL.RawPath == "" {
		return v
	}
	if decoded, err := url.PathUnescape(v); err == nil {
		return decoded
	}
	return v
}
