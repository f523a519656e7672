package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/user/page-archive-service/internal/delivery/http/request"
	"github.com/user/page-archive-service/internal/delivery/http/response"
	"github.com/user/page-archive-service/internal/entity"
	"github.com/user/page-archive-service/internal/usecase"
)

func (h *Handler) HandleSaveToDB(w http.ResponseWriter, r *http.Request) {
	var req request.SaveToDBRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.ArchiveID) == "" || strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Project) == "" {
		h.writeJSONError(w, "archiveId, name and project are required", http.StatusBadRequest)
		return
	}

	report, err := h.catalog.SaveReport(r.Context(), usecase.SaveReportRequest{
		ArchiveID:      req.ArchiveID,
		Name:           req.Name,
		Project:        req.Project,
		ChildPageNames: req.ChildPageNames,
		JiraKey:        req.JiraKey,
		Digrep:         req.Digrep,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, response.SaveToDBResponse{Success: true, ID: report.ArchiveID, PK: report.PK})
}

func (h *Handler) HandleSearchReports(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := entity.SearchParams{
		Project: q.Get("project"),
		Search:  q.Get("search"),
	}
	var ok bool
	if params.Page, ok = intQuery(q.Get("page"), 0); !ok {
		h.writeJSONError(w, "page must be an integer", http.StatusBadRequest)
		return
	}
	if params.Size, ok = intQuery(q.Get("size"), 20); !ok {
		h.writeJSONError(w, "size must be an integer", http.StatusBadRequest)
		return
	}

	page, err := h.catalog.Search(r.Context(), params)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, page)
}

func (h *Handler) HandleListProjects(w http.ResponseWriter, r *http.Request) {
	names, err := h.catalog.Projects(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, names)
}

func (h *Handler) HandleSync(w http.ResponseWriter, r *http.Request) {
	result, err := h.catalog.SyncFromFilesystem(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

func intQuery(raw string, def int) (int, bool) {
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}
