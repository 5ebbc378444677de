package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/goliatone/go-reportgen/internal/store"
	"github.com/goliatone/go-reportgen/pkg/catalog"
	"github.com/goliatone/go-reportgen/pkg/model"
	"github.com/goliatone/go-reportgen/pkg/openapi"
	"github.com/goliatone/go-reportgen/pkg/orchestrator"
	"github.com/goliatone/go-reportgen/pkg/render"
)

const maxBodyBytes = 1 << 20

type templateSummary struct {
	ID string `json:"id"`
	model.Metadata
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	records, err := s.listTemplates(r)
	if err != nil {
		s.fail(w, r, http.StatusInternalServerError, err)
		return
	}
	raw, err := openapi.JSON(records, s.openapiOptions...)
	if err != nil {
		s.fail(w, r, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	records, err := s.listTemplates(r)
	if err != nil {
		s.fail(w, r, http.StatusInternalServerError, err)
		return
	}
	out := make([]templateSummary, 0, len(records))
	for _, record := range records {
		out = append(out, templateSummary{ID: record.ID, Metadata: record.Metadata()})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		s.fail(w, r, http.StatusNotFound, catalog.ErrNotFound)
		return
	}
	record, err := s.templates.Template(r.Context(), chi.URLParam(r, "pageID"))
	if errors.Is(err, catalog.ErrNotFound) {
		s.fail(w, r, http.StatusNotFound, err)
		return
	}
	if err != nil {
		s.fail(w, r, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (s *Server) handleGetValues(w http.ResponseWriter, r *http.Request) {
	reportID, ok := s.reportID(w, r)
	if !ok {
		return
	}
	report, err := s.reports.Values(r.Context(), reportID)
	if errors.Is(err, store.ErrReportNotFound) {
		s.fail(w, r, http.StatusNotFound, err)
		return
	}
	if err != nil {
		s.fail(w, r, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handlePutValues(w http.ResponseWriter, r *http.Request) {
	reportID, ok := s.reportID(w, r)
	if !ok {
		return
	}
	pageID := strings.TrimSpace(r.URL.Query().Get("pageId"))
	if pageID == "" {
		s.fail(w, r, http.StatusBadRequest, errors.New("pageId query parameter is required"))
		return
	}
	values, ok := s.decodeValues(w, r)
	if !ok {
		return
	}

	if r.URL.Query().Get("mode") == "autosave" {
		if err := s.scheduleAutosave(r.Context(), reportID, pageID, values); err != nil {
			s.fail(w, r, http.StatusServiceUnavailable, err)
			return
		}
		w.WriteHeader(http.StatusAccepted)
		return
	}

	s.discardAutosave(reportID)
	if err := s.reports.SaveValues(r.Context(), reportID, pageID, values); err != nil {
		s.fail(w, r, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	values, ok := s.decodeValues(w, r)
	if !ok {
		return
	}
	result, _, err := s.pipeline.Validate(r.Context(), chi.URLParam(r, "pageID"), values)
	if err != nil {
		s.fail(w, r, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	values, ok := s.decodeValues(w, r)
	if !ok {
		return
	}
	query := r.URL.Query()
	req := orchestrator.Request{
		PageID:   chi.URLParam(r, "pageID"),
		Values:   values,
		Renderer: query.Get("renderer"),
		Theme:    query.Get("theme"),
		Variant:  query.Get("variant"),
		RenderOptions: render.RenderOptions{
			Standalone: queryBool(query.Get("standalone")),
		},
	}
	if groups := query.Get("groups"); groups != "" {
		req.RenderOptions.Subset = render.FieldSubset{Groups: []string{groups}}
	}

	result, err := s.pipeline.Preview(r.Context(), req)
	if err != nil {
		s.fail(w, r, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", result.ContentType)
	w.Header().Set("X-Report-Valid", strconv.FormatBool(result.Validation.Valid))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Output)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	values, ok := s.decodeValues(w, r)
	if !ok {
		return
	}
	query := r.URL.Query()
	pageID := chi.URLParam(r, "pageID")
	result, err := s.pipeline.Export(r.Context(), orchestrator.Request{
		PageID:  pageID,
		Values:  values,
		Theme:   query.Get("theme"),
		Variant: query.Get("variant"),
		Draft:   queryBool(query.Get("draft")),
	})

	var verr *orchestrator.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, verr.Result)
		return
	case errors.Is(err, orchestrator.ErrNoExporter):
		s.fail(w, r, http.StatusNotImplemented, err)
		return
	case err != nil:
		s.fail(w, r, http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+pageID+`.pdf"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.PDF)
}

func (s *Server) listTemplates(r *http.Request) ([]model.TemplateRecord, error) {
	if s.templates == nil {
		return nil, nil
	}
	return s.templates.Templates(r.Context())
}

func (s *Server) reportID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	if s.reports == nil {
		s.fail(w, r, http.StatusNotImplemented, errors.New("report storage is disabled"))
		return uuid.Nil, false
	}
	id, err := uuid.Parse(chi.URLParam(r, "reportID"))
	if err != nil {
		s.fail(w, r, http.StatusBadRequest, errors.New("report id must be a UUID"))
		return uuid.Nil, false
	}
	return id, true
}

func (s *Server) decodeValues(w http.ResponseWriter, r *http.Request) (model.Values, bool) {
	var values model.Values
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&values); err != nil {
		s.fail(w, r, http.StatusBadRequest, errors.New("body must be a JSON object of string values"))
		return nil, false
	}
	return values, true
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func queryBool(raw string) bool {
	v, err := strconv.ParseBool(raw)
	return err == nil && v
}
