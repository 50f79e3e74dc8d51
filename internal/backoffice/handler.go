package backoffice

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"recrutement/backoffice-service/internal/export"
	"recrutement/backoffice-service/internal/model"
	"recrutement/backoffice-service/internal/search"
)

// maxBody caps request bodies.
const maxBody = 1 << 20

// searchParams are the query parameters read as category filters.
var searchParams = []string{model.CategoryStatus, model.CategoryExperience, model.CategoryJobTitle}

// candidatesXLSX renders the export; replaced in tests.
var candidatesXLSX = export.CandidatesXLSX

// ─── Handler ─────────────────────────────────────────────────────────────────

// Handler exposes the Service over JSON/HTTP.
type Handler struct {
	svc *Service
}

// NewHandler returns a configured Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts all back-office routes on mux.
//
//	GET    /vocabulary                        → filter option lists
//	GET    /candidates?q=&statut=&...         → search candidates
//	GET    /candidates/export?q=&...          → search result as .xlsx
//	POST   /candidates                        → create candidate
//	GET    /candidates/{id}                   → candidate with notes
//	PUT    /candidates/{id}                   → replace candidate
//	PUT    /candidates/{id}/sections/{name}   → edit one profile section
//	DELETE /candidates/{id}                   → delete candidate
//	GET    /clients, /mandates, /applications, /raw-applications (+ /{id})
//	GET|POST /{candidates|clients|mandates|raw-applications}/{id}/notes
//	PUT|DELETE /notes/{id}
//	POST   /applications/{id}/move            → move to another stage
//	POST   /raw-applications/{id}/import      → create candidate from it
//	POST   /raw-applications/{id}/status      → set processing status
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /vocabulary", h.vocabulary)

	mux.HandleFunc("GET /candidates", h.searchCandidates)
	mux.HandleFunc("GET /candidates/export", h.exportCandidates)
	mux.HandleFunc("POST /candidates", h.createCandidate)
	mux.HandleFunc("GET /candidates/{id}", h.getCandidate)
	mux.HandleFunc("PUT /candidates/{id}", h.updateCandidate)
	mux.HandleFunc("PUT /candidates/{id}/sections/{section}", h.updateCandidateSection)
	mux.HandleFunc("DELETE /candidates/{id}", h.deleteCandidate)

	mux.HandleFunc("GET /clients", h.listClients)
	mux.HandleFunc("POST /clients", h.createClient)
	mux.HandleFunc("GET /clients/{id}", h.getClient)
	mux.HandleFunc("PUT /clients/{id}", h.updateClient)
	mux.HandleFunc("DELETE /clients/{id}", h.deleteClient)

	mux.HandleFunc("GET /mandates", h.listMandates)
	mux.HandleFunc("POST /mandates", h.createMandate)
	mux.HandleFunc("GET /mandates/{id}", h.getMandate)
	mux.HandleFunc("PUT /mandates/{id}", h.updateMandate)
	mux.HandleFunc("DELETE /mandates/{id}", h.deleteMandate)

	mux.HandleFunc("GET /applications", h.listApplications)
	mux.HandleFunc("POST /applications", h.createApplication)
	mux.HandleFunc("GET /applications/{id}", h.getApplication)
	mux.HandleFunc("DELETE /applications/{id}", h.deleteApplication)
	mux.HandleFunc("POST /applications/{id}/move", h.moveApplication)

	mux.HandleFunc("GET /raw-applications", h.searchRawApplications)
	mux.HandleFunc("GET /raw-applications/{id}", h.getRawApplication)
	mux.HandleFunc("DELETE /raw-applications/{id}", h.deleteRawApplication)
	mux.HandleFunc("POST /raw-applications/{id}/import", h.importRawApplication)
	mux.HandleFunc("POST /raw-applications/{id}/status", h.setRawApplicationStatus)

	for prefix, kind := range map[string]string{
		"candidates":       ParentCandidate,
		"clients":          ParentClient,
		"mandates":         ParentMandate,
		"raw-applications": ParentRawApplication,
	} {
		mux.HandleFunc("GET /"+prefix+"/{id}/notes", h.listNotes(kind))
		mux.HandleFunc("POST /"+prefix+"/{id}/notes", h.addNote(kind))
	}
	mux.HandleFunc("PUT /notes/{id}", h.updateNote)
	mux.HandleFunc("DELETE /notes/{id}", h.deleteNote)
}

// Routes returns the routes wrapped in the standard middleware stack.
func (h *Handler) Routes(extra func(*http.ServeMux)) http.Handler {
	mux := http.NewServeMux()
	if extra != nil {
		extra(mux)
	}
	h.RegisterRoutes(mux)
	return Chain(mux, RequestID, Recover, AccessLog)
}

// ─── Search responses ────────────────────────────────────────────────────────

type searchResponse[R any] struct {
	Items  []R  `json:"items"`
	Count  int  `json:"count"`
	Active bool `json:"active"`
}

func toResponse[R search.Searchable](res search.Result[R]) searchResponse[R] {
	items := res.Records
	if items == nil {
		items = []R{}
	}
	return searchResponse[R]{Items: items, Count: res.Count, Active: res.Active}
}

// searchQuery reads q and the category filters from the URL.
func searchQuery(r *http.Request) (string, search.Filters) {
	v := r.URL.Query()
	filters := search.Filters{}
	for _, name := range searchParams {
		if val := v.Get(name); val != "" {
			filters[name] = val
		}
	}
	return v.Get("q"), filters
}

// ─── Individual handlers ─────────────────────────────────────────────────────

func (h *Handler) vocabulary(w http.ResponseWriter, r *http.Request) {
	out := map[string]any{
		"stages":   Stages(),
		"sections": Sections(),
	}
	if v := h.svc.Vocabulary(); v != nil {
		out["options"] = v.All()
	}
	jsonOK(w, out)
}

func (h *Handler) searchCandidates(w http.ResponseWriter, r *http.Request) {
	q, filters := searchQuery(r)
	res, err := h.svc.SearchCandidates(r.Context(), q, filters)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	jsonOK(w, toResponse(res))
}

func (h *Handler) exportCandidates(w http.ResponseWriter, r *http.Request) {
	q, filters := searchQuery(r)
	res, err := h.svc.SearchCandidates(r.Context(), q, filters)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := candidatesXLSX(&buf, res.Records, q, filters); err != nil {
		writeServiceError(w, r, fmt.Errorf("export candidates: %w", err))
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="candidats.xlsx"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	buf.WriteTo(w)
}

func (h *Handler) createCandidate(w http.ResponseWriter, r *http.Request) {
	var c model.Candidate
	if !decodeBody(w, r, &c) {
		return
	}
	out, err := h.svc.CreateCandidate(r.Context(), c)
	respond(w, r, http.StatusCreated, out, err)
}

func (h *Handler) getCandidate(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.GetCandidate(r.Context(), r.PathValue("id"))
	respond(w, r, http.StatusOK, out, err)
}

func (h *Handler) updateCandidate(w http.ResponseWriter, r *http.Request) {
	var c model.Candidate
	if !decodeBody(w, r, &c) {
		return
	}
	out, err := h.svc.UpdateCandidate(r.Context(), r.PathValue("id"), c)
	respond(w, r, http.StatusOK, out, err)
}

func (h *Handler) updateCandidateSection(w http.ResponseWriter, r *http.Request) {
	var body json.RawMessage
	if !decodeBody(w, r, &body) {
		return
	}
	out, err := h.svc.UpdateCandidateSection(r.Context(), r.PathValue("id"), r.PathValue("section"), body)
	respond(w, r, http.StatusOK, out, err)
}

func (h *Handler) deleteCandidate(w http.ResponseWriter, r *http.Request) {
	respondDeleted(w, r, h.svc.DeleteCandidate(r.Context(), r.PathValue("id")))
}

func (h *Handler) listClients(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.ListClients(r.Context())
	respond(w, r, http.StatusOK, out, err)
}

func (h *Handler) createClient(w http.ResponseWriter, r *http.Request) {
	var c model.Client
	if !decodeBody(w, r, &c) {
		return
	}
	out, err := h.svc.CreateClient(r.Context(), c)
	respond(w, r, http.StatusCreated, out, err)
}

func (h *Handler) getClient(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.GetClient(r.Context(), r.PathValue("id"))
	respond(w, r, http.StatusOK, out, err)
}

func (h *Handler) updateClient(w http.ResponseWriter, r *http.Request) {
	var c model.Client
	if !decodeBody(w, r, &c) {
		return
	}
	out, err := h.svc.UpdateClient(r.Context(), r.PathValue("id"), c)
	respond(w, r, http.StatusOK, out, err)
}

func (h *Handler) deleteClient(w http.ResponseWriter, r *http.Request) {
	respondDeleted(w, r, h.svc.DeleteClient(r.Context(), r.PathValue("id")))
}

func (h *Handler) listMandates(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.ListMandates(r.Context(), r.URL.Query().Get("client_id"))
	respond(w, r, http.StatusOK, out, err)
}

func (h *Handler) createMandate(w http.ResponseWriter, r *http.Request) {
	var m model.Mandate
	if !decodeBody(w, r, &m) {
		return
	}
	out, err := h.svc.CreateMandate(r.Context(), m)
	respond(w, r, http.StatusCreated, out, err)
}

func (h *Handler) getMandate(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.GetMandate(r.Context(), r.PathValue("id"))
	respond(w, r, http.StatusOK, out, err)
}

func (h *Handler) updateMandate(w http.ResponseWriter, r *http.Request) {
	var m model.Mandate
	if !decodeBody(w, r, &m) {
		return
	}
	out, err := h.svc.UpdateMandate(r.Context(), r.PathValue("id"), m)
	respond(w, r, http.StatusOK, out, err)
}

func (h *Handler) deleteMandate(w http.ResponseWriter, r *http.Request) {
	respondDeleted(w, r, h.svc.DeleteMandate(r.Context(), r.PathValue("id")))
}

func (h *Handler) listApplications(w http.ResponseWriter, r *http.Request) {
	v := r.URL.Query()
	out, err := h.svc.ListApplications(r.Context(), ApplicationQuery{
		CandidatID: v.Get("candidat_id"),
		MandatID:   v.Get("mandat_id"),
	})
	respond(w, r, http.StatusOK, out, err)
}

func (h *Handler) createApplication(w http.ResponseWriter, r *http.Request) {
	var a model.Application
	if !decodeBody(w, r, &a) {
		return
	}
	out, err := h.svc.CreateApplication(r.Context(), a)
	respond(w, r, http.StatusCreated, out, err)
}

func (h *Handler) getApplication(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.GetApplication(r.Context(), r.PathValue("id"))
	respond(w, r, http.StatusOK, out, err)
}

func (h *Handler) deleteApplication(w http.ResponseWriter, r *http.Request) {
	respondDeleted(w, r, h.svc.DeleteApplication(r.Context(), r.PathValue("id")))
}

func (h *Handler) moveApplication(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Statut string `json:"statut"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if body.Statut == "" {
		jsonError(w, "statut is required", http.StatusBadRequest)
		return
	}
	out, err := h.svc.MoveApplication(r.Context(), r.PathValue("id"), body.Statut)
	respond(w, r, http.StatusOK, out, err)
}

func (h *Handler) searchRawApplications(w http.ResponseWriter, r *http.Request) {
	q, filters := searchQuery(r)
	res, err := h.svc.SearchRawApplications(r.Context(), q, filters)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	jsonOK(w, toResponse(res))
}

func (h *Handler) getRawApplication(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.GetRawApplication(r.Context(), r.PathValue("id"))
	respond(w, r, http.StatusOK, out, err)
}

func (h *Handler) deleteRawApplication(w http.ResponseWriter, r *http.Request) {
	respondDeleted(w, r, h.svc.DeleteRawApplication(r.Context(), r.PathValue("id")))
}

func (h *Handler) importRawApplication(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.ImportRawApplication(r.Context(), r.PathValue("id"))
	respond(w, r, http.StatusCreated, out, err)
}

func (h *Handler) setRawApplicationStatus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Statut string `json:"statut"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	out, err := h.svc.UpdateRawApplicationStatus(r.Context(), r.PathValue("id"), body.Statut)
	respond(w, r, http.StatusOK, out, err)
}

func (h *Handler) listNotes(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := h.svc.ListNotes(r.Context(), Parent{Kind: kind, ID: r.PathValue("id")})
		respond(w, r, http.StatusOK, out, err)
	}
}

func (h *Handler) addNote(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var n model.Note
		if !decodeBody(w, r, &n) {
			return
		}
		out, err := h.svc.AddNote(r.Context(), Parent{Kind: kind, ID: r.PathValue("id")}, n)
		respond(w, r, http.StatusCreated, out, err)
	}
}

func (h *Handler) updateNote(w http.ResponseWriter, r *http.Request) {
	var n model.Note
	if !decodeBody(w, r, &n) {
		return
	}
	out, err := h.svc.UpdateNote(r.Context(), r.PathValue("id"), n)
	respond(w, r, http.StatusOK, out, err)
}

func (h *Handler) deleteNote(w http.ResponseWriter, r *http.Request) {
	respondDeleted(w, r, h.svc.DeleteNote(r.Context(), r.PathValue("id")))
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// decodeBody reads a JSON body into v, answering 400 itself on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
	if err != nil {
		jsonError(w, "request body too large", http.StatusRequestEntityTooLarge)
		return false
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		jsonError(w, "empty request body", http.StatusBadRequest)
		return false
	}
	if err := json.Unmarshal(body, v); err != nil {
		jsonError(w, fmt.Sprintf("invalid JSON body: %v", err), http.StatusBadRequest)
		return false
	}
	return true
}

func respond(w http.ResponseWriter, r *http.Request, code int, v any, err error) {
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, code, v)
}

func respondDeleted(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeServiceError maps domain errors to HTTP status codes.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: ve.Msg, Fields: ve.Fields})
	case errors.Is(err, ErrNotFound):
		jsonError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrConflict):
		jsonError(w, err.Error(), http.StatusConflict)
	default:
		slog.Error("request failed", "request_id", RequestIDFrom(r.Context()), "method", r.Method, "path", r.URL.Path, "err", err)
		jsonError(w, "internal server error", http.StatusInternalServerError)
	}
}

type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func jsonOK(w http.ResponseWriter, v any) {
	writeJSON(w, http.StatusOK, v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, errorBody{Error: msg})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
