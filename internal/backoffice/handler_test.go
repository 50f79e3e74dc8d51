package backoffice_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"recrutement/backoffice-service/internal/backoffice"
	"recrutement/backoffice-service/internal/model"
	"recrutement/backoffice-service/internal/search"
)

func newServer(t *testing.T) (http.Handler, fixture) {
	t.Helper()
	f := newFixture(t)
	return backoffice.NewHandler(f.svc).Routes(nil), f
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return v
}

type searchBody struct {
	Items  []model.Candidate `json:"items"`
	Count  int               `json:"count"`
	Active bool              `json:"active"`
}

type errBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
}

func TestHandler_CandidateLifecycle(t *testing.T) {
	h, _ := newServer(t)

	w := do(t, h, http.MethodPost, "/candidates", `{"nom":"Dubois","prenom":"Anne","competences":["Java","SQL"],"niveau_experience":"senior"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("POST /candidates = %d %s", w.Code, w.Body)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID header")
	}
	dubois := decode[model.Candidate](t, w)

	w = do(t, h, http.MethodPost, "/candidates", `{"nom":"Martin","prenom":"Paul","competences":"Python"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("POST /candidates = %d %s", w.Code, w.Body)
	}

	w = do(t, h, http.MethodGet, "/candidates?q=sql", "")
	res := decode[searchBody](t, w)
	if w.Code != http.StatusOK || res.Count != 1 || !res.Active || res.Items[0].ID != dubois.ID {
		t.Errorf("GET /candidates?q=sql = %d %+v", w.Code, res)
	}

	w = do(t, h, http.MethodGet, "/candidates?statut=all&niveau_experience=senior", "")
	res = decode[searchBody](t, w)
	if res.Count != 1 || !res.Active {
		t.Errorf("filter senior = %+v", res)
	}

	w = do(t, h, http.MethodGet, "/candidates?q=cobol", "")
	if body := w.Body.String(); !strings.Contains(body, `"items":[]`) {
		t.Errorf("empty result should encode items as [], got %s", body)
	}

	w = do(t, h, http.MethodPut, "/candidates/"+dubois.ID+"/sections/coordonnees", `{"ville":"Toulouse","email":"anne@example.fr"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("PUT section = %d %s", w.Code, w.Body)
	}
	if got := decode[model.Candidate](t, w); got.Ville != "Toulouse" || len(got.Competences) != 2 {
		t.Errorf("after section = %+v", got)
	}

	w = do(t, h, http.MethodPost, "/candidates/"+dubois.ID+"/notes", `{"contenu":"Très motivée","type":"entretien"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("POST notes = %d %s", w.Code, w.Body)
	}
	note := decode[model.Note](t, w)

	w = do(t, h, http.MethodGet, "/candidates/"+dubois.ID, "")
	if got := decode[model.Candidate](t, w); len(got.Notes) != 1 || got.Notes[0].ID != note.ID {
		t.Errorf("GET candidate notes = %+v", got.Notes)
	}

	w = do(t, h, http.MethodPut, "/notes/"+note.ID, `{"contenu":"Très motivée, mobile"}`)
	if w.Code != http.StatusOK {
		t.Errorf("PUT note = %d %s", w.Code, w.Body)
	}

	w = do(t, h, http.MethodDelete, "/candidates/"+dubois.ID, "")
	if w.Code != http.StatusNoContent {
		t.Errorf("DELETE candidate = %d", w.Code)
	}
	w = do(t, h, http.MethodGet, "/candidates/"+dubois.ID, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("GET deleted candidate = %d", w.Code)
	}
}

func TestHandler_Errors(t *testing.T) {
	h, f := newServer(t)
	c := f.candidate(t, "Dubois", "Anne")

	cases := []struct {
		name, method, path, body string
		code                     int
		field                    string
	}{
		{"validation", http.MethodPost, "/candidates", `{"prenom":"Anne","email":"x"}`, http.StatusBadRequest, "nom"},
		{"bad json", http.MethodPost, "/candidates", `{"nom":`, http.StatusBadRequest, ""},
		{"empty body", http.MethodPost, "/clients", ``, http.StatusBadRequest, ""},
		{"unknown section", http.MethodPut, "/candidates/" + c.ID + "/sections/salaire", `{}`, http.StatusBadRequest, "section"},
		{"not found", http.MethodGet, "/clients/nope", "", http.StatusNotFound, ""},
		{"notes of missing parent", http.MethodGet, "/mandates/nope/notes", "", http.StatusNotFound, ""},
		{"move without statut", http.MethodPost, "/applications/x/move", `{}`, http.StatusBadRequest, ""},
		{"method not allowed", http.MethodPatch, "/candidates/" + c.ID, `{}`, http.StatusMethodNotAllowed, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := do(t, h, tc.method, tc.path, tc.body)
			if w.Code != tc.code {
				t.Fatalf("%s %s = %d %s, want %d", tc.method, tc.path, w.Code, w.Body, tc.code)
			}
			if tc.field != "" {
				e := decode[errBody](t, w)
				if _, ok := e.Fields[tc.field]; !ok {
					t.Errorf("fields = %v, want %s", e.Fields, tc.field)
				}
			}
		})
	}
}

func TestHandler_PipelineAndConflicts(t *testing.T) {
	h, f := newServer(t)
	c := f.candidate(t, "Dubois", "Anne")
	cl, m := f.mandate(t)

	body := `{"candidat_id":"` + c.ID + `","mandat_id":"` + m.ID + `"}`
	w := do(t, h, http.MethodPost, "/applications", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("POST /applications = %d %s", w.Code, w.Body)
	}
	app := decode[model.Application](t, w)

	if w := do(t, h, http.MethodPost, "/applications", body); w.Code != http.StatusConflict {
		t.Errorf("duplicate application = %d", w.Code)
	}
	if w := do(t, h, http.MethodDelete, "/clients/"+cl.ID, ""); w.Code != http.StatusConflict {
		t.Errorf("delete client with mandates = %d", w.Code)
	}

	w = do(t, h, http.MethodPost, "/applications/"+app.ID+"/move", `{"statut":"placee"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("skip to placee = %d", w.Code)
	}
	w = do(t, h, http.MethodPost, "/applications/"+app.ID+"/move", `{"statut":"preselection"}`)
	if got := decode[model.Application](t, w); w.Code != http.StatusOK || got.Statut != "preselection" {
		t.Errorf("move = %d %+v", w.Code, got)
	}

	w = do(t, h, http.MethodGet, "/applications?mandat_id="+m.ID, "")
	if got := decode[[]model.Application](t, w); len(got) != 1 {
		t.Errorf("list by mandate = %+v", got)
	}
	w = do(t, h, http.MethodGet, "/mandates?client_id="+cl.ID, "")
	if got := decode[[]model.Mandate](t, w); len(got) != 1 {
		t.Errorf("list mandates by client = %+v", got)
	}
}

func TestHandler_RawApplications(t *testing.T) {
	h, f := newServer(t)
	seedRaw(t, f,
		model.RawApplication{ID: "wp1", Nom: "Petit", Prenom: "Luc", Poste: "Chef de chantier", Statut: "nouvelle", NiveauExperience: "confirme"},
		model.RawApplication{ID: "wp2", Nom: "Roux", Prenom: "Emma", Poste: "Comptable", Statut: "archivee"},
	)

	w := do(t, h, http.MethodGet, "/raw-applications?poste=Comptable", "")
	var res struct {
		Items []model.RawApplication `json:"items"`
		Count int                    `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if res.Count != 1 || res.Items[0].ID != "wp2" {
		t.Errorf("poste filter = %+v", res)
	}

	w = do(t, h, http.MethodPost, "/raw-applications/wp1/import", "")
	if w.Code != http.StatusCreated {
		t.Fatalf("import = %d %s", w.Code, w.Body)
	}
	if w := do(t, h, http.MethodPost, "/raw-applications/wp1/import", ""); w.Code != http.StatusConflict {
		t.Errorf("second import = %d", w.Code)
	}

	w = do(t, h, http.MethodPost, "/raw-applications/wp2/status", `{"statut":"nouvelle"}`)
	if got := decode[model.RawApplication](t, w); w.Code != http.StatusOK || got.Statut != "nouvelle" {
		t.Errorf("status = %d %+v", w.Code, got)
	}

	w = do(t, h, http.MethodPost, "/raw-applications/wp2/notes", `{"contenu":"CV reçu par mail"}`)
	if w.Code != http.StatusCreated {
		t.Errorf("raw note = %d %s", w.Code, w.Body)
	}
	w = do(t, h, http.MethodGet, "/raw-applications/wp2/notes", "")
	if got := decode[[]model.Note](t, w); len(got) != 1 {
		t.Errorf("raw notes = %+v", got)
	}

	if w := do(t, h, http.MethodDelete, "/raw-applications/wp2", ""); w.Code != http.StatusNoContent {
		t.Errorf("delete raw = %d", w.Code)
	}
}

func TestHandler_Vocabulary(t *testing.T) {
	h, _ := newServer(t)
	w := do(t, h, http.MethodGet, "/vocabulary", "")
	var v struct {
		Stages   []string                       `json:"stages"`
		Sections []string                       `json:"sections"`
		Options  map[string]map[string][]string `json:"options"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatal(err)
	}
	if len(v.Stages) != 6 || len(v.Sections) != 9 {
		t.Errorf("stages=%v sections=%v", v.Stages, v.Sections)
	}
	if len(v.Options["candidats"]["statut"]) != 4 {
		t.Errorf("options = %v", v.Options)
	}
}

func TestHandler_Export(t *testing.T) {
	h, f := newServer(t)
	ctx := context.Background()
	for _, nom := range []string{"Dubois", "Martin"} {
		if _, err := f.svc.CreateCandidate(ctx, model.Candidate{Nom: nom, Prenom: "X", Ville: "Lyon"}); err != nil {
			t.Fatal(err)
		}
	}

	w := do(t, h, http.MethodGet, "/candidates/export?q=dubois", "")
	if w.Code != http.StatusOK {
		t.Fatalf("export = %d %s", w.Code, w.Body)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
		t.Errorf("Content-Type = %q", ct)
	}
	xl, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	defer xl.Close()
	rows, _ := xl.GetRows("Candidats")
	if len(rows) != 2 || rows[1][0] != "Dubois" {
		t.Errorf("exported rows = %v", rows)
	}
}

func TestHandler_ExportFailureIsNotAWorkbook(t *testing.T) {
	h, f := newServer(t)
	if _, err := f.svc.CreateCandidate(context.Background(), model.Candidate{Nom: "Dubois", Prenom: "Anne"}); err != nil {
		t.Fatal(err)
	}
	restore := backoffice.SetCandidatesXLSX(func(w io.Writer, _ []model.Candidate, _ string, _ search.Filters) error {
		_, _ = w.Write([]byte("PK\x03\x04partial"))
		return errors.New("disk full")
	})
	defer restore()

	w := do(t, h, http.MethodGet, "/candidates/export", "")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("export = %d, want 500", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); strings.Contains(ct, "spreadsheetml") {
		t.Errorf("Content-Type = %q on a failed export", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); cd != "" {
		t.Errorf("Content-Disposition = %q on a failed export", cd)
	}
	if bytes.HasPrefix(w.Body.Bytes(), []byte("PK")) {
		t.Error("partial workbook bytes leaked into the error response")
	}
}

func TestHandler_RequestIDPropagates(t *testing.T) {
	h, f := newServer(t)
	r := httptest.NewRequest(http.MethodPost, "/clients", strings.NewReader(`{"nom":"Safran"}`))
	r.Header.Set("X-Request-ID", "req-42")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if w.Code != http.StatusCreated || w.Header().Get("X-Request-ID") != "req-42" {
		t.Fatalf("POST /clients = %d, X-Request-ID %q", w.Code, w.Header().Get("X-Request-ID"))
	}
	evs := f.rec.Events()
	if len(evs) == 0 || evs[len(evs)-1].RequestID != "req-42" {
		t.Errorf("event request id = %+v", evs)
	}
}
