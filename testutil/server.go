package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Credentials accepted by the fake server.
const (
	FakeUsername = "user@nig.test"
	FakePassword = "secret"
	FakeTOTP     = "123456"
	FakeToken    = "fake-token"
	FakeIP       = "10.0.0.1"
)

// FakeFile is a file uploaded to a fake dataset.
type FakeFile struct {
	Name         string
	MimeType     string
	Size         int64
	LastModified string
	Status       string
	Data         []byte
	Ranges       []string
}

// FakeDataset is a dataset held by the fake server.
type FakeDataset struct {
	Name      string
	UUID      string
	Status    string
	Phenotype string
	Technical string
	Files     []*FakeFile
}

// FakePhenotype is a phenotype held by the fake server.
type FakePhenotype struct {
	Name       string
	UUID       string
	Sex        string
	Age        string
	BirthPlace string
	HPO        string
}

// FakeTechnical is a technical held by the fake server.
type FakeTechnical struct {
	Name           string
	UUID           string
	SequencingDate string
	Platform       string
	EnrichmentKit  string
}

// FakeStudy is a study held by the fake server.
type FakeStudy struct {
	Name       string
	UUID       string
	Datasets   []*FakeDataset
	Phenotypes []*FakePhenotype
	Technicals []*FakeTechnical
}

// FakeServer is an in-memory NIG API served over TLS.
//
// Inspection helpers return live pointers; call them once the client is done.
type FakeServer struct {
	*httptest.Server

	mu            sync.Mutex
	seq           int
	studies       []*FakeStudy
	relationships [][2]string
	birthPlaces   map[string]string
	schema        []map[string]any
	statuses      map[string]int
	requests      []string
	ip            string
	dropChunks    int
	ipAfterDrop   string
}

// NewFakeServer starts a fake API server closed with the test.
func NewFakeServer(t *testing.T) *FakeServer {
	t.Helper()

	s := &FakeServer{
		birthPlaces: map[string]string{"1": "Italy", "2": "France"},
		statuses:    make(map[string]int),
		ip:          FakeIP,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/ip", s.handle(s.publicIP))
	r.Post("/auth/login", s.handle(s.login))
	r.Route("/api", func(r chi.Router) {
		r.Use(s.authenticate)
		r.Get("/study", s.handle(s.listStudies))
		r.Post("/study", s.handle(s.createStudy))
		r.Get("/study/{study}/datasets", s.handle(s.listDatasets))
		r.Post("/study/{study}/datasets", s.handle(s.createDataset))
		r.Get("/study/{study}/phenotypes", s.handle(s.listPhenotypes))
		r.Post("/study/{study}/phenotypes", s.handle(s.createPhenotype))
		r.Get("/study/{study}/technicals", s.handle(s.listTechnicals))
		r.Post("/study/{study}/technicals", s.handle(s.createTechnical))
		r.Post("/phenotype/{child}/relationships/{parent}", s.handle(s.createRelationship))
		r.Put("/dataset/{dataset}", s.handle(s.updateDataset))
		r.Patch("/dataset/{dataset}", s.handle(s.updateDataset))
		r.Get("/dataset/{dataset}/files", s.handle(s.listFiles))
		r.Post("/dataset/{dataset}/files/upload", s.handle(s.initUpload))
		r.Put("/dataset/{dataset}/files/upload/{name}", s.handle(s.uploadChunk))
	})

	s.Server = httptest.NewTLSServer(r)
	t.Cleanup(s.Close)
	return s
}

// IPServiceURL is the address of the fake public IP service.
func (s *FakeServer) IPServiceURL() string {
	return s.URL + "/ip"
}

// SetIP changes the address reported by the IP service.
func (s *FakeServer) SetIP(ip string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ip = ip
}

// DropChunks makes the next n chunk requests fail by closing the connection.
// When ipAfter is set the reported public IP switches to it on the first drop.
func (s *FakeServer) DropChunks(n int, ipAfter string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropChunks = n
	s.ipAfterDrop = ipAfter
}

// SetSchema replaces the phenotype schema returned to get_schema requests.
func (s *FakeServer) SetSchema(fields ...map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schema = fields
}

// SetStatus forces the status of a route, e.g. "POST /api/study".
func (s *FakeServer) SetStatus(route string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[route] = status
}

// Requests returns the routes called so far.
func (s *FakeServer) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

// Relationships returns the child/parent UUID pairs created so far.
func (s *FakeServer) Relationships() [][2]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][2]string(nil), s.relationships...)
}

// AddStudy seeds a study and returns its UUID.
func (s *FakeServer) AddStudy(name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := &FakeStudy{Name: name, UUID: s.nextUUID("study")}
	s.studies = append(s.studies, st)
	return st.UUID
}

// AddDataset seeds a dataset. files maps a file name to its status.
func (s *FakeServer) AddDataset(studyUUID, name, status string, files map[string]string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.studyByUUID(studyUUID)
	d := &FakeDataset{Name: name, UUID: s.nextUUID("dataset"), Status: status}
	for f, fileStatus := range files {
		d.Files = append(d.Files, &FakeFile{Name: f, Status: fileStatus})
	}
	st.Datasets = append(st.Datasets, d)
	return d.UUID
}

// AddPhenotype seeds a phenotype and returns its UUID.
func (s *FakeServer) AddPhenotype(studyUUID, name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.studyByUUID(studyUUID)
	p := &FakePhenotype{Name: name, UUID: s.nextUUID("phenotype")}
	st.Phenotypes = append(st.Phenotypes, p)
	return p.UUID
}

// AddTechnical seeds a technical and returns its UUID.
func (s *FakeServer) AddTechnical(studyUUID, name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.studyByUUID(studyUUID)
	tech := &FakeTechnical{Name: name, UUID: s.nextUUID("technical")}
	st.Technicals = append(st.Technicals, tech)
	return tech.UUID
}

// Study returns the study called name.
func (s *FakeServer) Study(name string) (*FakeStudy, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, st := range s.studies {
		if st.Name == name {
			return st, true
		}
	}
	return nil, false
}

// Dataset returns the dataset called name in study.
func (st *FakeStudy) Dataset(name string) (*FakeDataset, bool) {
	for _, d := range st.Datasets {
		if d.Name == name {
			return d, true
		}
	}
	return nil, false
}

// Phenotype returns the phenotype called name in study.
func (st *FakeStudy) Phenotype(name string) (*FakePhenotype, bool) {
	for _, p := range st.Phenotypes {
		if p.Name == name {
			return p, true
		}
	}
	return nil, false
}

// File returns the file called name of the dataset.
func (d *FakeDataset) File(name string) (*FakeFile, bool) {
	for _, f := range d.Files {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

// handle records the call and applies forced statuses. Handlers run with the
// server lock held.
func (s *FakeServer) handle(h func(w http.ResponseWriter, r *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		route := r.Method + " " + chi.RouteContext(r.Context()).RoutePattern()

		s.mu.Lock()
		defer s.mu.Unlock()

		s.requests = append(s.requests, route)
		if status, ok := s.statuses[route]; ok {
			http.Error(w, "forced failure", status)
			return
		}
		h(w, r)
	}
}

func (s *FakeServer) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+FakeToken {
			http.Error(w, "missing or invalid token", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *FakeServer) publicIP(w http.ResponseWriter, _ *http.Request) {
	fmt.Fprint(w, s.ip)
}

func (s *FakeServer) login(w http.ResponseWriter, r *http.Request) {
	if r.FormValue("username") != FakeUsername ||
		r.FormValue("password") != FakePassword ||
		r.FormValue("totp_code") != FakeTOTP {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, FakeToken)
}

func (s *FakeServer) listStudies(w http.ResponseWriter, _ *http.Request) {
	out := []map[string]string{}
	for _, st := range s.studies {
		out = append(out, map[string]string{"name": st.Name, "uuid": st.UUID})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *FakeServer) createStudy(w http.ResponseWriter, r *http.Request) {
	st := &FakeStudy{Name: r.FormValue("name"), UUID: s.nextUUID("study")}
	s.studies = append(s.studies, st)
	writeJSON(w, http.StatusOK, st.UUID)
}

func (s *FakeServer) listDatasets(w http.ResponseWriter, r *http.Request) {
	st, ok := s.study(w, r)
	if !ok {
		return
	}
	out := []map[string]string{}
	for _, d := range st.Datasets {
		out = append(out, map[string]string{"name": d.Name, "uuid": d.UUID, "status": d.Status})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *FakeServer) createDataset(w http.ResponseWriter, r *http.Request) {
	st, ok := s.study(w, r)
	if !ok {
		return
	}
	d := &FakeDataset{Name: r.FormValue("name"), UUID: s.nextUUID("dataset")}
	st.Datasets = append(st.Datasets, d)
	writeJSON(w, http.StatusOK, d.UUID)
}

func (s *FakeServer) listPhenotypes(w http.ResponseWriter, r *http.Request) {
	st, ok := s.study(w, r)
	if !ok {
		return
	}
	out := []map[string]string{}
	for _, p := range st.Phenotypes {
		out = append(out, map[string]string{"name": p.Name, "uuid": p.UUID})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *FakeServer) createPhenotype(w http.ResponseWriter, r *http.Request) {
	st, ok := s.study(w, r)
	if !ok {
		return
	}
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var req struct {
			GetSchema bool `json:"get_schema"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !req.GetSchema {
			http.Error(w, "bad schema request", http.StatusBadRequest)
			return
		}
		schema := s.schema
		if schema == nil {
			schema = []map[string]any{
				{"key": "name"},
				{"key": "sex", "options": map[string]string{"male": "male", "female": "female"}},
				{"key": "age", "options": map[string]int{"min": 0, "max": 150}},
				{"key": "hpo", "options": []string{}},
				{"key": "birth_place", "options": s.birthPlaces},
			}
		}
		writeJSON(w, http.StatusOK, schema)
		return
	}
	p := &FakePhenotype{
		Name:       r.FormValue("name"),
		UUID:       s.nextUUID("phenotype"),
		Sex:        r.FormValue("sex"),
		Age:        r.FormValue("age"),
		BirthPlace: r.FormValue("birth_place"),
		HPO:        r.FormValue("hpo"),
	}
	st.Phenotypes = append(st.Phenotypes, p)
	writeJSON(w, http.StatusOK, p.UUID)
}

func (s *FakeServer) listTechnicals(w http.ResponseWriter, r *http.Request) {
	st, ok := s.study(w, r)
	if !ok {
		return
	}
	out := []map[string]string{}
	for _, tech := range st.Technicals {
		out = append(out, map[string]string{"name": tech.Name, "uuid": tech.UUID})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *FakeServer) createTechnical(w http.ResponseWriter, r *http.Request) {
	st, ok := s.study(w, r)
	if !ok {
		return
	}
	tech := &FakeTechnical{
		Name:           r.FormValue("name"),
		UUID:           s.nextUUID("technical"),
		SequencingDate: r.FormValue("sequencing_date"),
		Platform:       r.FormValue("platform"),
		EnrichmentKit:  r.FormValue("enrichment_kit"),
	}
	st.Technicals = append(st.Technicals, tech)
	writeJSON(w, http.StatusOK, tech.UUID)
}

func (s *FakeServer) createRelationship(w http.ResponseWriter, r *http.Request) {
	child, parent := chi.URLParam(r, "child"), chi.URLParam(r, "parent")
	if s.phenotypeByUUID(child) == nil || s.phenotypeByUUID(parent) == nil {
		http.Error(w, "phenotype not found", http.StatusNotFound)
		return
	}
	s.relationships = append(s.relationships, [2]string{child, parent})
	writeJSON(w, http.StatusOK, "")
}

func (s *FakeServer) updateDataset(w http.ResponseWriter, r *http.Request) {
	d, ok := s.dataset(w, r)
	if !ok {
		return
	}
	if v := r.FormValue("phenotype"); v != "" {
		d.Phenotype = v
	}
	if v := r.FormValue("technical"); v != "" {
		d.Technical = v
	}
	if v := r.FormValue("status"); v != "" {
		d.Status = v
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *FakeServer) listFiles(w http.ResponseWriter, r *http.Request) {
	d, ok := s.dataset(w, r)
	if !ok {
		return
	}
	out := []map[string]string{}
	for _, f := range d.Files {
		out = append(out, map[string]string{"name": f.Name, "status": f.Status})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *FakeServer) initUpload(w http.ResponseWriter, r *http.Request) {
	d, ok := s.dataset(w, r)
	if !ok {
		return
	}
	size, err := strconv.ParseInt(r.FormValue("size"), 10, 64)
	if err != nil {
		http.Error(w, "invalid size", http.StatusBadRequest)
		return
	}
	d.Files = append(d.Files, &FakeFile{
		Name:         r.FormValue("name"),
		MimeType:     r.FormValue("mimeType"),
		Size:         size,
		LastModified: r.FormValue("lastModified"),
		Status:       "importing",
	})
	w.WriteHeader(http.StatusCreated)
}

func (s *FakeServer) uploadChunk(w http.ResponseWriter, r *http.Request) {
	d, ok := s.dataset(w, r)
	if !ok {
		return
	}
	f, ok := d.File(chi.URLParam(r, "name"))
	if !ok {
		http.Error(w, "upload not initialized", http.StatusNotFound)
		return
	}
	data, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if s.dropChunks > 0 {
		s.dropChunks--
		if s.ipAfterDrop != "" {
			s.ip = s.ipAfterDrop
		}
		if hj, ok := w.(http.Hijacker); ok {
			if conn, _, err := hj.Hijack(); err == nil {
				conn.Close()
				return
			}
		}
		http.Error(w, "dropped", http.StatusServiceUnavailable)
		return
	}

	contentRange := r.Header.Get("Content-Range")
	var start, end, total int64
	if _, err := fmt.Sscanf(contentRange, "bytes %d-%d/%d", &start, &end, &total); err != nil || total != f.Size {
		http.Error(w, "invalid Content-Range", http.StatusRequestedRangeNotSatisfiable)
		return
	}
	if start != int64(len(f.Data)) || end != start+int64(len(data)) {
		http.Error(w, "unexpected range "+contentRange, http.StatusRequestedRangeNotSatisfiable)
		return
	}
	f.Ranges = append(f.Ranges, contentRange)
	f.Data = append(f.Data, data...)

	if int64(len(f.Data)) >= f.Size {
		f.Status = "uploaded"
		w.WriteHeader(http.StatusOK)
		return
	}
	w.WriteHeader(http.StatusPartialContent)
}

func (s *FakeServer) study(w http.ResponseWriter, r *http.Request) (*FakeStudy, bool) {
	st := s.studyByUUID(chi.URLParam(r, "study"))
	if st == nil {
		http.Error(w, "study not found", http.StatusNotFound)
		return nil, false
	}
	return st, true
}

func (s *FakeServer) dataset(w http.ResponseWriter, r *http.Request) (*FakeDataset, bool) {
	id := chi.URLParam(r, "dataset")
	for _, st := range s.studies {
		for _, d := range st.Datasets {
			if d.UUID == id {
				return d, true
			}
		}
	}
	http.Error(w, "dataset not found", http.StatusNotFound)
	return nil, false
}

func (s *FakeServer) studyByUUID(id string) *FakeStudy {
	for _, st := range s.studies {
		if st.UUID == id {
			return st
		}
	}
	return nil
}

func (s *FakeServer) phenotypeByUUID(id string) *FakePhenotype {
	for _, st := range s.studies {
		for _, p := range st.Phenotypes {
			if p.UUID == id {
				return p
			}
		}
	}
	return nil
}

func (s *FakeServer) nextUUID(kind string) string {
	s.seq++
	return fmt.Sprintf("%s-%04d", kind, s.seq)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
