// Package hubspottest provides an in-memory HTTP twin of the HubSpot CRM v3 objects API for tests.
package hubspottest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/tidwall/gjson"
)

// Operations recorded by the twin.
const (
	OpAssociate = "associate"
	OpCreate    = "create"
	OpSearch    = "search"
	OpUpdate    = "update"
)

// Object is a stored CRM object.
type Object struct {
	ID         string            `json:"id"`
	Properties map[string]string `json:"properties"`
	CreatedAt  string            `json:"createdAt"`
	UpdatedAt  string            `json:"updatedAt"`
}

// Association links a deal to a contact.
type Association struct {
	ContactID string
	DealID    string
	TypeID    int
}

// Request is a request received by the twin.
type Request struct {
	// Body is the raw request body.
	Body string

	// Object is the object type segment of the path.
	Object string

	// Op is the operation, one of the Op constants.
	Op string
}

type fault struct {
	object string
	op     string
}

// Server is a HubSpot twin.
type Server struct {
	*httptest.Server

	mu           sync.Mutex
	associations []Association
	faults       map[fault]int
	nextID       int
	objects      map[string]map[string]*Object
	requests     []Request
	token        string
}

// New starts a twin that accepts token as its Bearer credential. Call Close when done.
func New(token string) *Server {
	s := &Server{
		faults:  map[fault]int{},
		nextID:  1000,
		objects: map[string]map[string]*Object{},
		token:   token,
	}

	r := chi.NewRouter()
	r.Use(s.requireBearer)
	r.Post("/{object}/search", s.handle(OpSearch, s.search))
	r.Post("/{object}", s.handle(OpCreate, s.create))
	r.Patch("/{object}/{id}", s.handle(OpUpdate, s.update))
	r.Put("/deals/{dealID}/associations/contacts/{contactID}/{typeID}", s.handle(OpAssociate, s.associate))

	s.Server = httptest.NewServer(r)
	return s
}

// Seed stores an object directly and returns its ID.
func (s *Server) Seed(object string, props map[string]string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insert(object, props).ID
}

// Fail makes every op on object respond with status. Use "" to match any object.
// A status of 0 clears the fault.
func (s *Server) Fail(op string, object string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := fault{object: object, op: op}
	if status == 0 {
		delete(s.faults, key)
		return
	}
	s.faults[key] = status
}

// Objects returns copies of the stored objects of a type, ordered by ID.
func (s *Server) Objects(object string) []Object {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]Object, 0, len(s.objects[object]))
	for _, obj := range s.objects[object] {
		result = append(result, copyObject(obj))
	}
	sort.Slice(result, func(i, j int) bool { return idLess(result[i].ID, result[j].ID) })
	return result
}

// Associations returns the stored deal-to-contact associations.
func (s *Server) Associations() []Association {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Association(nil), s.associations...)
}

// Requests returns the requests received so far, in arrival order.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// Count returns how many requests performed op on object. Use "" to match any object.
func (s *Server) Count(op string, object string) int {
	n := 0
	for _, req := range s.Requests() {
		if req.Op == op && (object == "" || req.Object == object) {
			n++
		}
	}
	return n
}

func (s *Server) requireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+s.token {
			writeError(w, http.StatusUnauthorized, "Authentication credentials not found")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// handle records the request, applies any injected fault, and then runs next.
func (s *Server) handle(op string, next func(w http.ResponseWriter, r *http.Request, body string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		object := chi.URLParam(r, "object")
		if op == OpAssociate {
			object = "deals"
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			writeError(w, http.StatusBadRequest, "reading body")
			return
		}

		s.mu.Lock()
		s.requests = append(s.requests, Request{Body: string(body), Object: object, Op: op})
		status, ok := s.faults[fault{object: object, op: op}]
		if !ok {
			status = s.faults[fault{op: op}]
		}
		s.mu.Unlock()

		if status != 0 {
			writeError(w, status, "injected fault")
			return
		}
		next(w, r, string(body))
	}
}

func (s *Server) search(w http.ResponseWriter, r *http.Request, body string) {
	object := chi.URLParam(r, "object")
	if !gjson.Valid(body) {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	filters := gjson.Get(body, "filterGroups.0.filters").Array()

	s.mu.Lock()
	var matched []Object
	for _, obj := range s.objects[object] {
		if matches(obj, filters) {
			matched = append(matched, copyObject(obj))
		}
	}
	s.mu.Unlock()

	sort.Slice(matched, func(i, j int) bool { return idLess(matched[i].ID, matched[j].ID) })
	if matched == nil {
		matched = []Object{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"total": len(matched), "results": matched})
}

func (s *Server) create(w http.ResponseWriter, r *http.Request, body string) {
	props, ok := parseProperties(body)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid properties")
		return
	}

	s.mu.Lock()
	obj := copyObject(s.insert(chi.URLParam(r, "object"), props))
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, obj)
}

func (s *Server) update(w http.ResponseWriter, r *http.Request, body string) {
	props, ok := parseProperties(body)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid properties")
		return
	}

	s.mu.Lock()
	obj, found := s.objects[chi.URLParam(r, "object")][chi.URLParam(r, "id")]
	if found {
		for k, v := range props {
			obj.Properties[k] = v
		}
		obj.UpdatedAt = now()
	}
	var result Object
	if found {
		result = copyObject(obj)
	}
	s.mu.Unlock()

	if !found {
		writeError(w, http.StatusNotFound, "resource not found")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) associate(w http.ResponseWriter, r *http.Request, _ string) {
	typeID, err := strconv.Atoi(chi.URLParam(r, "typeID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid association type")
		return
	}
	dealID := chi.URLParam(r, "dealID")
	contactID := chi.URLParam(r, "contactID")

	s.mu.Lock()
	_, dealFound := s.objects["deals"][dealID]
	_, contactFound := s.objects["contacts"][contactID]
	if dealFound && contactFound {
		s.associations = append(s.associations, Association{ContactID: contactID, DealID: dealID, TypeID: typeID})
	}
	s.mu.Unlock()

	if !dealFound || !contactFound {
		writeError(w, http.StatusNotFound, "object not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": dealID})
}

// insert stores a new object. Callers must hold s.mu.
func (s *Server) insert(object string, props map[string]string) *Object {
	s.nextID++
	ts := now()
	obj := &Object{
		ID:         strconv.Itoa(s.nextID),
		Properties: map[string]string{},
		CreatedAt:  ts,
		UpdatedAt:  ts,
	}
	for k, v := range props {
		obj.Properties[k] = v
	}

	if s.objects[object] == nil {
		s.objects[object] = map[string]*Object{}
	}
	s.objects[object][obj.ID] = obj
	return obj
}

func matches(obj *Object, filters []gjson.Result) bool {
	for _, f := range filters {
		if f.Get("operator").String() != "EQ" {
			return false
		}
		if obj.Properties[f.Get("propertyName").String()] != f.Get("value").String() {
			return false
		}
	}
	return true
}

func parseProperties(body string) (map[string]string, bool) {
	if !gjson.Valid(body) {
		return nil, false
	}
	props := gjson.Get(body, "properties")
	if !props.IsObject() {
		return nil, false
	}

	result := map[string]string{}
	props.ForEach(func(key, value gjson.Result) bool {
		result[key.String()] = value.String()
		return true
	})
	return result, true
}

func copyObject(obj *Object) Object {
	c := *obj
	c.Properties = make(map[string]string, len(obj.Properties))
	for k, v := range obj.Properties {
		c.Properties[k] = v
	}
	return c
}

func idLess(a, b string) bool {
	ai, _ := strconv.Atoi(a)
	bi, _ := strconv.Atoi(b)
	return ai < bi
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"status": "error", "message": message})
}
