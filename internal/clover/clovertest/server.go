// Package clovertest provides an in-memory HTTP twin of the Clover merchant API for tests.
package clovertest

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/tidwall/gjson"

	"github.com/peteski22/cloverbridge/internal/entity"
)

// Request is a request received by the twin.
type Request struct {
	// Path is the request path.
	Path string

	// Query is the parsed query string.
	Query url.Values
}

// Server is a Clover twin serving one merchant.
type Server struct {
	*httptest.Server

	mu         sync.Mutex
	elements   map[string][]string
	faults     map[string]int
	merchantID string
	requests   []Request
	token      string
}

// New starts a twin that accepts token as its Bearer credential. Call Close when done.
func New(merchantID, token string) *Server {
	s := &Server{
		elements:   map[string][]string{},
		faults:     map[string]int{},
		merchantID: merchantID,
		token:      token,
	}

	r := chi.NewRouter()
	r.Use(s.recordRequest)
	r.Use(s.requireBearer)
	r.Route("/{merchantID}", func(r chi.Router) {
		r.Use(s.requireMerchant)
		r.Get("/customers/{customerID}", s.getCustomer)
		r.Get("/{resource}", s.listElements)
	})

	s.Server = httptest.NewServer(r)
	return s
}

// Seed appends raw JSON elements to a resource list (customers, items, orders or payments).
func (s *Server) Seed(resource string, raw ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.elements[resource] = append(s.elements[resource], raw...)
}

// Fail makes every request whose path ends with suffix respond with status.
// A status of 0 clears the fault.
func (s *Server) Fail(suffix string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == 0 {
		delete(s.faults, suffix)
		return
	}
	s.faults[suffix] = status
}

// Requests returns the requests received so far, in arrival order.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// RequestsTo returns the requests whose path ends with suffix.
func (s *Server) RequestsTo(suffix string) []Request {
	var matched []Request
	for _, req := range s.Requests() {
		if strings.HasSuffix(req.Path, suffix) {
			matched = append(matched, req)
		}
	}
	return matched
}

func (s *Server) recordRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, Request{Path: r.URL.Path, Query: r.URL.Query()})
		status := 0
		for suffix, code := range s.faults {
			if strings.HasSuffix(r.URL.Path, suffix) {
				status = code
				break
			}
		}
		s.mu.Unlock()

		if status != 0 {
			writeError(w, status, "injected fault")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+s.token {
			writeError(w, http.StatusUnauthorized, "401 Unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireMerchant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "merchantID") != s.merchantID {
			writeError(w, http.StatusNotFound, "merchant not found")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) listElements(w http.ResponseWriter, r *http.Request) {
	resource := chi.URLParam(r, "resource")

	s.mu.Lock()
	all, ok := s.elements[resource]
	all = append([]string(nil), all...)
	s.mu.Unlock()
	if !ok && !knownResource(resource) {
		writeError(w, http.StatusNotFound, "unknown resource")
		return
	}

	field, after, hasFilter := parseFilter(r.URL.Query().Get("filter"))

	limit := len(all)
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	page := make([]string, 0, limit)
	for _, raw := range all {
		if len(page) >= limit {
			break
		}
		if hasFilter && entity.CompareTokens(gjson.Get(raw, field).String(), after) <= 0 {
			continue
		}
		page = append(page, raw)
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"elements":[` + strings.Join(page, ",") + `]}`))
}

func (s *Server) getCustomer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "customerID")

	s.mu.Lock()
	customers := append([]string(nil), s.elements["customers"]...)
	s.mu.Unlock()

	for _, raw := range customers {
		if gjson.Get(raw, "id").String() == id {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(raw))
			return
		}
	}
	writeError(w, http.StatusNotFound, "customer not found")
}

// parseFilter splits a "field>value" filter expression.
func parseFilter(filter string) (string, string, bool) {
	field, value, ok := strings.Cut(filter, ">")
	if !ok || field == "" {
		return "", "", false
	}
	return field, value, true
}

func knownResource(resource string) bool {
	switch resource {
	case "customers", "items", "orders", "payments":
		return true
	default:
		return false
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"message":` + strconv.Quote(message) + `}`))
}
