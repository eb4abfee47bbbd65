// Package apitest provides an in-memory membership API for tests.
package apitest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/jellehierck/Streeplijst3/pkg/model"
)

const BasePath = "/streeplijst/v30"

type Server struct {
	*httptest.Server

	mu       sync.Mutex
	members  map[string]model.Member
	folders  []model.Folder
	products map[int][]model.Product
	invoices []model.SaleInvoice
	posts    []model.SaleRequest

	// SaleStatus, when set, is returned for every posted sale.
	SaleStatus int
	// Delay is applied before every response.
	Delay time.Duration
}

// NewServer starts a fake API which is closed when the test ends.
func NewServer(t testing.TB) *Server {
	s := &Server{
		members:  make(map[string]model.Member),
		products: make(map[int][]model.Product),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET "+BasePath+"/ping", s.ping)
	mux.HandleFunc("GET "+BasePath+"/members/username/{username}", s.memberByUsername)
	mux.HandleFunc("GET "+BasePath+"/folders", s.listFolders)
	mux.HandleFunc("GET "+BasePath+"/products/folder/{folderID}", s.productsByFolder)
	mux.HandleFunc("POST "+BasePath+"/sales", s.postSale)
	mux.HandleFunc("GET "+BasePath+"/sales/{username}", s.salesByUsername)

	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)

	return s
}

// BaseURL is the API base URL including the version.
func (s *Server) BaseURL() string {
	return s.Server.URL + BasePath
}

func (s *Server) AddMember(m model.Member) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members[m.Username] = m
}

func (s *Server) AddFolder(f model.Folder, products ...model.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.folders = append(s.folders, f)
	s.products[f.ID] = append(s.products[f.ID], products...)
}

// Posts returns every sale request received so far.
func (s *Server) Posts() []model.SaleRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.SaleRequest(nil), s.posts...)
}

func (s *Server) ping(w http.ResponseWriter, r *http.Request) {
	s.write(w, http.StatusOK, map[string]string{"message": "Ping to local API v30 successful"})
}

func (s *Server) memberByUsername(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	m, ok := s.members[r.PathValue("username")]
	s.mu.Unlock()

	if !ok {
		s.write(w, http.StatusNotFound, map[string]string{"message": "Member not found"})
		return
	}
	s.write(w, http.StatusOK, m)
}

func (s *Server) listFolders(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	fs := append([]model.Folder{}, s.folders...)
	s.mu.Unlock()

	s.write(w, http.StatusOK, fs)
}

func (s *Server) productsByFolder(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("folderID"))
	if err != nil {
		s.write(w, http.StatusBadRequest, map[string]string{"message": "folder id must be a number"})
		return
	}

	s.mu.Lock()
	ps, ok := s.products[id]
	ps = append([]model.Product{}, ps...)
	s.mu.Unlock()

	if !ok {
		s.write(w, http.StatusNotFound, map[string]string{"message": "Folder not found"})
		return
	}
	s.write(w, http.StatusOK, ps)
}

func (s *Server) postSale(w http.ResponseWriter, r *http.Request) {
	var req model.SaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.write(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
		return
	}

	s.mu.Lock()
	s.posts = append(s.posts, req)
	status := s.SaleStatus
	s.mu.Unlock()

	if status != 0 && status != http.StatusOK {
		s.write(w, status, map[string]string{"message": "sale refused"})
		return
	}

	s.mu.Lock()
	inv := s.invoice(req)
	s.invoices = append(s.invoices, inv)
	s.mu.Unlock()

	s.write(w, http.StatusOK, inv)
}

func (s *Server) salesByUsername(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.members[r.PathValue("username")]
	if !ok {
		s.encode(w, http.StatusNotFound, map[string]string{"message": "Member not found"})
		return
	}

	invs := make([]model.SaleInvoice, 0)
	for _, inv := range s.invoices {
		if inv.MemberID == m.ID {
			invs = append(invs, inv)
		}
	}
	s.encode(w, http.StatusOK, invs)
}

// invoice must be called with mu held.
func (s *Server) invoice(req model.SaleRequest) model.SaleInvoice {
	now := model.Timestamp{Time: time.Now().UTC().Truncate(time.Second)}
	inv := model.SaleInvoice{
		ID:            len(s.invoices) + 1,
		MemberID:      req.MemberID,
		InvoiceDate:   now,
		InvoiceSource: "streeplijst",
		InvoiceType:   "sale",
		Created:       now,
		Modified:      now,
	}

	for _, it := range req.Items {
		p := s.productByOffer(it.ProductOfferID)
		inv.Items = append(inv.Items, model.SaleInvoiceItem{
			Name:           p.Name,
			Price:          p.Price,
			ProductOfferID: it.ProductOfferID,
			Quantity:       it.Quantity,
			SaleInvoiceID:  inv.ID,
		})
		inv.PriceUnpaid += p.Price.Times(it.Quantity)
	}

	return inv
}

func (s *Server) productByOffer(offerID int) model.Product {
	for _, ps := range s.products {
		for _, p := range ps {
			if p.ProductOfferID == offerID {
				return p
			}
		}
	}
	return model.Product{ProductOfferID: offerID}
}

func (s *Server) write(w http.ResponseWriter, status int, v any) {
	if s.Delay > 0 {
		time.Sleep(s.Delay)
	}
	s.encode(w, status, v)
}

func (s *Server) encode(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
