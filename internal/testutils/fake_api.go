package testutils

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/aaravmahajanofficial/productboard/internal/models"
)

// FakeAPI is an in-memory /api/products server for tests.
type FakeAPI struct {
	Server *httptest.Server

	mu       sync.RWMutex
	products []models.Product
	nextID   int
	calls    int
	now      func() time.Time
	failNext int
}

func NewFakeAPI() *FakeAPI {
	api := &FakeAPI{
		nextID: 1,
		now:    func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) },
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/products", api.list)
	mux.HandleFunc("POST /api/products", api.create)
	mux.HandleFunc("PUT /api/products/{id}", api.update)
	mux.HandleFunc("DELETE /api/products/{id}", api.remove)

	api.Server = httptest.NewServer(api.countCalls(mux))

	return api
}

func (a *FakeAPI) URL() string {
	return a.Server.URL
}

func (a *FakeAPI) Close() {
	a.Server.Close()
}

// Calls is the number of requests received so far.
func (a *FakeAPI) Calls() int {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return a.calls
}

// FailNext makes the next request answer with the given status.
func (a *FakeAPI) FailNext(status int) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.failNext = status
}

// Seed stores products as if they had been created through the API.
func (a *FakeAPI) Seed(names ...string) []models.Product {
	a.mu.Lock()
	defer a.mu.Unlock()

	seeded := make([]models.Product, 0, len(names))
	for _, name := range names {
		seeded = append(seeded, a.insert(models.ProductPayload{Name: name, Weight: 1, Price: 1}))
	}

	return seeded
}

// Products returns a copy of the stored products.
func (a *FakeAPI) Products() []models.Product {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return append([]models.Product(nil), a.products...)
}

func (a *FakeAPI) countCalls(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a.mu.Lock()
		a.calls++
		status := a.failNext
		a.failNext = 0
		a.mu.Unlock()

		if status != 0 {
			http.Error(w, `{"message":"injected failure"}`, status)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (a *FakeAPI) insert(p models.ProductPayload) models.Product {
	product := models.Product{
		ID:        fmt.Sprintf("p%03d", a.nextID),
		Name:      p.Name,
		Weight:    p.Weight,
		Price:     p.Price,
		CreatedAt: a.now().Add(time.Duration(a.nextID) * time.Minute),
	}
	a.nextID++
	a.products = append(a.products, product)

	return product
}

func (a *FakeAPI) list(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, a.Products())
}

func (a *FakeAPI) create(w http.ResponseWriter, r *http.Request) {
	var payload models.ProductPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	a.mu.Lock()
	product := a.insert(payload)
	a.mu.Unlock()

	writeJSON(w, http.StatusCreated, product)
}

func (a *FakeAPI) update(w http.ResponseWriter, r *http.Request) {
	var payload models.ProductPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	for i, p := range a.products {
		if p.ID == r.PathValue("id") {
			p.Name, p.Weight, p.Price = payload.Name, payload.Weight, payload.Price
			a.products[i] = p
			writeJSON(w, http.StatusOK, p)
			return
		}
	}

	http.Error(w, `{"message":"not found"}`, http.StatusNotFound)
}

func (a *FakeAPI) remove(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for i, p := range a.products {
		if p.ID == r.PathValue("id") {
			a.products = append(a.products[:i], a.products[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}

	http.Error(w, `{"message":"not found"}`, http.StatusNotFound)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
