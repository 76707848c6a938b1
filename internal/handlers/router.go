package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/xelth-com/stockmaster/internal/ai"
	"github.com/xelth-com/stockmaster/internal/buildinfo"
	"github.com/xelth-com/stockmaster/internal/ledger"
	"github.com/xelth-com/stockmaster/internal/live"
	"github.com/xelth-com/stockmaster/internal/middleware"
	"github.com/xelth-com/stockmaster/internal/store"
	"github.com/xelth-com/stockmaster/internal/websocket"
	"go.uber.org/zap"
)

// maxBodyBytes caps request bodies
const maxBodyBytes = 1 << 20

// Deps are the services the router dispatches to
type Deps struct {
	Store     store.Store
	Mirror    *live.Mirror
	Mutator   *ledger.Mutator
	Assistant *ai.Assistant
	Hub       *websocket.Hub
	Auth      *middleware.Authenticator
	Location  *time.Location
	Now       func() time.Time
}

// Router wraps the mux router and the services behind it
type Router struct {
	*mux.Router
	store     store.Store
	mirror    *live.Mirror
	mutator   *ledger.Mutator
	assistant *ai.Assistant
	hub       *websocket.Hub
	auth      *middleware.Authenticator
	loc       *time.Location
	now       func() time.Time
	log       *zap.SugaredLogger
}

// NewRouter creates a new HTTP router with all routes
func NewRouter(d Deps) *Router {
	r := &Router{
		Router:    mux.NewRouter(),
		store:     d.Store,
		mirror:    d.Mirror,
		mutator:   d.Mutator,
		assistant: d.Assistant,
		hub:       d.Hub,
		auth:      d.Auth,
		loc:       d.Location,
		now:       d.Now,
		log:       zap.S().Named("handlers"),
	}
	if r.loc == nil {
		r.loc = time.UTC
	}
	if r.now == nil {
		r.now = time.Now
	}
	r.Use(middleware.Recovery, middleware.Logger)

	// Health check endpoint
	r.HandleFunc("/health", r.healthCheck).Methods("GET")

	// Auth routes
	auth := r.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/register", r.register).Methods("POST")
	auth.HandleFunc("/login", r.login).Methods("POST")
	auth.HandleFunc("/logout", r.logout).Methods("POST")

	// Realtime snapshots
	if r.hub != nil {
		r.HandleFunc("/ws", r.serveWs).Methods("GET")
	}

	// API routes (protected)
	api := r.PathPrefix("/api").Subrouter()
	api.Use(r.auth.Middleware)
	api.HandleFunc("/me", r.me).Methods("GET")

	api.HandleFunc("/warehouses", r.listWarehouses).Methods("GET")
	api.HandleFunc("/warehouses", r.createWarehouse).Methods("POST")
	api.HandleFunc("/warehouses/{id}", r.deleteWarehouse).Methods("DELETE")

	api.HandleFunc("/customers", r.listCustomers).Methods("GET")
	api.HandleFunc("/customers", r.createCustomer).Methods("POST")
	api.HandleFunc("/customers/{id}", r.deleteCustomer).Methods("DELETE")

	// Static item paths go before /items/{id}
	api.HandleFunc("/items", r.listItems).Methods("GET")
	api.HandleFunc("/items/export.csv", r.exportCSV).Methods("GET")
	api.HandleFunc("/items/export.xlsx", r.exportXLSX).Methods("GET")
	api.HandleFunc("/items/labels.pdf", r.itemLabels).Methods("GET")
	api.HandleFunc("/items/{id}", r.deleteItem).Methods("DELETE")
	api.HandleFunc("/items/{id}/history", r.itemHistory).Methods("GET")

	stock := api.PathPrefix("/stock").Subrouter()
	stock.HandleFunc("/intake", r.intake).Methods("POST")
	stock.HandleFunc("/add", r.addItem).Methods("POST")
	stock.HandleFunc("/restock", r.restock).Methods("POST")
	stock.HandleFunc("/adjust", r.adjust).Methods("POST")
	stock.HandleFunc("/dispatch", r.dispatch).Methods("POST")
	stock.HandleFunc("/checkout", r.checkout).Methods("POST")
	stock.HandleFunc("/damage", r.damage).Methods("POST")

	api.HandleFunc("/dashboard", r.dashboard).Methods("GET")
	api.HandleFunc("/invoices", r.listInvoices).Methods("GET")
	api.HandleFunc("/invoices/{id}/pdf", r.invoicePDF).Methods("GET")

	api.HandleFunc("/team-chat", r.listTeamChat).Methods("GET")
	api.HandleFunc("/team-chat", r.postTeamChat).Methods("POST")

	api.HandleFunc("/ai/greeting", r.aiGreeting).Methods("GET")
	api.HandleFunc("/ai/chat", r.aiChat).Methods("POST")

	return r
}

// serveWs upgrades signed-in clients to the snapshot stream
func (r *Router) serveWs(w http.ResponseWriter, req *http.Request) {
	token, ok := middleware.RequestToken(req)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Token required")
		return
	}
	if _, ok := r.auth.Verify(token); !ok {
		respondError(w, http.StatusUnauthorized, "Invalid or expired token")
		return
	}
	websocket.ServeWs(r.hub, w, req)
}

// healthCheck returns the health status of the API
func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	status := "ok"
	if r.mirror != nil && !r.mirror.Ready() {
		status = "loading"
	}
	body := map[string]interface{}{"status": status, "build": buildinfo.Current(r.now())}
	if r.hub != nil {
		body["clients"] = r.hub.ClientCount()
	}
	respondJSON(w, http.StatusOK, body)
}

// decode reads a JSON body into v
func decode(w http.ResponseWriter, req *http.Request, v interface{}) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, req.Body, maxBodyBytes)).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return false
	}
	return true
}

// actor returns the signed-in user; the auth middleware guarantees one
func actor(req *http.Request) ledger.Actor {
	a, _ := middleware.ActorFromContext(req.Context())
	return a
}

// nonNil makes empty lists encode as [] rather than null
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// respondFailure maps an operation error onto a status code
func (r *Router) respondFailure(w http.ResponseWriter, err error) {
	var verr *ledger.ValidationError
	var werr *ledger.RemoteWriteError
	switch {
	case errors.As(err, &verr):
		respondJSON(w, http.StatusBadRequest, map[string]string{
			"error": verr.Message,
			"field": verr.Field,
		})
	case errors.As(err, &werr):
		respondError(w, http.StatusBadGateway, werr.Error())
	case errors.Is(err, store.ErrNotFound):
		respondError(w, http.StatusNotFound, "Not found")
	default:
		r.log.Errorw("request failed", "error", err)
		respondError(w, http.StatusInternalServerError, "Internal server error")
	}
}
