package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/xelth-com/stockmaster/internal/analytics"
	"github.com/xelth-com/stockmaster/internal/models"
)

// listWarehouses returns all warehouses
func (r *Router) listWarehouses(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, nonNil(r.mirror.Warehouses()))
}

// createWarehouse creates a new warehouse
func (r *Router) createWarehouse(w http.ResponseWriter, req *http.Request) {
	var body struct {
		Name     string `json:"name"`
		Location string `json:"location"`
	}
	if !decode(w, req, &body) {
		return
	}
	id, err := r.mutator.CreateWarehouse(req.Context(), body.Name, body.Location)
	if err != nil {
		r.respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// deleteWarehouse removes a warehouse, leaving its items in place
func (r *Router) deleteWarehouse(w http.ResponseWriter, req *http.Request) {
	id := mux.Vars(req)["id"]
	if err := r.mutator.DeleteWarehouse(req.Context(), id); err != nil {
		r.respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"id": id})
}

// listCustomers returns all saved parties
func (r *Router) listCustomers(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, nonNil(r.mirror.Customers()))
}

// createCustomer saves a party profile
func (r *Router) createCustomer(w http.ResponseWriter, req *http.Request) {
	var c models.Customer
	if !decode(w, req, &c) {
		return
	}
	id, err := r.mutator.CreateCustomer(req.Context(), c)
	if err != nil {
		r.respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// deleteCustomer removes a party profile
func (r *Router) deleteCustomer(w http.ResponseWriter, req *http.Request) {
	id := mux.Vars(req)["id"]
	if err := r.mutator.DeleteCustomer(req.Context(), id); err != nil {
		r.respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"id": id})
}

// scopedItems returns the items of the ?warehouse= scope, or all items
func (r *Router) scopedItems(req *http.Request) []models.StockItem {
	items := r.mirror.Items()
	wh := req.URL.Query().Get("warehouse")
	if wh == "" {
		return items
	}
	_, scoped := analytics.ScopeToWarehouse(nil, items, wh)
	return scoped
}

// listItems returns stock items, optionally of one warehouse
func (r *Router) listItems(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, nonNil(r.scopedItems(req)))
}

// deleteItem hard-deletes an item; its ledger entries remain
func (r *Router) deleteItem(w http.ResponseWriter, req *http.Request) {
	id := mux.Vars(req)["id"]
	if err := r.mutator.DeleteItem(req.Context(), id); err != nil {
		r.respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"id": id})
}

// itemHistory returns the ledger of one item, newest first
func (r *Router) itemHistory(w http.ResponseWriter, req *http.Request) {
	id := mux.Vars(req)["id"]
	history := analytics.ItemHistory(r.mirror.Transactions(), id)
	item, ok := r.mirror.Item(id)
	if !ok && len(history) == 0 {
		respondError(w, http.StatusNotFound, "Item not found")
		return
	}
	resp := map[string]interface{}{"history": history}
	if ok {
		resp["item"] = item
	}
	respondJSON(w, http.StatusOK, resp)
}
