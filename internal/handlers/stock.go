package handlers

import (
	"net/http"

	"github.com/xelth-com/stockmaster/internal/ledger"
)

func (r *Router) respondResult(w http.ResponseWriter, res *ledger.Result, err error) {
	if err != nil {
		r.respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, res)
}

// intake adds a batch of new items to one warehouse
func (r *Router) intake(w http.ResponseWriter, req *http.Request) {
	var body struct {
		WarehouseID string             `json:"warehouseId"`
		Items       []ledger.IntakeRow `json:"items"`
	}
	if !decode(w, req, &body) {
		return
	}
	res, err := r.mutator.IntakeNewItems(req.Context(), actor(req), body.WarehouseID, body.Items)
	r.respondResult(w, res, err)
}

// addItem adds a single new item
func (r *Router) addItem(w http.ResponseWriter, req *http.Request) {
	var body struct {
		WarehouseID string `json:"warehouseId"`
		ledger.IntakeRow
	}
	if !decode(w, req, &body) {
		return
	}
	res, err := r.mutator.AddItem(req.Context(), actor(req), body.WarehouseID, body.IntakeRow)
	r.respondResult(w, res, err)
}

// restock raises quantities of existing items
func (r *Router) restock(w http.ResponseWriter, req *http.Request) {
	var body struct {
		Lines []ledger.RestockLine `json:"lines"`
	}
	if !decode(w, req, &body) {
		return
	}
	res, err := r.mutator.Restock(req.Context(), actor(req), body.Lines)
	r.respondResult(w, res, err)
}

// adjust restocks a single item
func (r *Router) adjust(w http.ResponseWriter, req *http.Request) {
	var line ledger.RestockLine
	if !decode(w, req, &line) {
		return
	}
	res, err := r.mutator.AdjustExisting(req.Context(), actor(req), line.ItemID, line.AddQty)
	r.respondResult(w, res, err)
}

// dispatch sells one item
func (r *Router) dispatch(w http.ResponseWriter, req *http.Request) {
	var body ledger.DispatchRequest
	if !decode(w, req, &body) {
		return
	}
	res, err := r.mutator.Dispatch(req.Context(), actor(req), body)
	r.respondResult(w, res, err)
}

// checkout sells a cart as one invoice
func (r *Router) checkout(w http.ResponseWriter, req *http.Request) {
	var body ledger.CheckoutRequest
	if !decode(w, req, &body) {
		return
	}
	res, err := r.mutator.Checkout(req.Context(), actor(req), body)
	r.respondResult(w, res, err)
}

// damage writes off units of one item
func (r *Router) damage(w http.ResponseWriter, req *http.Request) {
	var body ledger.DamageRequest
	if !decode(w, req, &body) {
		return
	}
	res, err := r.mutator.ReportDamage(req.Context(), actor(req), body)
	r.respondResult(w, res, err)
}
