package handlers

import (
	"net/http"
	"strconv"

	"github.com/xelth-com/stockmaster/internal/analytics"
)

// DefaultTopItems is the length of the top-value chart
const DefaultTopItems = 5

// dashboard returns financials and charts for a window and scope
func (r *Router) dashboard(w http.ResponseWriter, req *http.Request) {
	q := req.URL.Query()
	window, err := analytics.ParseWindow(q.Get("window"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error(), "field": "window"})
		return
	}
	topN := DefaultTopItems
	if v, err := strconv.Atoi(q.Get("top")); err == nil && v > 0 {
		topN = v
	}

	ledger, items := analytics.ScopeToWarehouse(r.mirror.Transactions(), r.mirror.Items(), q.Get("warehouse"))
	respondJSON(w, http.StatusOK, analytics.BuildDashboard(ledger, items, window, r.now().In(r.loc), topN))
}

// listInvoices groups sales into invoices, newest first
func (r *Router) listInvoices(w http.ResponseWriter, req *http.Request) {
	q := req.URL.Query()
	ledger, _ := analytics.ScopeToWarehouse(r.mirror.Transactions(), r.mirror.Items(), q.Get("warehouse"))
	invoices := analytics.SearchInvoices(analytics.GroupInvoices(ledger), q.Get("q"))
	respondJSON(w, http.StatusOK, nonNil(invoices))
}
