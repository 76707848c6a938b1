package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/xelth-com/stockmaster/internal/analytics"
	"github.com/xelth-com/stockmaster/internal/services/export"
	"github.com/xelth-com/stockmaster/internal/services/printer"
)

func sendFile(w http.ResponseWriter, contentType, filename string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)
}

// itemLabels renders QR shelf labels for the items in scope
func (r *Router) itemLabels(w http.ResponseWriter, req *http.Request) {
	cfg := printer.DefaultLabelConfig()
	q := req.URL.Query()
	if v, err := strconv.Atoi(q.Get("cols")); err == nil {
		cfg.Cols = v
	}
	if v, err := strconv.Atoi(q.Get("rows")); err == nil {
		cfg.Rows = v
	}

	pdfBytes, err := printer.ItemLabelsPDF(r.scopedItems(req), cfg)
	if err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("Failed to generate PDF: %v", err))
		return
	}
	sendFile(w, "application/pdf", "item_labels.pdf", pdfBytes)
}

// invoicePDF renders one invoice grouped from the ledger
func (r *Router) invoicePDF(w http.ResponseWriter, req *http.Request) {
	id := mux.Vars(req)["id"]
	inv, ok := analytics.FindInvoice(analytics.GroupInvoices(r.mirror.Transactions()), id)
	if !ok {
		respondError(w, http.StatusNotFound, "Invoice not found")
		return
	}

	names := make(map[string]string)
	for _, item := range r.mirror.Items() {
		names[item.ID] = item.Name
	}
	pdfBytes, err := printer.InvoicePDF(inv, names, printer.InvoiceOptions{Location: r.loc})
	if err != nil {
		r.log.Errorw("invoice render failed", "invoice", id, "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to generate PDF")
		return
	}
	sendFile(w, "application/pdf", printer.InvoiceFilename(inv), pdfBytes)
}

// exportCSV downloads the items in scope as CSV
func (r *Router) exportCSV(w http.ResponseWriter, req *http.Request) {
	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, r.scopedItems(req), r.mirror.Warehouses()); err != nil {
		r.log.Errorw("csv export failed", "error", err)
		respondError(w, http.StatusInternalServerError, "Export failed")
		return
	}
	sendFile(w, "text/csv; charset=utf-8", export.CSVFilename(r.now().In(r.loc)), buf.Bytes())
}

// exportXLSX downloads the items in scope as a spreadsheet
func (r *Router) exportXLSX(w http.ResponseWriter, req *http.Request) {
	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, r.scopedItems(req), r.mirror.Warehouses()); err != nil {
		r.log.Errorw("xlsx export failed", "error", err)
		respondError(w, http.StatusInternalServerError, "Export failed")
		return
	}
	sendFile(w, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", export.XLSXFilename(r.now().In(r.loc)), buf.Bytes())
}
