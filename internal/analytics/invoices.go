package analytics

import (
	"fmt"
	"hash/fnv"
	"sort"
	"strings"
	"time"

	"github.com/xelth-com/stockmaster/internal/models"
)

// DefaultSellerName is shown on invoices whose entries carry no seller
const DefaultSellerName = "StockMaster Admin"

// Invoice is a group of sale entries sharing a timestamp and buyer
type Invoice struct {
	ID              string                    `json:"id"`
	Date            time.Time                 `json:"date"`
	CustomerName    string                    `json:"customerName"`
	SellerName      string                    `json:"sellerName"`
	SellerGSTIN     string                    `json:"sellerGstin,omitempty"`
	SellerAddress   string                    `json:"sellerAddress,omitempty"`
	CustomerGSTIN   string                    `json:"customerGstin,omitempty"`
	CustomerAddress string                    `json:"customerAddress,omitempty"`
	TaxPercent      float64                   `json:"taxPercent"`
	TotalAmount     float64                   `json:"totalAmount"`
	TaxAmount       float64                   `json:"taxAmount"`
	ItemCount       int                       `json:"itemCount"`
	Transactions    []models.StockTransaction `json:"transactions"`
}

// Subtotal is the sum of line totals before tax
func (inv Invoice) Subtotal() float64 {
	var sum float64
	for _, tx := range inv.Transactions {
		sum += tx.LineTotal()
	}
	return sum
}

type invoiceKey struct {
	date  int64
	party string
}

// GroupInvoices collapses OUT entries with the same date and party name into
// invoices, newest first. Groups with equal dates keep ledger order.
func GroupInvoices(ledger []models.StockTransaction) []Invoice {
	index := make(map[invoiceKey]int)
	var out []Invoice
	for _, tx := range ledger {
		if tx.Type != models.TxOut {
			continue
		}
		key := invoiceKey{date: tx.Date.UnixNano(), party: tx.PartyName}
		i, ok := index[key]
		if !ok {
			seller := tx.SellerName
			if seller == "" {
				seller = DefaultSellerName
			}
			out = append(out, Invoice{
				ID:              invoiceID(key),
				Date:            tx.Date,
				CustomerName:    tx.PartyName,
				SellerName:      seller,
				SellerGSTIN:     tx.SellerGSTIN,
				SellerAddress:   tx.SellerAddress,
				CustomerGSTIN:   tx.CustomerGSTIN,
				CustomerAddress: tx.CustomerAddress,
				TaxPercent:      tx.EffectiveTax(),
			})
			i = len(out) - 1
			index[key] = i
		}

		line := tx.LineTotal()
		tax := line * tx.EffectiveTax() / 100
		inv := &out[i]
		inv.Transactions = append(inv.Transactions, tx)
		inv.TotalAmount += line + tax
		inv.TaxAmount += tax
		inv.ItemCount++
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out
}

// invoiceID is stable for a given key and safe to use in a URL path
func invoiceID(k invoiceKey) string {
	h := fnv.New32a()
	fmt.Fprintf(h, "%d_%s", k.date, k.party)
	return fmt.Sprintf("%d-%08x", k.date/int64(time.Millisecond), h.Sum32())
}

// FindInvoice looks an invoice up by ID
func FindInvoice(invoices []Invoice, id string) (Invoice, bool) {
	for _, inv := range invoices {
		if inv.ID == id {
			return inv, true
		}
	}
	return Invoice{}, false
}

// SearchInvoices keeps invoices whose customer or seller name contains term,
// ignoring case. An empty term keeps everything.
func SearchInvoices(invoices []Invoice, term string) []Invoice {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return invoices
	}
	var out []Invoice
	for _, inv := range invoices {
		if strings.Contains(strings.ToLower(inv.CustomerName), term) ||
			strings.Contains(strings.ToLower(inv.SellerName), term) {
			out = append(out, inv)
		}
	}
	return out
}
