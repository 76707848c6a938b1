package printer

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/skip2/go-qrcode"
	"github.com/xelth-com/stockmaster/internal/analytics"
)

// UnknownItemName is printed for lines whose item no longer exists
const UnknownItemName = "Unknown Item"

// InvoiceOptions controls invoice rendering
type InvoiceOptions struct {
	// Location is the time zone dates are printed in; nil means UTC
	Location *time.Location
	// NoQR omits the verification QR code
	NoQR bool
}

const bottomMargin = 20.0

var whitespace = regexp.MustCompile(`\s+`)

// InvoiceNumber is "INV-" followed by the last six digits of the invoice
// timestamp in milliseconds
func InvoiceNumber(inv analytics.Invoice) string {
	ms := strconv.FormatInt(inv.Date.UnixMilli(), 10)
	if len(ms) > 6 {
		ms = ms[len(ms)-6:]
	}
	return "INV-" + ms
}

// InvoiceFilename is the download name for an invoice PDF
func InvoiceFilename(inv analytics.Invoice) string {
	buyer := whitespace.ReplaceAllString(inv.CustomerName, "_")
	return fmt.Sprintf("Invoice_%s_%d.pdf", buyer, inv.Date.UnixMilli())
}

// InvoicePDF renders an invoice. itemNames maps item ids to display names.
func InvoicePDF(inv analytics.Invoice, itemNames map[string]string, opts InvoiceOptions) ([]byte, error) {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	date := inv.Date.In(loc).Format("02 Jan 2006")
	number := InvoiceNumber(inv)

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(14, 14, 14)
	pdf.SetAutoPageBreak(true, bottomMargin)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	// Header band
	pdf.SetFillColor(248, 250, 252)
	pdf.Rect(0, 0, 210, 50, "F")

	// Seller block
	pdf.SetFont("Helvetica", "B", 18)
	pdf.SetTextColor(15, 23, 42)
	pdf.SetXY(14, 13)
	pdf.CellFormat(100, 9, tr(inv.SellerName), "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(71, 85, 105)
	y := 24.0
	if inv.SellerAddress != "" {
		pdf.SetXY(14, y)
		pdf.MultiCell(90, 4, tr(inv.SellerAddress), "", "L", false)
		y = pdf.GetY() + 1
	}
	if inv.SellerGSTIN != "" {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.SetXY(14, y)
		pdf.CellFormat(90, 4, "GSTIN: "+inv.SellerGSTIN, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
	}

	// Invoice meta
	pdf.SetFont("Helvetica", "B", 22)
	pdf.SetTextColor(148, 163, 184)
	pdf.SetXY(96, 13)
	pdf.CellFormat(100, 9, "INVOICE", "", 0, "R", false, 0, "")
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetTextColor(15, 23, 42)
	pdf.SetXY(96, 26)
	pdf.CellFormat(100, 5, "Invoice No: "+number, "", 0, "R", false, 0, "")
	pdf.SetXY(96, 31)
	pdf.CellFormat(100, 5, "Date: "+date, "", 0, "R", false, 0, "")

	pdf.SetDrawColor(226, 232, 240)
	pdf.Line(14, 55, 196, 55)

	// Bill to
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetTextColor(100, 116, 139)
	pdf.SetXY(14, 61)
	pdf.CellFormat(100, 5, "BILL TO", "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetTextColor(15, 23, 42)
	pdf.SetXY(14, 67)
	pdf.CellFormat(120, 6, tr(strings.ToUpper(inv.CustomerName)), "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(51, 65, 85)
	y = 74
	if inv.CustomerAddress != "" {
		pdf.SetXY(14, y)
		pdf.MultiCell(100, 4, tr(inv.CustomerAddress), "", "L", false)
		y = pdf.GetY() + 1
	}
	if inv.CustomerGSTIN != "" {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.SetXY(14, y)
		pdf.CellFormat(100, 4, "GSTIN: "+inv.CustomerGSTIN, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		y += 5
	}

	// Line items
	widths := []float64{92, 25, 32.5, 32.5}
	tableY := y + 5
	if tableY < 90 {
		tableY = 90
	}
	pdf.SetXY(14, tableY)
	header := func() {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.SetFillColor(30, 41, 59)
		pdf.SetTextColor(255, 255, 255)
		for i, title := range []string{"ITEM", "QTY", "RATE", "AMOUNT"} {
			align := "R"
			switch i {
			case 0:
				align = "L"
			case 1:
				align = "C"
			}
			pdf.CellFormat(widths[i], 9, title, "1", 0, align, true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetTextColor(15, 23, 42)
	}
	header()

	_, pageH := pdf.GetPageSize()
	for _, tx := range inv.Transactions {
		if pdf.GetY()+9 > pageH-bottomMargin {
			pdf.AddPage()
			header()
		}
		name, ok := itemNames[tx.ItemID]
		if !ok || name == "" {
			name = UnknownItemName
		}
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(widths[0], 9, tr(fit(pdf, name, widths[0]-4)), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 9, formatQty(tx.Quantity), "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[2], 9, FormatINR(tx.Price), "1", 0, "R", false, 0, "")
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(widths[3], 9, FormatINR(tx.LineTotal()), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	// Totals
	if pdf.GetY()+30 > pageH-bottomMargin {
		pdf.AddPage()
	}
	totalsY := pdf.GetY() + 8
	pdf.SetFont("Helvetica", "", 10)
	totalRow := func(y float64, label, value string) {
		pdf.SetXY(140, y)
		pdf.CellFormat(28, 5, label, "", 0, "L", false, 0, "")
		pdf.SetXY(156, y)
		pdf.CellFormat(40, 5, value, "", 0, "R", false, 0, "")
	}
	totalRow(totalsY, "Subtotal:", FormatINR(inv.Subtotal()))
	totalRow(totalsY+6, fmt.Sprintf("Tax (%s%%):", formatQty(inv.TaxPercent)), FormatINR(inv.TaxAmount))
	pdf.Line(140, totalsY+12, 196, totalsY+12)
	pdf.SetFont("Helvetica", "B", 14)
	totalRow(totalsY+15, "Total:", "Rs. "+FormatINR(inv.TotalAmount))

	// QR stamp and signatory
	footerY := 250.0
	if pdf.GetY()+20 > footerY-12 {
		pdf.AddPage()
	}
	if !opts.NoQR {
		content := fmt.Sprintf("%s|%s|%s", number, inv.Date.In(loc).Format("2006-01-02"), FormatINR(inv.TotalAmount))
		png, err := qrcode.Encode(content, qrcode.Medium, 256)
		if err != nil {
			return nil, fmt.Errorf("encode invoice qr: %w", err)
		}
		imgOptions := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: true}
		pdf.RegisterImageOptionsReader("invoice_qr", imgOptions, bytes.NewReader(png))
		pdf.ImageOptions("invoice_qr", 14, footerY-12, 26, 26, false, imgOptions, 0, "")
	}
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(100, 116, 139)
	pdf.SetXY(96, footerY)
	pdf.CellFormat(100, 5, "Authorized Signatory", "", 0, "R", false, 0, "")
	pdf.SetXY(96, footerY+5)
	pdf.CellFormat(100, 5, tr("For "+inv.SellerName), "", 0, "R", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// fit shortens s with an ellipsis until it fits in width
func fit(pdf *gofpdf.Fpdf, s string, width float64) string {
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	r := []rune(s)
	for len(r) > 1 && pdf.GetStringWidth(string(r)+"...") > width {
		r = r[:len(r)-1]
	}
	return string(r) + "..."
}
