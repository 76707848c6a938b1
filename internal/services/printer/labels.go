package printer

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/skip2/go-qrcode"
	"github.com/xelth-com/stockmaster/internal/models"
)

// LabelScheme prefixes the item id encoded in shelf label QR codes
const LabelScheme = "stockmaster:item:"

// LabelConfig holds the sheet layout for shelf labels
type LabelConfig struct {
	Cols       int     `json:"cols"`
	Rows       int     `json:"rows"`
	MarginTop  float64 `json:"marginTop"`
	MarginLeft float64 `json:"marginLeft"`
	GapX       float64 `json:"gapX"`
	GapY       float64 `json:"gapY"`
}

// DefaultLabelConfig is a 3x8 A4 sheet
func DefaultLabelConfig() LabelConfig {
	return LabelConfig{Cols: 3, Rows: 8, MarginTop: 10, MarginLeft: 7, GapX: 2.5, GapY: 0}
}

// ItemLabelsPDF creates a sheet of shelf labels, one per item, each with a
// QR code of the item id, the name and the category
func ItemLabelsPDF(items []models.StockItem, cfg LabelConfig) ([]byte, error) {
	if cfg.Cols <= 0 || cfg.Rows <= 0 {
		return nil, fmt.Errorf("label grid must be at least 1x1, got %dx%d", cfg.Cols, cfg.Rows)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetFont("Arial", "B", 10)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	// A4 dimensions
	pageWidth, pageHeight := 210.0, 297.0

	totalGapX := float64(cfg.Cols-1) * cfg.GapX
	totalGapY := float64(cfg.Rows-1) * cfg.GapY
	availW := pageWidth - (cfg.MarginLeft * 2)
	availH := pageHeight - (cfg.MarginTop * 2)
	labelW := (availW - totalGapX) / float64(cfg.Cols)
	labelH := (availH - totalGapY) / float64(cfg.Rows)

	labelsPerPage := cfg.Cols * cfg.Rows
	if len(items) == 0 {
		pdf.AddPage()
	}

	for i, item := range items {
		if i%labelsPerPage == 0 {
			pdf.AddPage()
		}

		indexOnPage := i % labelsPerPage
		col := indexOnPage % cfg.Cols
		row := indexOnPage / cfg.Cols
		x := cfg.MarginLeft + float64(col)*(labelW+cfg.GapX)
		y := cfg.MarginTop + float64(row)*(labelH+cfg.GapY)

		qrPng, err := qrcode.Encode(LabelScheme+item.ID, qrcode.Low, 256)
		if err != nil {
			return nil, err
		}
		imgName := fmt.Sprintf("qr_%d", i)
		imgOptions := gofpdf.ImageOptions{
			ImageType: "PNG",
			ReadDpi:   true,
		}
		_ = pdf.RegisterImageOptionsReader(imgName, imgOptions, bytes.NewReader(qrPng))

		// QR on the left, text on the right
		qrSize := labelH * 0.8
		if qrSize > labelW*0.45 {
			qrSize = labelW * 0.45
		}
		qrY := y + (labelH-qrSize)/2
		pdf.ImageOptions(imgName, x+1, qrY, qrSize, qrSize, false, imgOptions, 0, "")

		textX := x + qrSize + 2
		textW := labelW - qrSize - 3
		pdf.SetFontSize(9)
		pdf.SetXY(textX, y+labelH/2-6)
		pdf.CellFormat(textW, 4, tr(fit(pdf, item.Name, textW)), "", 0, "L", false, 0, "")
		pdf.SetFontSize(7)
		pdf.SetXY(textX, y+labelH/2-1)
		pdf.CellFormat(textW, 3, tr(fit(pdf, item.Category, textW)), "", 0, "L", false, 0, "")
		pdf.SetXY(textX, y+labelH/2+3)
		pdf.CellFormat(textW, 3, "Min "+formatQty(item.MinThreshold), "", 0, "L", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
