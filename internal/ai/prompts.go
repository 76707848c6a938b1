package ai

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xelth-com/stockmaster/internal/models"
)

// MaxContextLines caps the stock lines sent with each request
const MaxContextLines = 50

// GreetingText opens every assistant conversation
const GreetingText = "Hello! I am StockMaster AI. How can I help you with your inventory today?"

// ContextSummary is the inventory snapshot the assistant sees
type ContextSummary struct {
	Location           string
	Warehouses         []string
	CurrentWarehouseID string
	StockLines         []string
}

// BuildContext summarizes stock for the assistant. With a current warehouse
// only its items are listed; in the global view each line names its
// warehouse.
func BuildContext(items []models.StockItem, warehouses []models.Warehouse, currentWarehouseID string) ContextSummary {
	names := make(map[string]string, len(warehouses))
	summary := ContextSummary{Location: "Global Overview", CurrentWarehouseID: currentWarehouseID}
	for _, w := range warehouses {
		names[w.ID] = w.Name
		summary.Warehouses = append(summary.Warehouses, w.Name)
		if w.ID == currentWarehouseID {
			summary.Location = w.Name
		}
	}

	for _, item := range items {
		if len(summary.StockLines) == MaxContextLines {
			break
		}
		if currentWarehouseID != "" && item.WarehouseID != currentWarehouseID {
			continue
		}
		tag := ""
		if currentWarehouseID == "" {
			name, ok := names[item.WarehouseID]
			if !ok {
				name = "Unknown"
			}
			tag = " (" + name + ")"
		}
		summary.StockLines = append(summary.StockLines, fmt.Sprintf("- %s%s: %s units @ $%s",
			item.Name, tag, num(item.Quantity), num(item.Price)))
	}
	return summary
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// SystemPrompt builds the fixed instructions around the context summary
func SystemPrompt(s ContextSummary) string {
	current := s.CurrentWarehouseID
	if current == "" {
		current = "NONE"
	}
	var b strings.Builder
	b.WriteString("You are StockMaster AI, an assistant for a small business inventory.\n\n")
	b.WriteString("Context:\n")
	fmt.Fprintf(&b, "Location: %s\n", s.Location)
	fmt.Fprintf(&b, "Warehouses: %s\n", strings.Join(s.Warehouses, ", "))
	fmt.Fprintf(&b, "Current Warehouse ID: %s\n\n", current)
	b.WriteString("Stock Sample:\n")
	b.WriteString(strings.Join(s.StockLines, "\n"))
	b.WriteString("\n\n")
	b.WriteString(`Instructions:
1. Reply in Hinglish (Hindi + English), short and friendly.
2. If the user asks to ADD an item and there is a Current Warehouse ID, append this block at the very end of your reply:
` + BlockStart + `
{"action": "add", "item": {"name": "Item Name", "quantity": 10, "price": 100, "category": "General", "minThreshold": 5, "description": "Added by AI"}}
` + BlockEnd + `
3. Only output the block when the user explicitly asks to add stock.
4. If the Current Warehouse ID is NONE, ask the user to select a warehouse first and do not output the block.
`)
	return b.String()
}
