package handlers

import (
	"net/http"

	"github.com/xelth-com/stockmaster/internal/ai"
	"github.com/xelth-com/stockmaster/internal/ledger"
	"github.com/xelth-com/stockmaster/internal/models"
)

// AIChatRequest carries the client-held assistant transcript
type AIChatRequest struct {
	Messages    []models.ChatMessage `json:"messages"`
	WarehouseID string               `json:"warehouseId"`
}

// AIChatResponse is the assistant reply and the outcome of its command
type AIChatResponse struct {
	Message     models.ChatMessage `json:"message"`
	Action      *ai.AddItemAction  `json:"action,omitempty"`
	Applied     bool               `json:"applied"`
	Result      *ledger.Result     `json:"result,omitempty"`
	ActionError string             `json:"actionError,omitempty"`
}

// aiGreeting returns the opening assistant message
func (r *Router) aiGreeting(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, r.assistant.Greeting())
}

// aiChat answers the transcript. An add-item command is applied to the
// selected warehouse; without one it is returned unapplied.
func (r *Router) aiChat(w http.ResponseWriter, req *http.Request) {
	var body AIChatRequest
	if !decode(w, req, &body) {
		return
	}
	if len(body.Messages) == 0 {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "messages are required", "field": "messages"})
		return
	}
	if _, ok := r.mirror.Warehouse(body.WarehouseID); !ok {
		body.WarehouseID = ""
	}

	summary := ai.BuildContext(r.mirror.Items(), r.mirror.Warehouses(), body.WarehouseID)
	// provider failures are already logged; the apology is the reply
	reply, _ := r.assistant.Chat(req.Context(), body.Messages, summary)

	resp := AIChatResponse{
		Message: models.ChatMessage{
			Role:      models.RoleAssistant,
			Content:   reply.Text,
			Timestamp: r.now().UnixMilli(),
		},
		Action: reply.Action,
	}
	if reply.Action != nil && body.WarehouseID != "" {
		res, err := r.mutator.IntakeNewItems(req.Context(), actor(req), body.WarehouseID, []ledger.IntakeRow{reply.Action.IntakeRow()})
		if err != nil {
			resp.ActionError = err.Error()
		} else {
			resp.Applied = true
			resp.Result = res
		}
	}
	respondJSON(w, http.StatusOK, resp)
}

// listTeamChat returns the shared chat, oldest first
func (r *Router) listTeamChat(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, nonNil(r.mirror.Chat()))
}

// postTeamChat appends a message from the signed-in user
func (r *Router) postTeamChat(w http.ResponseWriter, req *http.Request) {
	var body struct {
		Content string `json:"content"`
	}
	if !decode(w, req, &body) {
		return
	}
	id, err := r.mutator.PostTeamMessage(req.Context(), actor(req), body.Content)
	if err != nil {
		r.respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"id": id})
}
