package api

import (
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	service "github.com/okian/pairrank/internal/app"
	"github.com/okian/pairrank/pkg/logger"
)

// Interaction wire constants. Type numbers are fixed by the chat
// platform's interaction protocol.
const (
	interactionPing             = 1
	interactionCommand          = 2
	interactionMessageComponent = 3

	callbackPong    = 1
	callbackMessage = 4

	componentActionRow = 1
	componentButton    = 2
	buttonStylePrimary = 1
)

// interactionRequest mirrors the webhook payload for slash commands and
// button clicks.
type interactionRequest struct {
	Type   int              `json:"type"`
	Data   *interactionData `json:"data,omitempty"`
	Member *memberPayload   `json:"member,omitempty"`
	User   *userPayload     `json:"user,omitempty"`
}

type interactionData struct {
	Name     string              `json:"name,omitempty"`
	Options  []interactionOption `json:"options,omitempty"`
	CustomID string              `json:"custom_id,omitempty"`
}

type interactionOption struct {
	Name    string              `json:"name"`
	Value   string              `json:"value,omitempty"`
	Options []interactionOption `json:"options,omitempty"`
}

type memberPayload struct {
	User *userPayload `json:"user,omitempty"`
}

type userPayload struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// interactionResponse is the immediate callback returned to the platform.
type interactionResponse struct {
	Type int           `json:"type"`
	Data *responseData `json:"data,omitempty"`
}

type responseData struct {
	Content    string      `json:"content,omitempty"`
	Components []component `json:"components,omitempty"`
}

type component struct {
	Type       int         `json:"type"`
	Style      int         `json:"style,omitempty"`
	Label      string      `json:"label,omitempty"`
	CustomID   string      `json:"custom_id,omitempty"`
	Components []component `json:"components,omitempty"`
}

// InteractionsHandler handles the interaction webhook.
type InteractionsHandler struct {
	deps      Dependencies
	publicKey ed25519.PublicKey
	logger    logger.Logger
}

// NewInteractionsHandler creates a new interactions handler. A nil key
// disables signature verification.
func NewInteractionsHandler(deps Dependencies, key ed25519.PublicKey) *InteractionsHandler {
	return &InteractionsHandler{deps: deps, publicKey: key}
}

// HandleInteraction handles POST /interactions requests.
func (h *InteractionsHandler) HandleInteraction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	if h.publicKey != nil && !VerifySignature(h.publicKey, r, body) {
		writeError(w, http.StatusUnauthorized, "invalid_signature", ErrUnauthorized)
		return
	}

	var req interactionRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}

	switch req.Type {
	case interactionPing:
		writeJSON(w, http.StatusOK, interactionResponse{Type: callbackPong})
	case interactionCommand:
		h.handleCommand(w, r, &req)
	case interactionMessageComponent:
		h.handleComponent(w, r, &req)
	default:
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
	}
}

func (h *InteractionsHandler) handleCommand(w http.ResponseWriter, r *http.Request, req *interactionRequest) {
	username := usernameOf(req)
	if username == "" || req.Data == nil {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}

	switch req.Data.Name {
	case "echo":
		writeJSON(w, http.StatusOK, renderMessage(optionValue(req.Data.Options, "text")))
	case "rate":
		h.handleRate(w, r, req, username)
	default:
		writeJSON(w, http.StatusOK, renderMessage("I don't know that command."))
	}
}

func (h *InteractionsHandler) handleRate(w http.ResponseWriter, r *http.Request, req *interactionRequest, username string) {
	if len(req.Data.Options) == 0 {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	sub := req.Data.Options[0]
	itemType := optionValue(sub.Options, "item_type")
	itemName := optionValue(sub.Options, "item_name")
	ctx := r.Context()

	switch sub.Name {
	case "add":
		if itemType == "" || itemName == "" {
			writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
			return
		}
		res, err := h.deps.AddItem(ctx, username, itemType, itemName)
		switch {
		case errors.Is(err, service.ErrItemExists):
			writeJSON(w, http.StatusOK, renderMessage("You are already rating "+itemName+"."))
		case err != nil:
			h.serveFailure(w, r, err)
		case res.First:
			writeJSON(w, http.StatusOK, renderFirst(res.Item))
		default:
			writeJSON(w, http.StatusOK, renderComparison(res.Item, *res.Probe))
		}
	case "remove":
		if itemType == "" || itemName == "" {
			writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
			return
		}
		item, err := h.deps.RemoveItem(ctx, username, itemType, itemName)
		switch {
		case service.IsNotFound(err):
			writeJSON(w, http.StatusOK, renderNotFound(itemName))
		case err != nil:
			h.serveFailure(w, r, err)
		default:
			writeJSON(w, http.StatusOK, renderRemoved(item))
		}
	case "list":
		if itemType == "" {
			writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
			return
		}
		items, err := h.deps.ListRatings(ctx, username, itemType)
		switch {
		case service.IsNotFound(err):
			writeJSON(w, http.StatusOK, renderMessage("You have not rated anything yet."))
		case err != nil:
			h.serveFailure(w, r, err)
		default:
			writeJSON(w, http.StatusOK, renderRatings(itemType, items))
		}
	case "show_types":
		types, err := h.deps.ListTypes(ctx, username)
		switch {
		case service.IsNotFound(err):
			writeJSON(w, http.StatusOK, renderMessage("You have not rated anything yet."))
		case err != nil:
			h.serveFailure(w, r, err)
		default:
			writeJSON(w, http.StatusOK, renderTypes(types))
		}
	default:
		writeJSON(w, http.StatusOK, renderMessage("I don't know that sub-command."))
	}
}

func (h *InteractionsHandler) handleComponent(w http.ResponseWriter, r *http.Request, req *interactionRequest) {
	username := usernameOf(req)
	if username == "" || req.Data == nil {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}

	token, err := DecodeToken(req.Data.CustomID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed_token", err)
		return
	}

	res, err := h.deps.RecordAnswer(r.Context(), username, token.ItemID, token.ComparedID, token.Index, token.Preferred)
	switch {
	case errors.Is(err, service.ErrNoSession):
		writeJSON(w, http.StatusOK, renderMessage("That rating session is no longer active. Add the item again to restart it."))
	case service.IsNotFound(err):
		writeJSON(w, http.StatusOK, renderMessage("I can't find that item anymore."))
	case err != nil:
		h.serveFailure(w, r, err)
	case res.Probe != nil:
		writeJSON(w, http.StatusOK, renderComparison(res.Item, *res.Probe))
	default:
		writeJSON(w, http.StatusOK, renderPlacement(res.Item, res.Final))
	}
}

func (h *InteractionsHandler) serveFailure(w http.ResponseWriter, r *http.Request, err error) {
	if h.logger == nil {
		h.logger = logger.Get()
	}
	h.logger.Error(r.Context(), "interaction failed", logger.Error(err))
	writeError(w, http.StatusInternalServerError, "internal_error", nil)
}

// usernameOf resolves the acting user from either a guild member or a
// direct-message payload.
func usernameOf(req *interactionRequest) string {
	if req.Member != nil && req.Member.User != nil {
		return strings.TrimSpace(req.Member.User.Username)
	}
	if req.User != nil {
		return strings.TrimSpace(req.User.Username)
	}
	return ""
}

func optionValue(options []interactionOption, name string) string {
	for _, opt := range options {
		if opt.Name == name {
			return strings.TrimSpace(opt.Value)
		}
	}
	return ""
}
