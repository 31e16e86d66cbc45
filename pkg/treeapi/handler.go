package treeapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
	"github.com/go-chi/render"
	"github.com/jinzhu/copier"

	"github.com/tendant/profile-property-node/pkg/authtree"
	"github.com/tendant/profile-property-node/pkg/errors"
	"github.com/tendant/profile-property-node/pkg/sessiontoken"
)

// Handler serves tree evaluation requests
type Handler struct {
	executor *authtree.TreeExecutor
}

// NewHandler creates a new tree API handler
func NewHandler(executor *authtree.TreeExecutor) *Handler {
	return &Handler{
		executor: executor,
	}
}

// RegisterRoutes registers the tree routes.
// These routes should be mounted under an authenticated route group
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/evaluate", h.Evaluate)
	r.Get("/wiring", h.Wiring)
}

// Routes returns a router with the tree routes behind bearer token
// verification against auth.
func Routes(h *Handler, auth *jwtauth.JWTAuth) http.Handler {
	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(jwtauth.Verifier(auth))
		r.Use(jwtauth.Authenticator(auth))
		h.RegisterRoutes(r)
	})
	return r
}

// Evaluate handles POST /evaluate - run the tree for one user
func (h *Handler) Evaluate(w http.ResponseWriter, r *http.Request) {
	var body EvaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		slog.Error("Failed to decode request body", "error", err)
		writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "Invalid request body"))
		return
	}
	if body.Username == "" {
		writeError(w, r, errors.InvalidInput("username", "is required"))
		return
	}

	var request authtree.Request
	if err := copier.Copy(&request, &body); err != nil {
		slog.Error("Failed to map request", "error", err)
		writeError(w, r, errors.New(errors.ErrCodeInternal, "Failed to map request"))
		return
	}
	if request.IPAddress == "" {
		request.IPAddress = r.RemoteAddr
	}
	if request.UserAgent == "" {
		request.UserAgent = r.UserAgent()
	}

	result := h.executor.Execute(r.Context(), request, body.SharedState)
	if result.Error != nil {
		code := errors.ErrCodeInternal
		if result.Error.Type == "invalid_initial_state" {
			code = errors.ErrCodeInvalidInput
		}
		slog.Error("Tree evaluation failed", "run_id", result.RunID, "type", result.Error.Type, "error", result.Error.Message)
		writeError(w, r, errors.New(code, result.Error.Message))
		return
	}

	response := EvaluateResponse{
		RunID:       result.RunID.String(),
		Outcome:     result.Outcome,
		Visited:     result.Visited,
		SharedState: result.SharedState,
	}
	if token, ok := result.TransientState[sessiontoken.TokenKey].(string); ok {
		response.SessionToken = token
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, response)
}

// Wiring handles GET /wiring - list declared node inputs and outputs
func (h *Handler) Wiring(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, WiringResponse{Nodes: authtree.DescribeWiring(h.executor.Nodes())})
}

func writeError(w http.ResponseWriter, r *http.Request, err *errors.Error) {
	render.Status(r, err.HTTPStatusCode())
	render.JSON(w, r, ErrorResponse{Error: err.Message, Code: string(err.Code)})
}
