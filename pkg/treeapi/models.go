package treeapi

import "github.com/tendant/profile-property-node/pkg/authtree"

// EvaluateRequest is the body of POST /evaluate
type EvaluateRequest struct {
	Username    string                 `json:"username"`
	Realm       string                 `json:"realm,omitempty"`
	IPAddress   string                 `json:"ip_address,omitempty"`
	UserAgent   string                 `json:"user_agent,omitempty"`
	SharedState map[string]interface{} `json:"shared_state,omitempty"`
}

// EvaluateResponse is returned by POST /evaluate
type EvaluateResponse struct {
	RunID        string                 `json:"run_id"`
	Outcome      string                 `json:"outcome"`
	Visited      []string               `json:"visited"`
	SharedState  map[string]interface{} `json:"shared_state"`
	SessionToken string                 `json:"session_token,omitempty"`
}

// WiringResponse is returned by GET /wiring
type WiringResponse struct {
	Nodes []authtree.NodeWiring `json:"nodes"`
}

// ErrorResponse is the body of every error reply
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}
