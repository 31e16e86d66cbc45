package sessiontoken

import (
	"context"
	"log/slog"
	"time"

	"github.com/tendant/profile-property-node/pkg/authtree"
	"github.com/tendant/profile-property-node/pkg/errors"
)

const (
	// NodeName is the default name of the node in a tree
	NodeName = "session_token"

	// TokenKey is the transient state key holding the signed token
	TokenKey = "session_token"

	// ExpiresAtKey is the transient state key holding the expiry as RFC 3339
	ExpiresAtKey = "session_token_expires_at"
)

// Node mints a session token from shared state. Each claim key it reads is
// declared as an input, so a tree can be checked for an upstream writer.
type Node struct {
	claims    []string
	required  bool
	generator *Generator
}

// NewNode creates a session token node reading claims from shared state.
// When required is true, every claim key must be written upstream.
func NewNode(generator *Generator, claims []string, required bool) (*Node, error) {
	if generator == nil {
		return nil, errors.New(errors.ErrCodeInvalidConfiguration, "token generator is required")
	}
	for _, claim := range claims {
		if claim == "" {
			return nil, errors.InvalidInput("claims", "claim key must not be empty")
		}
	}
	return &Node{
		claims:    append([]string(nil), claims...),
		required:  required,
		generator: generator,
	}, nil
}

func (n *Node) Name() string {
	return NodeName
}

func (n *Node) Order() int {
	return authtree.OrderSessionToken
}

func (n *Node) Inputs() []authtree.InputState {
	inputs := []authtree.InputState{{Key: authtree.UsernameKey, Required: true}}
	for _, claim := range n.claims {
		inputs = append(inputs, authtree.InputState{Key: claim, Required: n.required})
	}
	return inputs
}

func (n *Node) Outputs() []authtree.OutputState {
	return nil
}

func (n *Node) ShouldSkip(ctx context.Context, treeContext *authtree.TreeContext) bool {
	return !treeContext.SharedState.Has(authtree.UsernameKey)
}

// Execute signs a token and stores it in transient state. Claim keys absent
// from shared state are left out of the token.
func (n *Node) Execute(ctx context.Context, treeContext *authtree.TreeContext) (*authtree.Action, error) {
	username, _ := treeContext.SharedState.GetString(authtree.UsernameKey)
	realm, _ := treeContext.SharedState.GetString(authtree.RealmKey)

	properties := make(map[string]interface{}, len(n.claims))
	for _, claim := range n.claims {
		value, ok := treeContext.SharedState.GetValue(claim)
		if !ok {
			slog.Debug("Session claim not present in shared state", "claim", claim)
			continue
		}
		properties[claim] = value.Interface()
	}

	token, expiresAt, err := n.generator.GenerateToken(username, realm, properties)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to generate session token")
	}

	if err := treeContext.TransientState.Put(TokenKey, token); err != nil {
		return nil, err
	}
	if err := treeContext.TransientState.Put(ExpiresAtKey, expiresAt.Format(time.RFC3339)); err != nil {
		return nil, err
	}
	return authtree.Proceed(), nil
}
