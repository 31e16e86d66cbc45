package profileproperty

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tendant/profile-property-node/pkg/authtree"
	"github.com/tendant/profile-property-node/pkg/errors"
	"github.com/tendant/profile-property-node/pkg/identity"
)

const (
	// NodeName is the default name of the node in a tree
	NodeName = "profile_property"

	// ReportDataKey is the Action.Data key carrying the projection Report
	ReportDataKey = "profile_property_report"
)

// Node copies configured identity attributes into shared state.
type Node struct {
	name        string
	order       int
	usernameKey string
	realm       string
	mapping     PropertyMapping
	repository  identity.IdentityRepository
}

// Option configures a Node
type Option func(*Node)

// WithName overrides the node name
func WithName(name string) Option {
	return func(n *Node) {
		n.name = name
	}
}

// WithOrder overrides the execution order
func WithOrder(order int) Option {
	return func(n *Node) {
		n.order = order
	}
}

// WithUsernameKey reads the principal from a different shared state key
func WithUsernameKey(key string) Option {
	return func(n *Node) {
		n.usernameKey = key
	}
}

// NewNode validates config and builds the node around repository.
func NewNode(config Config, repository identity.IdentityRepository, opts ...Option) (*Node, error) {
	if repository == nil {
		return nil, errors.New(errors.ErrCodeInvalidConfiguration, "identity repository is required")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	node := &Node{
		name:        NodeName,
		order:       authtree.OrderProfileProperty,
		usernameKey: authtree.UsernameKey,
		realm:       config.Realm,
		mapping:     config.Mapping(),
		repository:  repository,
	}
	for _, opt := range opts {
		opt(node)
	}
	if node.usernameKey == "" {
		return nil, errors.InvalidInput("usernameKey", "must not be empty")
	}
	return node, nil
}

func (n *Node) Name() string {
	return n.name
}

func (n *Node) Order() int {
	return n.order
}

// Inputs declares the username key.
func (n *Node) Inputs() []authtree.InputState {
	return []authtree.InputState{{Key: n.usernameKey, Required: true}}
}

// Outputs declares every configured destination key.
func (n *Node) Outputs() []authtree.OutputState {
	keys := n.mapping.DestinationKeys()
	outputs := make([]authtree.OutputState, 0, len(keys))
	for _, key := range keys {
		outputs = append(outputs, authtree.OutputState{Key: key})
	}
	return outputs
}

func (n *Node) ShouldSkip(ctx context.Context, treeContext *authtree.TreeContext) bool {
	return false
}

// Execute projects the configured attributes and always proceeds.
func (n *Node) Execute(ctx context.Context, treeContext *authtree.TreeContext) (*authtree.Action, error) {
	action := authtree.Proceed()

	username, ok := treeContext.SharedState.GetString(n.usernameKey)
	if !ok || username == "" {
		err := errors.New(errors.ErrCodeMissingInput, fmt.Sprintf("shared state has no %q", n.usernameKey))
		slog.Error("Profile attributes will not be saved in shared state", "err", err, "node", n.name)
		return action, nil
	}

	realm := n.realm
	if override, ok := treeContext.SharedState.GetString(authtree.RealmKey); ok && override != "" {
		realm = override
	}

	report := Project(ctx, Principal{Realm: realm, Username: username}, n.mapping, n.repository, treeContext.SharedState)
	action.Data = map[string]interface{}{ReportDataKey: report}
	return action, nil
}
