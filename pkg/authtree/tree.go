package authtree

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"
)

// OutcomeNext is the single success transition a node can take.
const OutcomeNext = "outcome"

// Node represents a single node in an authentication tree
type Node interface {
	// Name returns the unique name of this node
	Name() string

	// Order returns the execution order (lower numbers execute first)
	Order() int

	// Inputs declares the shared state keys this node reads
	Inputs() []InputState

	// Outputs declares the shared state keys this node may write
	Outputs() []OutputState

	// ShouldSkip determines if this node should be skipped based on current context
	ShouldSkip(ctx context.Context, treeContext *TreeContext) bool

	// Execute performs the node's logic
	Execute(ctx context.Context, treeContext *TreeContext) (*Action, error)
}

// Request carries the caller-supplied facts for one tree run
type Request struct {
	Username  string
	Realm     string
	IPAddress string
	UserAgent string
}

// TreeContext carries state between nodes of one run
type TreeContext struct {
	RunID   uuid.UUID
	Request Request

	// SharedState is visible to later nodes and to the caller
	SharedState *NodeState

	// TransientState is visible to later nodes and returned to the caller,
	// but never persisted with the session
	TransientState *NodeState

	// NodeData holds Action.Data emitted by earlier nodes
	NodeData map[string]interface{}
}

// Action is what a node returns after executing
type Action struct {
	// Outcome names the transition to take; OutcomeNext continues the tree
	Outcome string

	// EarlyReturn ends the run immediately with the current state
	EarlyReturn bool

	// Data is merged into TreeContext.NodeData
	Data map[string]interface{}
}

// Proceed returns the action for the single success transition.
func Proceed() *Action {
	return &Action{Outcome: OutcomeNext}
}

// Result contains the outcome of a tree run
type Result struct {
	RunID          uuid.UUID
	Outcome        string
	Visited        []string
	SharedState    map[string]interface{}
	TransientState map[string]interface{}
	Error          *Error
}

// Error represents a structured failure of a tree run
type Error struct {
	Type    string
	Message string
	Data    map[string]interface{}
}

func (e *Error) Error() string {
	return e.Message
}

// TreeRegistry manages and orders tree nodes
type TreeRegistry struct {
	nodes []Node
}

// NewTreeRegistry creates a new node registry
func NewTreeRegistry() *TreeRegistry {
	return &TreeRegistry{
		nodes: make([]Node, 0),
	}
}

// AddNode adds a node to the registry
func (r *TreeRegistry) AddNode(node Node) *TreeRegistry {
	r.nodes = append(r.nodes, node)
	return r
}

// GetOrderedNodes returns nodes sorted by their order
func (r *TreeRegistry) GetOrderedNodes() []Node {
	ordered := make([]Node, len(r.nodes))
	copy(ordered, r.nodes)

	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Order() < ordered[j].Order()
	})

	return ordered
}

// TreeExecutor runs the nodes of a tree in order
type TreeExecutor struct {
	registry *TreeRegistry
}

// NewTreeExecutor creates a new tree executor
func NewTreeExecutor(registry *TreeRegistry) *TreeExecutor {
	return &TreeExecutor{
		registry: registry,
	}
}

// Nodes returns the executor's nodes in execution order
func (e *TreeExecutor) Nodes() []Node {
	return e.registry.GetOrderedNodes()
}

// Execute runs the tree once. The request username and realm seed shared
// state when the initial state does not already carry them.
func (e *TreeExecutor) Execute(ctx context.Context, request Request, initialState map[string]interface{}) Result {
	result := Result{RunID: uuid.New()}

	shared, err := NewNodeStateFrom(initialState)
	if err != nil {
		result.Error = &Error{
			Type:    "invalid_initial_state",
			Message: err.Error(),
		}
		return result
	}
	if request.Username != "" && !shared.Has(UsernameKey) {
		_ = shared.Put(UsernameKey, request.Username)
	}
	if request.Realm != "" && !shared.Has(RealmKey) {
		_ = shared.Put(RealmKey, request.Realm)
	}

	slog.Info("Tree run started",
		"run_id", result.RunID,
		"username", request.Username,
		"realm", request.Realm,
		"ip_address", request.IPAddress,
		"user_agent", request.UserAgent)

	treeContext := &TreeContext{
		RunID:          result.RunID,
		Request:        request,
		SharedState:    shared,
		TransientState: NewNodeState(),
		NodeData:       make(map[string]interface{}),
	}

	for _, node := range e.registry.GetOrderedNodes() {
		if node.ShouldSkip(ctx, treeContext) {
			continue
		}

		action, err := node.Execute(ctx, treeContext)
		result.Visited = append(result.Visited, node.Name())
		if err != nil {
			slog.Error("Tree node failed", "node", node.Name(), "run_id", result.RunID, "err", err)
			result.Error = &Error{
				Type:    "step_execution_error",
				Message: fmt.Sprintf("Node '%s' failed: %v", node.Name(), err),
			}
			return e.finish(result, treeContext)
		}
		if action == nil {
			action = Proceed()
		}

		for key, value := range action.Data {
			treeContext.NodeData[key] = value
		}

		result.Outcome = action.Outcome
		if action.EarlyReturn || action.Outcome != OutcomeNext {
			return e.finish(result, treeContext)
		}
	}

	if result.Outcome == "" {
		result.Outcome = OutcomeNext
	}
	return e.finish(result, treeContext)
}

func (e *TreeExecutor) finish(result Result, treeContext *TreeContext) Result {
	result.SharedState = treeContext.SharedState.AsMap()
	result.TransientState = treeContext.TransientState.AsMap()
	return result
}

// TreeBuilder provides a fluent interface for building trees
type TreeBuilder struct {
	registry *TreeRegistry
}

// NewTreeBuilder creates a new tree builder
func NewTreeBuilder() *TreeBuilder {
	return &TreeBuilder{
		registry: NewTreeRegistry(),
	}
}

// AddNode adds a node to the tree
func (b *TreeBuilder) AddNode(node Node) *TreeBuilder {
	b.registry.AddNode(node)
	return b
}

// Build creates a tree executor with the configured nodes
func (b *TreeBuilder) Build() *TreeExecutor {
	return NewTreeExecutor(b.registry)
}

// BuildValidated creates a tree executor after checking that every node's
// inputs are satisfied by providedKeys or an earlier node's outputs.
func (b *TreeBuilder) BuildValidated(providedKeys []string) (*TreeExecutor, error) {
	if err := ValidateWiring(b.registry.GetOrderedNodes(), providedKeys); err != nil {
		return nil, err
	}
	return b.Build(), nil
}

// Predefined node orders
const (
	OrderProfileProperty = 300
	OrderSessionToken    = 700
)
