package authtree

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockNode struct {
	name           string
	order          int
	skipNode       bool
	inputs         []InputState
	outputs        []OutputState
	executeFunc    func(ctx context.Context, treeContext *TreeContext) (*Action, error)
	shouldSkipFunc func(ctx context.Context, treeContext *TreeContext) bool
}

func (m *MockNode) Name() string {
	return m.name
}

func (m *MockNode) Order() int {
	return m.order
}

func (m *MockNode) Inputs() []InputState {
	return m.inputs
}

func (m *MockNode) Outputs() []OutputState {
	return m.outputs
}

func (m *MockNode) Execute(ctx context.Context, treeContext *TreeContext) (*Action, error) {
	if m.executeFunc != nil {
		return m.executeFunc(ctx, treeContext)
	}
	return Proceed(), nil
}

func (m *MockNode) ShouldSkip(ctx context.Context, treeContext *TreeContext) bool {
	if m.shouldSkipFunc != nil {
		return m.shouldSkipFunc(ctx, treeContext)
	}
	return m.skipNode
}

func NewMockNode(name string, order int) *MockNode {
	return &MockNode{name: name, order: order}
}

func TestTreeRegistry_GetOrderedNodes(t *testing.T) {
	registry := NewTreeRegistry()
	registry.AddNode(NewMockNode("third", 300)).
		AddNode(NewMockNode("first", 100)).
		AddNode(NewMockNode("second", 200))

	ordered := registry.GetOrderedNodes()
	require.Len(t, ordered, 3)
	assert.Equal(t, "first", ordered[0].Name())
	assert.Equal(t, "second", ordered[1].Name())
	assert.Equal(t, "third", ordered[2].Name())
}

func TestTreeExecutor_Execute_AllProceed(t *testing.T) {
	writer := NewMockNode("writer", 100)
	writer.executeFunc = func(ctx context.Context, tc *TreeContext) (*Action, error) {
		require.NoError(t, tc.SharedState.PutShared("mail", Scalar("bob@example.com")))
		return Proceed(), nil
	}

	var seen string
	reader := NewMockNode("reader", 200)
	reader.executeFunc = func(ctx context.Context, tc *TreeContext) (*Action, error) {
		seen, _ = tc.SharedState.GetString("mail")
		return Proceed(), nil
	}

	executor := NewTreeBuilder().AddNode(reader).AddNode(writer).Build()
	result := executor.Execute(context.Background(), Request{Username: "bob", Realm: "/"}, nil)

	require.Nil(t, result.Error)
	assert.NotEqual(t, uuid.Nil, result.RunID)
	assert.Equal(t, OutcomeNext, result.Outcome)
	assert.Equal(t, []string{"writer", "reader"}, result.Visited)
	assert.Equal(t, "bob@example.com", seen)
	assert.Equal(t, "bob", result.SharedState[UsernameKey])
	assert.Equal(t, "/", result.SharedState[RealmKey])
	assert.Equal(t, "bob@example.com", result.SharedState["mail"])
}

func TestTreeExecutor_Execute_InitialStateWins(t *testing.T) {
	executor := NewTreeBuilder().AddNode(NewMockNode("noop", 100)).Build()
	result := executor.Execute(context.Background(), Request{Username: "request-user"}, map[string]interface{}{
		UsernameKey: "state-user",
	})

	require.Nil(t, result.Error)
	assert.Equal(t, "state-user", result.SharedState[UsernameKey])
}

func TestTreeExecutor_Execute_InvalidInitialState(t *testing.T) {
	executor := NewTreeBuilder().AddNode(NewMockNode("noop", 100)).Build()
	result := executor.Execute(context.Background(), Request{}, map[string]interface{}{
		"bad": map[string]string{"nested": "value"},
	})

	require.NotNil(t, result.Error)
	assert.Equal(t, "invalid_initial_state", result.Error.Type)
	assert.Empty(t, result.Visited)
}

func TestTreeExecutor_Execute_SkipsNodes(t *testing.T) {
	executed := false
	skipped := NewMockNode("skipped", 100)
	skipped.skipNode = true
	skipped.executeFunc = func(ctx context.Context, tc *TreeContext) (*Action, error) {
		executed = true
		return Proceed(), nil
	}

	result := NewTreeBuilder().AddNode(skipped).AddNode(NewMockNode("ran", 200)).Build().
		Execute(context.Background(), Request{}, nil)

	assert.False(t, executed)
	assert.Equal(t, []string{"ran"}, result.Visited)
}

func TestTreeExecutor_Execute_NodeError(t *testing.T) {
	failing := NewMockNode("failing", 100)
	failing.executeFunc = func(ctx context.Context, tc *TreeContext) (*Action, error) {
		return nil, errors.New("boom")
	}
	after := NewMockNode("after", 200)

	result := NewTreeBuilder().AddNode(failing).AddNode(after).Build().
		Execute(context.Background(), Request{}, nil)

	require.NotNil(t, result.Error)
	assert.Equal(t, "step_execution_error", result.Error.Type)
	assert.Contains(t, result.Error.Message, "failing")
	assert.Equal(t, []string{"failing"}, result.Visited)
	assert.NotNil(t, result.SharedState)
}

func TestTreeExecutor_Execute_StopsOnOtherOutcome(t *testing.T) {
	deny := NewMockNode("deny", 100)
	deny.executeFunc = func(ctx context.Context, tc *TreeContext) (*Action, error) {
		return &Action{Outcome: "false", Data: map[string]interface{}{"reason": "locked"}}, nil
	}

	result := NewTreeBuilder().AddNode(deny).AddNode(NewMockNode("after", 200)).Build().
		Execute(context.Background(), Request{}, nil)

	require.Nil(t, result.Error)
	assert.Equal(t, "false", result.Outcome)
	assert.Equal(t, []string{"deny"}, result.Visited)
}

func TestTreeExecutor_Execute_EarlyReturnAndNodeData(t *testing.T) {
	first := NewMockNode("first", 100)
	first.executeFunc = func(ctx context.Context, tc *TreeContext) (*Action, error) {
		return &Action{Outcome: OutcomeNext, Data: map[string]interface{}{"step": 1}}, nil
	}

	var data interface{}
	second := NewMockNode("second", 200)
	second.executeFunc = func(ctx context.Context, tc *TreeContext) (*Action, error) {
		data = tc.NodeData["step"]
		return &Action{Outcome: OutcomeNext, EarlyReturn: true}, nil
	}

	result := NewTreeBuilder().AddNode(first).AddNode(second).AddNode(NewMockNode("third", 300)).Build().
		Execute(context.Background(), Request{}, nil)

	assert.Equal(t, 1, data)
	assert.Equal(t, []string{"first", "second"}, result.Visited)
	assert.Equal(t, OutcomeNext, result.Outcome)
}

func TestTreeExecutor_Execute_EmptyTree(t *testing.T) {
	result := NewTreeBuilder().Build().Execute(context.Background(), Request{Username: "bob"}, nil)

	require.Nil(t, result.Error)
	assert.Equal(t, OutcomeNext, result.Outcome)
	assert.Empty(t, result.Visited)
}

func TestTreeExecutor_Execute_LogsRequestContext(t *testing.T) {
	var buf bytes.Buffer
	previous := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(previous) })

	var seen Request
	executor := NewTreeBuilder().AddNode(&MockNode{
		name: "capture",
		executeFunc: func(ctx context.Context, treeContext *TreeContext) (*Action, error) {
			seen = treeContext.Request
			return Proceed(), nil
		},
	}).Build()

	request := Request{Username: "bob", Realm: "/", IPAddress: "10.0.0.7", UserAgent: "curl/8.0"}
	result := executor.Execute(context.Background(), request, nil)
	require.Nil(t, result.Error)

	assert.Equal(t, request, seen)
	assert.Contains(t, buf.String(), "run_id="+result.RunID.String())
	assert.Contains(t, buf.String(), "ip_address=10.0.0.7")
	assert.Contains(t, buf.String(), "user_agent=curl/8.0")
}
