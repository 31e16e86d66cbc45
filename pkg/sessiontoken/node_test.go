package sessiontoken

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/profile-property-node/pkg/authtree"
	"github.com/tendant/profile-property-node/pkg/identity"
	"github.com/tendant/profile-property-node/pkg/profileproperty"
)

func testGenerator() *Generator {
	return NewGenerator("test-secret", "test-issuer", "test-audience", 10*time.Minute)
}

func TestGenerator_RoundTrip(t *testing.T) {
	gen := testGenerator()

	token, expiresAt, err := gen.GenerateToken("bob", "/", map[string]interface{}{"email": "bob@example.com"})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(10*time.Minute), expiresAt, 5*time.Second)

	claims, err := gen.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "bob", claims.Subject)
	assert.Equal(t, "/", claims.Realm)
	assert.Equal(t, "bob@example.com", claims.SessionProperties["email"])
	assert.NotEmpty(t, claims.ID)
}

func TestGenerator_ParseToken_Rejects(t *testing.T) {
	gen := testGenerator()
	token, _, err := gen.GenerateToken("bob", "/", nil)
	require.NoError(t, err)

	other := NewGenerator("other-secret", "test-issuer", "test-audience", time.Minute)
	_, err = other.ParseToken(token)
	assert.Error(t, err)

	wrongAudience := NewGenerator("test-secret", "test-issuer", "someone-else", time.Minute)
	_, err = wrongAudience.ParseToken(token)
	assert.Error(t, err)

	expired := NewGenerator("test-secret", "test-issuer", "test-audience", -time.Minute)
	old, _, err := expired.GenerateToken("bob", "/", nil)
	require.NoError(t, err)
	_, err = gen.ParseToken(old)
	assert.Error(t, err)

	_, err = gen.ParseToken("not-a-token")
	assert.Error(t, err)
}

func TestNode_Declarations(t *testing.T) {
	node, err := NewNode(testGenerator(), []string{"email", "groups"}, true)
	require.NoError(t, err)

	assert.Equal(t, NodeName, node.Name())
	assert.Equal(t, authtree.OrderSessionToken, node.Order())
	assert.Equal(t, []authtree.InputState{
		{Key: authtree.UsernameKey, Required: true},
		{Key: "email", Required: true},
		{Key: "groups", Required: true},
	}, node.Inputs())
	assert.Empty(t, node.Outputs())

	_, err = NewNode(nil, nil, false)
	assert.Error(t, err)
	_, err = NewNode(testGenerator(), []string{""}, false)
	assert.Error(t, err)
}

func TestNode_AfterProfileProperty(t *testing.T) {
	store := identity.NewInMemoryIdentityRepository()
	store.AddIdentity(identity.Identity{
		Username:   "bob",
		Attributes: map[string][]string{"mail": {"bob@example.com"}, "memberOf": {"admins", "staff"}},
	})

	cfg, err := profileproperty.NewConfig("/", map[string]string{"mail": "email", "memberOf": "groups"})
	require.NoError(t, err)
	profileNode, err := profileproperty.NewNode(cfg, store)
	require.NoError(t, err)

	gen := testGenerator()
	tokenNode, err := NewNode(gen, []string{"email", "groups", "phone"}, false)
	require.NoError(t, err)

	executor, err := authtree.NewTreeBuilder().
		AddNode(tokenNode).
		AddNode(profileNode).
		BuildValidated([]string{authtree.UsernameKey})
	require.NoError(t, err)

	result := executor.Execute(context.Background(), authtree.Request{Username: "bob"}, nil)
	require.Nil(t, result.Error)
	assert.Equal(t, []string{profileproperty.NodeName, NodeName}, result.Visited)

	token, ok := result.TransientState[TokenKey].(string)
	require.True(t, ok)
	assert.NotContains(t, result.SharedState, TokenKey)
	assert.Contains(t, result.TransientState, ExpiresAtKey)

	claims, err := gen.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "bob", claims.Subject)
	assert.Equal(t, "bob@example.com", claims.SessionProperties["email"])
	assert.ElementsMatch(t, []interface{}{"admins", "staff"}, claims.SessionProperties["groups"])
	assert.NotContains(t, claims.SessionProperties, "phone")
}

func TestNode_RequiredClaimsNeedUpstreamWriter(t *testing.T) {
	tokenNode, err := NewNode(testGenerator(), []string{"email"}, true)
	require.NoError(t, err)

	_, err = authtree.NewTreeBuilder().AddNode(tokenNode).BuildValidated([]string{authtree.UsernameKey})
	assert.Error(t, err)
}

func TestNode_SkipsWithoutUsername(t *testing.T) {
	tokenNode, err := NewNode(testGenerator(), nil, false)
	require.NoError(t, err)

	result := authtree.NewTreeBuilder().AddNode(tokenNode).Build().
		Execute(context.Background(), authtree.Request{}, nil)
	assert.Empty(t, result.Visited)
	assert.NotContains(t, result.TransientState, TokenKey)
}
