package treeapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/profile-property-node/pkg/authtree"
	"github.com/tendant/profile-property-node/pkg/identity"
	"github.com/tendant/profile-property-node/pkg/profileproperty"
	"github.com/tendant/profile-property-node/pkg/sessiontoken"
)

const testSecret = "treeapi-test-secret"

func setupServer(t *testing.T) (*httptest.Server, string) {
	store := identity.NewInMemoryIdentityRepository()
	store.AddIdentity(identity.Identity{
		Username:   "bob",
		Attributes: map[string][]string{"fizz": {"aldrin"}, "foo": {"hello", "world"}},
	})

	cfg, err := profileproperty.NewConfig("/", map[string]string{"fizz": "buzz", "foo": "bar"})
	require.NoError(t, err)
	profileNode, err := profileproperty.NewNode(cfg, store)
	require.NoError(t, err)

	tokenNode, err := sessiontoken.NewNode(
		sessiontoken.NewGenerator(testSecret, "issuer", "audience", time.Minute),
		[]string{"buzz", "bar"}, false)
	require.NoError(t, err)

	executor, err := authtree.NewTreeBuilder().AddNode(profileNode).AddNode(tokenNode).
		BuildValidated([]string{authtree.UsernameKey})
	require.NoError(t, err)

	auth := jwtauth.New("HS256", []byte(testSecret), nil)
	_, bearer, err := auth.Encode(map[string]interface{}{"sub": "tree-client"})
	require.NoError(t, err)

	server := httptest.NewServer(Routes(NewHandler(executor), auth))
	t.Cleanup(server.Close)
	return server, bearer
}

func doRequest(t *testing.T, method, url, bearer string, body interface{}) *http.Response {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestEvaluate(t *testing.T) {
	server, bearer := setupServer(t)

	resp := doRequest(t, http.MethodPost, server.URL+"/evaluate", bearer, EvaluateRequest{
		Username:    "bob",
		SharedState: map[string]interface{}{"existing": "kept"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body EvaluateResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.NotEmpty(t, body.RunID)
	assert.Equal(t, authtree.OutcomeNext, body.Outcome)
	assert.Equal(t, []string{profileproperty.NodeName, sessiontoken.NodeName}, body.Visited)
	assert.Equal(t, "aldrin", body.SharedState["buzz"])
	assert.ElementsMatch(t, []interface{}{"hello", "world"}, body.SharedState["bar"])
	assert.Equal(t, "kept", body.SharedState["existing"])
	assert.NotEmpty(t, body.SessionToken)
}

func TestEvaluate_UnknownUserStillProceeds(t *testing.T) {
	server, bearer := setupServer(t)

	resp := doRequest(t, http.MethodPost, server.URL+"/evaluate", bearer, EvaluateRequest{Username: "ghost"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body EvaluateResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, authtree.OutcomeNext, body.Outcome)
	assert.NotContains(t, body.SharedState, "buzz")
	assert.NotContains(t, body.SharedState, "bar")
}

func TestEvaluate_BadRequests(t *testing.T) {
	server, bearer := setupServer(t)

	tests := []struct {
		name string
		body interface{}
	}{
		{"MissingUsername", EvaluateRequest{}},
		{"NotJSONObject", "just a string"},
		{"NestedState", map[string]interface{}{
			"username":     "bob",
			"shared_state": map[string]interface{}{"nested": map[string]interface{}{"a": "b"}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doRequest(t, http.MethodPost, server.URL+"/evaluate", bearer, tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

			var body ErrorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestWiring(t *testing.T) {
	server, bearer := setupServer(t)

	resp := doRequest(t, http.MethodGet, server.URL+"/wiring", bearer, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body WiringResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Nodes, 2)
	assert.Equal(t, profileproperty.NodeName, body.Nodes[0].Node)
	assert.Equal(t, []authtree.OutputState{{Key: "bar"}, {Key: "buzz"}}, body.Nodes[0].Outputs)
}

func TestRoutes_RequireBearerToken(t *testing.T) {
	server, _ := setupServer(t)

	resp := doRequest(t, http.MethodGet, server.URL+"/wiring", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = doRequest(t, http.MethodGet, server.URL+"/wiring", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
