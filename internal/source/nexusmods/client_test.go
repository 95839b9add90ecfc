package nexusmods_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DonovanMods/me3-mod-manager/internal/domain"
	"github.com/DonovanMods/me3-mod-manager/internal/source/nexusmods"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type gqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

// newServer answers every GraphQL request with handler's data and records the last request headers
func newServer(t *testing.T, handler func(req gqlRequest) any) (*httptest.Server, *http.Header) {
	t.Helper()
	var lastHeader http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lastHeader = r.Header.Clone()
		var req gqlRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"data": handler(req)})
	}))
	t.Cleanup(server.Close)
	return server, &lastHeader
}

func TestClient_GetMod(t *testing.T) {
	var got gqlRequest
	server, header := newServer(t, func(req gqlRequest) any {
		got = req
		return map[string]any{
			"legacyModsByDomain": map[string]any{
				"nodes": []map[string]any{{
					"modId": 510, "name": "Seamless Co-op", "version": "1.9.0",
					"author": "LukeYui", "endorsements": 100, "downloads": 5000,
				}},
			},
		}
	})

	client := nexusmods.NewClient(nil, "secret", nexusmods.WithEndpoint(server.URL))
	assert.True(t, client.IsAuthenticated())

	mod, err := client.GetMod(context.Background(), "eldenring", 510)
	require.NoError(t, err)
	assert.Equal(t, "Seamless Co-op", mod.Name)
	assert.Equal(t, "1.9.0", mod.Version)
	assert.Equal(t, 5000, mod.Downloads)
	assert.Equal(t, "eldenring", mod.GameDomain)
	assert.Equal(t, "https://www.nexusmods.com/eldenring/mods/510", mod.URL())

	assert.Contains(t, got.Query, "legacyModsByDomain")
	assert.Equal(t, "eldenring", got.Variables["gameDomain"])
	assert.EqualValues(t, 510, got.Variables["modId"])
	assert.Equal(t, "secret", header.Get("apikey"))
}

func TestClient_GetMod_NotFound(t *testing.T) {
	server, _ := newServer(t, func(req gqlRequest) any {
		return map[string]any{"legacyModsByDomain": map[string]any{"nodes": []any{}}}
	})

	client := nexusmods.NewClient(nil, "", nexusmods.WithEndpoint(server.URL))
	assert.False(t, client.IsAuthenticated())

	_, err := client.GetMod(context.Background(), "eldenring", 1)
	assert.ErrorIs(t, err, domain.ErrModNotFound)
}

func TestClient_SearchMods(t *testing.T) {
	var got gqlRequest
	server, header := newServer(t, func(req gqlRequest) any {
		got = req
		return map[string]any{
			"mods": map[string]any{
				"nodes": []map[string]any{
					{"modId": 510, "name": "Seamless Co-op"},
					{"modId": 3098, "name": "Seamless Co-op Unlocked"},
				},
			},
		}
	})

	client := nexusmods.NewClient(nil, "", nexusmods.WithEndpoint(server.URL))
	mods, err := client.SearchMods(context.Background(), "eldenring", "seamless", 5)
	require.NoError(t, err)
	require.Len(t, mods, 2)
	assert.Equal(t, 3098, mods[1].ModID)

	assert.Equal(t, "*seamless*", got.Variables["name"])
	assert.EqualValues(t, 5, got.Variables["count"])
	assert.Empty(t, header.Get("apikey"))
}

func TestClient_GraphQLError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"errors":[{"message":"rate limited"}]}`))
	}))
	defer server.Close()

	client := nexusmods.NewClient(nil, "", nexusmods.WithEndpoint(server.URL))
	_, err := client.SearchMods(context.Background(), "eldenring", "x", 1)
	assert.ErrorContains(t, err, "rate limited")
}

func TestModIDFromURL(t *testing.T) {
	id, ok := nexusmods.ModIDFromURL("https://www.nexusmods.com/eldenring/mods/510?tab=files")
	assert.True(t, ok)
	assert.Equal(t, 510, id)

	_, ok = nexusmods.ModIDFromURL("https://example.com/nothing")
	assert.False(t, ok)
}
