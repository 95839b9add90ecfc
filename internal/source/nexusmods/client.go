// Package nexusmods queries the Nexus Mods GraphQL API.
package nexusmods

import (
	"context"
	"fmt"
	"net/http"

	"github.com/hasura/go-graphql-client"

	"github.com/DonovanMods/me3-mod-manager/internal/domain"
)

// DefaultEndpoint is the public v2 GraphQL endpoint
const DefaultEndpoint = "https://api.nexusmods.com/v2/graphql"

// Client wraps the Nexus Mods GraphQL API
type Client struct {
	gql    *graphql.Client
	apiKey string
}

// Option customises a Client
type Option func(*clientOptions)

type clientOptions struct {
	endpoint string
}

// WithEndpoint points the client at another GraphQL server
func WithEndpoint(url string) Option {
	return func(o *clientOptions) { o.endpoint = url }
}

// NewClient creates a new client. A nil httpClient uses the default transport.
func NewClient(httpClient *http.Client, apiKey string, opts ...Option) *Client {
	options := clientOptions{endpoint: DefaultEndpoint}
	for _, opt := range opts {
		opt(&options)
	}

	var base http.RoundTripper
	if httpClient != nil {
		base = httpClient.Transport
	}
	authed := &http.Client{Transport: &apiKeyTransport{base: base, apiKey: apiKey}}

	return &Client{
		gql:    graphql.NewClient(options.endpoint, authed),
		apiKey: apiKey,
	}
}

// IsAuthenticated reports whether an API key is configured
func (c *Client) IsAuthenticated() bool {
	return c.apiKey != ""
}

type apiKeyTransport struct {
	base   http.RoundTripper
	apiKey string
}

func (t *apiKeyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.apiKey != "" {
		req = req.Clone(req.Context())
		req.Header.Set("apikey", t.apiKey)
	}
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}

// GetMod fetches one mod of a game domain
func (c *Client) GetMod(ctx context.Context, gameDomain string, modID int) (*Mod, error) {
	var query struct {
		Mods struct {
			Nodes []modNode `graphql:"nodes"`
		} `graphql:"legacyModsByDomain(ids: [{gameDomain: $gameDomain, modId: $modId}])"`
	}

	variables := map[string]any{
		"gameDomain": graphql.String(gameDomain),
		"modId":      graphql.Int(modID),
	}

	if err := c.gql.Query(ctx, &query, variables); err != nil {
		return nil, fmt.Errorf("querying mod: %w", err)
	}
	if len(query.Mods.Nodes) == 0 {
		return nil, fmt.Errorf("%w: %s mod %d", domain.ErrModNotFound, gameDomain, modID)
	}

	mod := query.Mods.Nodes[0].toMod(gameDomain)
	return &mod, nil
}

// SearchMods finds mods of a game domain whose name contains search
func (c *Client) SearchMods(ctx context.Context, gameDomain, search string, limit int) ([]Mod, error) {
	var query struct {
		Mods struct {
			Nodes []modNode `graphql:"nodes"`
		} `graphql:"mods(filter: {gameDomainName: {value: $gameDomain}, name: {value: $name, op: WILDCARD}}, count: $count)"`
	}

	variables := map[string]any{
		"gameDomain": graphql.String(gameDomain),
		"name":       graphql.String("*" + search + "*"),
		"count":      graphql.Int(limit),
	}

	if err := c.gql.Query(ctx, &query, variables); err != nil {
		return nil, fmt.Errorf("searching mods: %w", err)
	}

	mods := make([]Mod, 0, len(query.Mods.Nodes))
	for _, n := range query.Mods.Nodes {
		mods = append(mods, n.toMod(gameDomain))
	}
	return mods, nil
}
