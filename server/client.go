// Package server is a thin REST client for publishing extracts to a Quarry
// Server. It covers sign-in with a personal access token, project lookup,
// datasource publishing and incremental data updates with job polling.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// authHeader carries the credentials token on every signed-in request.
const authHeader = "X-Quarry-Auth"

// Client is a signed-in-or-not connection to one Quarry Server site. It is
// not safe for concurrent use before SignIn has completed.
type Client struct {
	config *Config
	http   *http.Client

	// token and siteID are set by SignIn and cleared by SignOut.
	token  string
	siteID string
}

// NewClient creates a client for the given server. No request is sent until
// SignIn is called.
func NewClient(config *Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Client{
		config: config,
		http:   http.DefaultClient,
	}, nil
}

// SiteID returns the ID of the signed-in site.
func (c *Client) SiteID() string {
	return c.siteID
}

type signInRequest struct {
	Credentials signInCredentials `json:"credentials"`
}

type signInCredentials struct {
	TokenName   string     `json:"personalAccessTokenName"`
	TokenSecret string     `json:"personalAccessTokenSecret"`
	Site        signInSite `json:"site"`
}

type signInSite struct {
	ContentURL string `json:"contentUrl"`
}

type signInResponse struct {
	Credentials struct {
		Token string `json:"token"`
		Site  struct {
			ID string `json:"id"`
		} `json:"site"`
	} `json:"credentials"`
}

// SignIn authenticates with the personal access token from the config and
// stores the session token for subsequent requests.
func (c *Client) SignIn(ctx context.Context) error {
	body := signInRequest{
		Credentials: signInCredentials{
			TokenName:   c.config.TokenName,
			TokenSecret: c.config.TokenSecret,
			Site:        signInSite{ContentURL: c.config.Site},
		},
	}

	var resp signInResponse
	if err := c.postJSON(ctx, "/api/v1/auth/signin", body, &resp); err != nil {
		return fmt.Errorf("sign in failed: %w", err)
	}

	c.token = resp.Credentials.Token
	c.siteID = resp.Credentials.Site.ID
	return nil
}

// SignOut invalidates the session token. Safe to call when not signed in.
func (c *Client) SignOut(ctx context.Context) error {
	if c.token == "" {
		return nil
	}
	if err := c.postJSON(ctx, "/api/v1/auth/signout", nil, nil); err != nil {
		return fmt.Errorf("sign out failed: %w", err)
	}
	c.token = ""
	c.siteID = ""
	return nil
}

// postJSON sends a JSON POST and decodes the JSON response into out (when
// out is non-nil). Expects 200; other statuses become an APIError.
func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Endpoint+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set(authHeader, c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer sneakyBodyClose(resp.Body)
	if err := checkStatusCodeOK(resp); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// getJSON sends a GET and decodes the JSON response. Requires a signed-in
// session.
func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	if c.token == "" {
		return ErrNotSignedIn
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.Endpoint+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(authHeader, c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer sneakyBodyClose(resp.Body)
	if err := checkStatusCodeOK(resp); err != nil {
		return err
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
