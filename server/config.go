package server

import "errors"

// Config defines the connection settings for a Quarry Server.
type Config struct {
	// Endpoint is the base URL of the server, e.g. "https://quarry.example.com".
	Endpoint string `json:"endpoint"`
	// Site is the content URL of the site to sign in to. Empty selects the
	// default site.
	Site string `json:"site"`
	// TokenName is the name of the personal access token.
	TokenName string `json:"token_name"`
	// TokenSecret is the secret value of the personal access token.
	TokenSecret string `json:"token_secret"`
}

// Validate checks that the config carries everything SignIn needs.
func (c *Config) Validate() error {
	if c.Endpoint == "" {
		return errors.New("server: endpoint must not be empty")
	}
	if c.TokenName == "" || c.TokenSecret == "" {
		return errors.New("server: personal access token name and secret must not be empty")
	}
	return nil
}
