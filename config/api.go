package config

// APIConfig defines settings for the HTTP API server.
type APIConfig struct {
	// Addr is the listen address of the dispatch API.
	Addr string `json:"addr"`
	// AuthToken protects the decision log endpoint. Empty disables the check.
	AuthToken string `json:"auth_token"`
}

// SetDefaults applies sane defaults.
func (c *APIConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
}
