package dispatch

// Config defines dispatch-related settings.
type Config struct {
	// Mode selects auto-commit or human approval: "auto" or "approve".
	Mode string `json:"mode"`
	// MaxInflightETA bounds concurrent ETA lookups per ranking call.
	MaxInflightETA int `json:"max_inflight_eta"`
	// ProbeCount, ProbeStepMinutes, ServiceMinutes and SlotsKept tune the
	// candidate slot generator. Zero values keep the defaults.
	ProbeCount       int `json:"probe_count"`
	ProbeStepMinutes int `json:"probe_step_minutes"`
	ServiceMinutes   int `json:"service_minutes"`
	SlotsKept        int `json:"slots_kept"`
	// Weights overrides the scoring coefficients. A zero value keeps the
	// documented defaults.
	Weights *Weights `json:"weights,omitempty"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Mode == "" {
		c.Mode = string(ModeApprove)
	}
	if c.MaxInflightETA <= 0 {
		c.MaxInflightETA = DefaultMaxInflightETA
	}
}

// ScorerWeights returns the configured weights or the defaults.
func (c Config) ScorerWeights() Weights {
	if c.Weights == nil {
		return DefaultWeights()
	}
	return *c.Weights
}
