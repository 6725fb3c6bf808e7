package mock

// Config describes the local target server
type Config struct {
	Addr   string  `json:"addr" yaml:"addr" toml:"addr"`
	Routes []Route `json:"routes" yaml:"routes" toml:"routes"`
}

// Route is one canned response. Routes are matched in order; the first whose
// method and path match wins.
type Route struct {
	Name     string            `json:"name,omitempty" yaml:"name,omitempty" toml:"name"`
	Method   string            `json:"method" yaml:"method" toml:"method"`                              // "*" matches any method
	Path     string            `json:"path" yaml:"path" toml:"path"`                                    // URL path pattern
	PathType string            `json:"path_type,omitempty" yaml:"path_type,omitempty" toml:"path_type"` // exact, prefix, regex (default: exact)
	Status   int               `json:"status,omitempty" yaml:"status,omitempty" toml:"status"`
	Headers  map[string]string `json:"headers,omitempty" yaml:"headers,omitempty" toml:"headers"`
	Body     string            `json:"body,omitempty" yaml:"body,omitempty" toml:"body"`
	DelayMs  int               `json:"delay_ms,omitempty" yaml:"delay_ms,omitempty" toml:"delay_ms"`
}
