package system

const (
	DefaultGatewayAddress = "127.0.0.1:50051"
	DefaultMetricsAddress = ":9090"
)

type GatewayConfig struct {
	ListenAddress string `json:"listen_address,omitempty" yaml:"listen_address,omitempty"`
}

type MetricsConfig struct {
	Enabled       bool   `json:"enabled" yaml:"enabled"`
	ListenAddress string `json:"listen_address,omitempty" yaml:"listen_address,omitempty"`
}

type LinkMonitorConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled"`
	// Netns is the named network namespace the dataplane ports live in.
	// Empty means the daemon's own namespace.
	Netns string `json:"netns,omitempty" yaml:"netns,omitempty"`
}
