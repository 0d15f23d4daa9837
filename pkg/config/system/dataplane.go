package system

const (
	BackendVPP = "vpp"
	BackendSim = "sim"

	DefaultVPPAPISocket = "/run/vpp/api.sock"
)

type DataplaneConfig struct {
	Backend      string `json:"backend,omitempty" yaml:"backend,omitempty"`
	VPPAPISocket string `json:"vpp_api_socket,omitempty" yaml:"vpp_api_socket,omitempty"`
}

type OpDBConfig struct {
	// Path of the sqlite journal. Empty keeps the journal in memory.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}
