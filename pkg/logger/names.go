package logger

const (
	Main       = "main"
	FDB        = "fdb"
	HwStore    = "hwstore"
	Southbound = "southbound"
	DepBus     = "depbus"
	Events     = "events"
	Topology   = "topology"
	Bridge     = "bridge"
	LinkMon    = "linkmon"
	Gateway    = "gateway"
	Exporter   = "exporter"
	OpDB       = "opdb"
	Config     = "config"
)
