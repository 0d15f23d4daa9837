package interfaces

type PortConfig struct {
	ID     uint32 `json:"id" yaml:"id"`
	Name   string `json:"name" yaml:"name"`
	Handle uint32 `json:"handle" yaml:"handle"`
}

type AggregatePortConfig struct {
	ID      uint32   `json:"id" yaml:"id"`
	Name    string   `json:"name" yaml:"name"`
	Handle  uint32   `json:"handle" yaml:"handle"`
	Members []string `json:"members,omitempty" yaml:"members,omitempty"`
}

type InterfaceConfig struct {
	ID              uint32   `json:"id" yaml:"id"`
	RouterInterface uint32   `json:"router_interface" yaml:"router_interface"`
	VLAN            uint16   `json:"vlan" yaml:"vlan"`
	Ports           []string `json:"ports,omitempty" yaml:"ports,omitempty"`
}

type StaticMacConfig struct {
	MAC     string  `json:"mac" yaml:"mac"`
	Port    string  `json:"port" yaml:"port"`
	ClassID *uint32 `json:"class_id,omitempty" yaml:"class_id,omitempty"`
}
