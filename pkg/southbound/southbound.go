package southbound

import "fmt"

var (
	ErrUnavailable = fmt.Errorf("southbound dataplane unavailable")
	ErrNotFound    = fmt.Errorf("fdb entry not found in dataplane")
)

// Southbound is the dataplane surface the FDB daemon programs.
type Southbound interface {
	FDB
	Close() error
}
