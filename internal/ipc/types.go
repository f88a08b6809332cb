package ipc

import "github.com/svscagn/skadi/internal/supervisor"

// StatusProvider is what the status socket reports on.
type StatusProvider interface {
	Adapters() []supervisor.AdapterStatus
	Emitted() map[string]uint64
}

type StatusResponse struct {
	Status   string                     `json:"status"`
	Message  string                     `json:"message"`
	Version  string                     `json:"version"`
	PID      int                        `json:"pid"`
	Socket   string                     `json:"socket"`
	Config   string                     `json:"config"`
	Adapters []supervisor.AdapterStatus `json:"adapters"`
	Emitted  map[string]uint64          `json:"emitted"`
}
