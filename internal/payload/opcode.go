package payload

import (
	"fmt"

	"github.com/svscagn/skadi/internal/types"
)

// OpCode tags every envelope so consumers can route on it without looking at
// the payload shape. The numeric values are part of the wire format.
type OpCode uint16

const (
	OpError         OpCode = 0
	OpSysinfo       OpCode = 1
	OpWindowChanged OpCode = 2
	OpWorkspace     OpCode = 3
	OpSpotifyEvent  OpCode = 4
	OpVolumeEvent   OpCode = 5
)

func (o OpCode) String() string {
	switch o {
	case OpError:
		return "Error"
	case OpSysinfo:
		return "Sysinfo"
	case OpWindowChanged:
		return "WindowChanged"
	case OpWorkspace:
		return "Workspace"
	case OpSpotifyEvent:
		return "SpotifyEvent"
	case OpVolumeEvent:
		return "VolumeEvent"
	default:
		return fmt.Sprintf("OpCode(%d)", uint16(o))
	}
}

// ParseOpCode maps a wire integer back to an OpCode. The backend only ever
// consumes error and sysinfo frames, so those are the only opcodes it accepts.
func ParseOpCode(n uint16) (OpCode, error) {
	switch OpCode(n) {
	case OpError, OpSysinfo:
		return OpCode(n), nil
	default:
		return 0, &BackendError{
			Kind:   types.ErrorInvalidOpCode,
			detail: fmt.Sprintf("invalid opcode: %d", n),
		}
	}
}
