// Package payload defines the tagged envelope written to stdout for every
// observed change, and the closed set of payloads it can carry.
package payload

import (
	"encoding/json"
	"fmt"
)

// Payload is implemented only by the event types in this package.
type Payload interface {
	Op() OpCode
	isPayload()
}

// Envelope wraps one payload. Its opcode is always derived from the payload,
// so the two can never disagree.
type Envelope struct {
	data Payload
}

func New(p Payload) Envelope {
	return Envelope{data: p}
}

func (e Envelope) Op() OpCode {
	return e.data.Op()
}

func (e Envelope) Data() Payload {
	return e.data
}

type wireEnvelope struct {
	Op   OpCode `json:"op"`
	Data any    `json:"data"`
}

func (e Envelope) MarshalJSON() ([]byte, error) {
	if e.data == nil {
		return nil, fmt.Errorf("envelope has no payload")
	}
	return json.Marshal(wireEnvelope{Op: e.data.Op(), Data: e.data})
}

// Encode serializes the envelope as a single JSON line, without the newline.
func Encode(e Envelope) ([]byte, error) {
	return json.Marshal(e)
}

// Decode parses a line produced by Encode. Only error and sysinfo frames can
// be decoded; every other opcode yields an InvalidOpCode error.
func Decode(line []byte) (Envelope, error) {
	var raw struct {
		Op   uint16          `json:"op"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(line, &raw); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}

	op, err := ParseOpCode(raw.Op)
	if err != nil {
		return Envelope{}, err
	}

	switch op {
	case OpError:
		be := &BackendError{}
		if err := json.Unmarshal(raw.Data, be); err != nil {
			return Envelope{}, fmt.Errorf("decode error payload: %w", err)
		}
		return New(be), nil
	default:
		var s Sysinfo
		if err := json.Unmarshal(raw.Data, &s); err != nil {
			return Envelope{}, fmt.Errorf("decode sysinfo payload: %w", err)
		}
		return New(s), nil
	}
}
