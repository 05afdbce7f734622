package action

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kaptinlin/jsonrepair"
)

// ErrUnknownType indicates a command whose "type" field names no variant.
var ErrUnknownType = errors.New("unknown action type")

// DecodeError reports why a single command failed to decode.
type DecodeError struct {
	Index int    // position within the wire array, -1 for standalone decodes
	Type  string // wire type tag, if one was present
	Err   error
}

func (e *DecodeError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("decode action %d (%s): %v", e.Index, e.Type, e.Err)
	}
	return fmt.Sprintf("decode action (%s): %v", e.Type, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// DecodeOne parses a single command object. Unknown type tags return an
// error wrapping ErrUnknownType.
func DecodeOne(data []byte) (Action, error) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, &DecodeError{Index: -1, Err: err}
	}

	var (
		act Action
		err error
	)
	switch envelope.Type {
	case TypeAddNode:
		var a AddNode
		err = json.Unmarshal(data, &a)
		act = a
	case TypeAddEdge:
		var a AddEdge
		err = json.Unmarshal(data, &a)
		act = a
	case TypeDeleteNode:
		var a DeleteNode
		err = json.Unmarshal(data, &a)
		act = a
	case TypeUpdateNode:
		var a UpdateNode
		err = json.Unmarshal(data, &a)
		act = a
	case TypeGenerateWorkflow:
		var a GenerateWorkflow
		err = json.Unmarshal(data, &a)
		act = a
	default:
		return nil, &DecodeError{Index: -1, Type: envelope.Type, Err: ErrUnknownType}
	}
	if err != nil {
		return nil, &DecodeError{Index: -1, Type: envelope.Type, Err: err}
	}
	return act, nil
}

// Decode parses the wire array of commands. Individual entries that fail to
// decode, including unknown type tags, are skipped with a warning so one bad
// command never discards a batch; only a broken envelope is an error.
func Decode(data []byte) ([]Action, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode actions: %w", err)
	}

	out := make([]Action, 0, len(raw))
	for i, entry := range raw {
		act, err := DecodeOne(entry)
		if err != nil {
			var de *DecodeError
			if errors.As(err, &de) {
				de.Index = i
			}
			slog.Warn("skipping undecodable action", "index", i, "error", err)
			continue
		}
		out = append(out, act)
	}
	return out, nil
}

// DecodeLenient runs the input through jsonrepair before decoding. LLMs
// produce trailing commas, single quotes, and unquoted keys often enough
// that the strict parse is tried first and the repaired form second.
func DecodeLenient(data []byte) ([]Action, error) {
	actions, err := Decode(data)
	if err == nil {
		return actions, nil
	}

	repaired, repairErr := jsonrepair.JSONRepair(string(data))
	if repairErr != nil {
		return nil, fmt.Errorf("decode actions: %w (repair also failed: %v)", err, repairErr)
	}
	return Decode([]byte(repaired))
}
