// Package circuitfile is a thin JSON deserializer for circuit
// descriptions, accepting either a single circuit object or a named
// collection of circuits in one file.
package circuitfile

import (
	"encoding/json"
	"io"

	"github.com/cockroachdb/errors"

	"github.com/kobakaku/yaogc/circuit"
)

// ErrParse is wrapped by every decoding failure, whether the JSON
// itself is malformed or a gate references an unknown gate type.
var ErrParse = errors.New("circuitfile: failed to parse circuit file")

// jsonGate mirrors one gate's on-disk shape: {"id", "type", "in"}.
type jsonGate struct {
	ID     uint32   `json:"id"`
	Type   string   `json:"type"`
	Inputs []uint32 `json:"in"`
}

// jsonCircuit mirrors one circuit's on-disk shape.
type jsonCircuit struct {
	ID    string     `json:"id"`
	Gates []jsonGate `json:"gates"`
	Alice []uint32   `json:"alice"`
	Bob   []uint32   `json:"bob"`
	Out   []uint32   `json:"out"`
}

// jsonCollection mirrors a named group of circuits stored in one file.
type jsonCollection struct {
	Name     string        `json:"name"`
	Circuits []jsonCircuit `json:"circuits"`
}

// Load reads and parses circuits from r, accepting either a single
// circuit object or a {"name", "circuits": [...]} collection. It does
// not validate the circuits it returns — callers should call
// Circuit.Validate on each before using it.
func Load(r io.Reader) ([]circuit.Circuit, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(ErrParse, err.Error())
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, errors.Wrapf(ErrParse, "invalid JSON: %v", err)
	}

	if _, ok := probe["circuits"]; ok {
		var collection jsonCollection
		if err := json.Unmarshal(data, &collection); err != nil {
			return nil, errors.Wrapf(ErrParse, "invalid circuit collection: %v", err)
		}
		return convertAll(collection.Circuits)
	}

	if _, ok := probe["gates"]; ok {
		var jc jsonCircuit
		if err := json.Unmarshal(data, &jc); err != nil {
			return nil, errors.Wrapf(ErrParse, "invalid circuit: %v", err)
		}
		c, err := convert(jc)
		if err != nil {
			return nil, err
		}
		return []circuit.Circuit{c}, nil
	}

	return nil, errors.Wrap(ErrParse, "file is neither a circuit object nor a circuit collection")
}

func convertAll(jcs []jsonCircuit) ([]circuit.Circuit, error) {
	out := make([]circuit.Circuit, 0, len(jcs))
	for _, jc := range jcs {
		c, err := convert(jc)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func convert(jc jsonCircuit) (circuit.Circuit, error) {
	gates := make([]circuit.Gate, 0, len(jc.Gates))
	for _, jg := range jc.Gates {
		kind, err := circuit.ParseGateKind(jg.Type)
		if err != nil {
			return circuit.Circuit{}, errors.Wrapf(ErrParse, "circuit %q, gate %d: %v", jc.ID, jg.ID, err)
		}
		gates = append(gates, circuit.Gate{
			ID:     circuit.WireID(jg.ID),
			Kind:   kind,
			Inputs: toWireIDs(jg.Inputs),
		})
	}
	return circuit.Circuit{
		ID:          jc.ID,
		Gates:       gates,
		AliceWires:  toWireIDs(jc.Alice),
		BobWires:    toWireIDs(jc.Bob),
		OutputWires: toWireIDs(jc.Out),
	}, nil
}

func toWireIDs(xs []uint32) []circuit.WireID {
	if xs == nil {
		return nil
	}
	out := make([]circuit.WireID, len(xs))
	for i, x := range xs {
		out[i] = circuit.WireID(x)
	}
	return out
}
