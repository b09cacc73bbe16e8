// Package evaluator implements the garbled-circuit evaluator: given a
// garbled circuit's gate tables and exactly one label per input wire
// (the labels corresponding to the real inputs, never both), it walks
// the gates in order and recovers exactly one label per wire by trial
// decryption, never by indexing into the table.
package evaluator

import (
	"github.com/cockroachdb/errors"

	"github.com/kobakaku/yaogc/circuit"
	"github.com/kobakaku/yaogc/garble"
	"github.com/kobakaku/yaogc/label"
)

// ErrEvalStuck is wrapped by a StuckError: no row in a gate's table
// decrypted successfully under the evaluator's input labels. This
// happens when a label the evaluator holds is not one of its wire's
// two labels, or when the table itself is damaged.
var ErrEvalStuck = errors.New("evaluator: no table row decrypted for gate")

// ErrEvalCorrupt is wrapped by a CorruptError: more than one row decrypted
// successfully, or a row decrypted to a payload that is not exactly one
// label long, which can only happen if the garbled table or an input
// label was tampered with or malformed.
var ErrEvalCorrupt = errors.New("evaluator: garbled table produced an ambiguous result")

// StuckError reports that gate's table yielded no successful trial
// decryption.
type StuckError struct {
	GateID circuit.WireID
}

func (e *StuckError) Error() string {
	return errors.Wrapf(ErrEvalStuck, "gate %d", e.GateID).Error()
}

func (e *StuckError) Unwrap() error { return ErrEvalStuck }

// CorruptError reports that wire's value could not be trusted: either
// more than one row decrypted, or the decrypted payload was not a
// well-formed label.
type CorruptError struct {
	WireID circuit.WireID
	Reason string
}

func (e *CorruptError) Error() string {
	return errors.Wrapf(ErrEvalCorrupt, "wire %d: %s", e.WireID, e.Reason).Error()
}

func (e *CorruptError) Unwrap() error { return ErrEvalCorrupt }

// Evaluator walks a garbled circuit's gates, given one concrete label
// per wire as they become available.
type Evaluator struct {
	circuit *circuit.Circuit
	gates   map[circuit.WireID]garble.GarbledGate
}

// New builds an Evaluator for c's gate tables. gates need not be in any
// particular order; they are looked up by gate ID as the evaluator
// walks c's own gate order.
func New(c *circuit.Circuit, gates []garble.GarbledGate) *Evaluator {
	byID := make(map[circuit.WireID]garble.GarbledGate, len(gates))
	for _, g := range gates {
		byID[g.ID] = g
	}
	return &Evaluator{circuit: c, gates: byID}
}

// Evaluate walks every gate of the circuit in order, starting from
// inputLabels (the evaluator's known label for every primary input
// wire), and returns the recovered label for every output wire.
//
// inputLabels must contain exactly one label per primary input wire —
// never both labels of any pair, or the evaluator could compute values
// the garbler never authorized.
func (e *Evaluator) Evaluate(inputLabels map[circuit.WireID]label.Label) (map[circuit.WireID]label.Label, error) {
	known := make(map[circuit.WireID]label.Label, len(inputLabels))
	for w, l := range inputLabels {
		known[w] = l
	}

	for _, g := range e.circuit.Gates {
		gg, ok := e.gates[g.ID]
		if !ok {
			return nil, errors.Newf("evaluator: no garbled table for gate %d", g.ID)
		}
		out, err := evalGate(g, gg, known)
		if err != nil {
			return nil, err
		}
		known[g.ID] = out
	}

	outputs := make(map[circuit.WireID]label.Label, len(e.circuit.OutputWires))
	for _, w := range e.circuit.OutputWires {
		l, ok := known[w]
		if !ok {
			return nil, errors.Newf("evaluator: output wire %d was never produced", w)
		}
		outputs[w] = l
	}
	return outputs, nil
}

// evalGate recovers the output label of one gate by trial decryption:
// it tries every row in gg.Rows (whose order carries no information)
// against the evaluator's known input labels, and requires exactly one
// to succeed.
func evalGate(g circuit.Gate, gg garble.GarbledGate, known map[circuit.WireID]label.Label) (label.Label, error) {
	switch g.Kind {
	case circuit.AND, circuit.OR:
		labelA, ok := known[g.Inputs[0]]
		if !ok {
			return label.Label{}, errors.Newf("evaluator: missing label for wire %d", g.Inputs[0])
		}
		labelB, ok := known[g.Inputs[1]]
		if !ok {
			return label.Label{}, errors.Newf("evaluator: missing label for wire %d", g.Inputs[1])
		}

		var found *label.Label
		for _, row := range gg.Rows {
			inner, err := label.Decrypt(labelB, row)
			if err != nil {
				continue
			}
			plain, err := label.Decrypt(labelA, inner)
			if err != nil {
				continue
			}
			if len(plain) != label.Size {
				return label.Label{}, &CorruptError{WireID: g.ID, Reason: "decrypted payload is not a well-formed label"}
			}
			outLabel := label.Label(plain)
			if found != nil {
				return label.Label{}, &CorruptError{WireID: g.ID, Reason: "more than one row decrypted"}
			}
			l := outLabel
			found = &l
		}
		if found == nil {
			return label.Label{}, &StuckError{GateID: g.ID}
		}
		return *found, nil

	case circuit.NOT:
		labelIn, ok := known[g.Inputs[0]]
		if !ok {
			return label.Label{}, errors.Newf("evaluator: missing label for wire %d", g.Inputs[0])
		}

		var found *label.Label
		for _, row := range gg.Rows {
			plain, err := label.Decrypt(labelIn, row)
			if err != nil {
				continue
			}
			if len(plain) != label.Size {
				return label.Label{}, &CorruptError{WireID: g.ID, Reason: "decrypted payload is not a well-formed label"}
			}
			outLabel := label.Label(plain)
			if found != nil {
				return label.Label{}, &CorruptError{WireID: g.ID, Reason: "more than one row decrypted"}
			}
			l := outLabel
			found = &l
		}
		if found == nil {
			return label.Label{}, &StuckError{GateID: g.ID}
		}
		return *found, nil

	default:
		return label.Label{}, errors.Newf("evaluator: unsupported gate kind %s", g.Kind)
	}
}
