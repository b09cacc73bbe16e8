// Package circuit defines the abstract Boolean circuit model shared by
// the garbler and evaluator: wires, gates, and the party-input
// assignment that splits primary inputs between Alice and Bob.
package circuit

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// WireID identifies a wire. 0 is reserved and never a valid wire ID.
type WireID uint32

// GateKind is a closed tag for the three gate types this circuit model
// supports. Unlike a string tag, an unrecognized GateKind value is
// rejected at load/validate time rather than surfacing as a runtime
// panic during garbling or evaluation.
type GateKind uint8

// The three supported gate kinds.
const (
	AND GateKind = iota
	OR
	NOT
)

// String renders the gate kind the way circuit files spell it.
func (k GateKind) String() string {
	switch k {
	case AND:
		return "AND"
	case OR:
		return "OR"
	case NOT:
		return "NOT"
	default:
		return fmt.Sprintf("GateKind(%d)", uint8(k))
	}
}

// Arity returns the number of input wires a gate of this kind takes.
func (k GateKind) Arity() int {
	switch k {
	case AND, OR:
		return 2
	case NOT:
		return 1
	default:
		return 0
	}
}

// ParseGateKind converts a circuit file's string spelling into a
// GateKind, rejecting anything unrecognized.
func ParseGateKind(s string) (GateKind, error) {
	switch s {
	case "AND":
		return AND, nil
	case "OR":
		return OR, nil
	case "NOT":
		return NOT, nil
	default:
		return 0, errors.Wrapf(ErrInvalid, "unknown gate type %q", s)
	}
}

// Gate is one node of the circuit DAG. ID also names the gate's output
// wire. Inputs has length GateKind.Arity().
type Gate struct {
	ID     WireID
	Kind   GateKind
	Inputs []WireID
}

// Circuit is an ordered Boolean circuit: a DAG of gates given in
// topological order, plus the party-input assignment and the set of
// output wires.
type Circuit struct {
	ID          string
	Gates       []Gate
	AliceWires  []WireID
	BobWires    []WireID
	OutputWires []WireID
}

// ErrInvalid is the sentinel wrapped by every circuit validation
// failure; use errors.Is(err, ErrInvalid) to test for it, and the
// error's message for the specific reason.
var ErrInvalid = errors.New("circuit: invalid circuit")

// Validate checks the four structural requirements of spec.md §4.C:
// every gate reference is to a previously defined wire (which also
// rules out cycles, since the circuit is required to list gates in
// topological order), every gate has the correct arity for its kind,
// every output wire is produced by some gate or is a primary input, and
// every primary input belongs to exactly one party.
func (c *Circuit) Validate() error {
	defined := make(map[WireID]bool)
	aliceSet := wireSet(c.AliceWires)
	bobSet := wireSet(c.BobWires)

	for w := range aliceSet {
		if bobSet[w] {
			return errors.Wrapf(ErrInvalid, "wire %d claimed by both Alice and Bob", w)
		}
		defined[w] = true
	}
	for w := range bobSet {
		defined[w] = true
	}

	if len(aliceSet) == 0 && len(bobSet) == 0 {
		return errors.Wrap(ErrInvalid, "circuit has no primary inputs")
	}

	for i, g := range c.Gates {
		if g.ID == 0 {
			return errors.Wrap(ErrInvalid, "wire ID 0 is reserved")
		}
		if g.Kind.Arity() == 0 {
			return errors.Wrapf(ErrInvalid, "gate %d: unknown gate kind %s", g.ID, g.Kind)
		}
		if len(g.Inputs) != g.Kind.Arity() {
			return errors.Wrapf(ErrInvalid, "gate %d (%s): expected %d inputs, got %d",
				g.ID, g.Kind, g.Kind.Arity(), len(g.Inputs))
		}
		for _, in := range g.Inputs {
			if !defined[in] {
				return errors.Wrapf(ErrInvalid,
					"gate %d: input wire %d is undefined at this point in the circuit (undefined reference or cycle)",
					g.ID, in)
			}
		}
		if defined[g.ID] {
			return errors.Wrapf(ErrInvalid, "wire %d is produced by more than one gate", g.ID)
		}
		defined[g.ID] = true
		_ = i
	}

	if len(c.OutputWires) == 0 {
		return errors.Wrap(ErrInvalid, "circuit declares no output wires")
	}
	for _, o := range c.OutputWires {
		if !defined[o] {
			return errors.Wrapf(ErrInvalid, "output wire %d is produced by no gate and is not a primary input", o)
		}
	}

	return nil
}

// Wires returns every wire ID appearing in the circuit, as either a
// gate input or a gate output, in no particular order. This is the set
// the garbler assigns label pairs to.
func (c *Circuit) Wires() []WireID {
	seen := make(map[WireID]bool)
	var wires []WireID
	add := func(w WireID) {
		if !seen[w] {
			seen[w] = true
			wires = append(wires, w)
		}
	}
	for _, w := range c.AliceWires {
		add(w)
	}
	for _, w := range c.BobWires {
		add(w)
	}
	for _, g := range c.Gates {
		for _, in := range g.Inputs {
			add(in)
		}
		add(g.ID)
	}
	return wires
}

// String renders a one-line summary: gate counts per kind and total
// wire count.
func (c *Circuit) String() string {
	var counts [3]int
	for _, g := range c.Gates {
		counts[g.Kind]++
	}
	return fmt.Sprintf("circuit %q: %d gates (AND=%d OR=%d NOT=%d), %d wires",
		c.ID, len(c.Gates), counts[AND], counts[OR], counts[NOT], len(c.Wires()))
}

func wireSet(ws []WireID) map[WireID]bool {
	m := make(map[WireID]bool, len(ws))
	for _, w := range ws {
		m[w] = true
	}
	return m
}
