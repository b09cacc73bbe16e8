// Package garble implements the garbling engine: it turns a validated
// circuit into a garbled circuit, assigning two random labels to every
// wire and producing, for every gate, an encrypted truth table whose
// row order carries no information about which cleartext index
// produced it.
package garble

import (
	"encoding/binary"
	"io"

	"github.com/cockroachdb/errors"

	"github.com/kobakaku/yaogc/circuit"
	"github.com/kobakaku/yaogc/label"
)

// GarbledGate is one gate's encrypted truth table. Rows are stored in
// random order; the evaluator must recover the output label by trial
// decryption, never by indexing.
type GarbledGate struct {
	ID     circuit.WireID
	Kind   circuit.GateKind
	Inputs []circuit.WireID
	Rows   [][]byte
}

// GarbledCircuit is the complete output of garbling: the circuit
// structure, the label pair for every wire (known only to the
// garbler — Alice), and the garbled gate tables (which Alice transmits
// to Bob, without the label pairs).
type GarbledCircuit struct {
	Circuit *circuit.Circuit
	Labels  map[circuit.WireID]label.Pair
	Gates   []GarbledGate
}

// Garble garbles c, drawing all randomness (wire labels and row
// shuffles) from rnd. Identical (circuit, rnd-stream) inputs produce
// identical garbled circuits — rnd is the sole source of
// nondeterminism, so tests can substitute a seeded stream to assert
// determinism.
func Garble(c *circuit.Circuit, rnd io.Reader) (*GarbledCircuit, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	labels := make(map[circuit.WireID]label.Pair, len(c.Wires()))
	for _, w := range c.Wires() {
		l0, err := label.New(rnd)
		if err != nil {
			return nil, errors.Wrapf(err, "garble: generating label 0 for wire %d", w)
		}
		l1, err := label.New(rnd)
		if err != nil {
			return nil, errors.Wrapf(err, "garble: generating label 1 for wire %d", w)
		}
		labels[w] = label.Pair{L0: l0, L1: l1}
	}

	gates := make([]GarbledGate, len(c.Gates))
	for i, g := range c.Gates {
		rows, err := garbleGate(g, labels, rnd)
		if err != nil {
			return nil, errors.Wrapf(err, "garble: gate %d", g.ID)
		}
		gates[i] = GarbledGate{
			ID:     g.ID,
			Kind:   g.Kind,
			Inputs: g.Inputs,
			Rows:   rows,
		}
	}

	return &GarbledCircuit{
		Circuit: c,
		Labels:  labels,
		Gates:   gates,
	}, nil
}

// truthTable evaluates the cleartext truth table for kind.
func truthTable(kind circuit.GateKind, bits ...uint8) uint8 {
	switch kind {
	case circuit.AND:
		if bits[0] == 1 && bits[1] == 1 {
			return 1
		}
		return 0
	case circuit.OR:
		if bits[0] == 1 || bits[1] == 1 {
			return 1
		}
		return 0
	case circuit.NOT:
		return 1 - bits[0]
	default:
		return 0
	}
}

// garbleGate produces one gate's table, encrypted and in random row
// order.
func garbleGate(g circuit.Gate, labels map[circuit.WireID]label.Pair, rnd io.Reader) ([][]byte, error) {
	var rows [][]byte

	switch g.Kind {
	case circuit.AND, circuit.OR:
		pairA := labels[g.Inputs[0]]
		pairB := labels[g.Inputs[1]]
		outPair := labels[g.ID]

		for a := uint8(0); a < 2; a++ {
			for b := uint8(0); b < 2; b++ {
				r := truthTable(g.Kind, a, b)
				inner, err := label.Encrypt(pairA.Of(a), outPair.Of(r).Bytes())
				if err != nil {
					return nil, err
				}
				outer, err := label.Encrypt(pairB.Of(b), inner)
				if err != nil {
					return nil, err
				}
				rows = append(rows, outer)
			}
		}

	case circuit.NOT:
		pairIn := labels[g.Inputs[0]]
		outPair := labels[g.ID]

		for b := uint8(0); b < 2; b++ {
			r := truthTable(g.Kind, b)
			entry, err := label.Encrypt(pairIn.Of(b), outPair.Of(r).Bytes())
			if err != nil {
				return nil, err
			}
			rows = append(rows, entry)
		}

	default:
		return nil, errors.Newf("garble: unsupported gate kind %s", g.Kind)
	}

	if err := shuffle(rows, rnd); err != nil {
		return nil, err
	}
	return rows, nil
}

// shuffle performs an in-place Fisher-Yates shuffle of rows, drawing
// indices from rnd so the row order leaks nothing about which
// cleartext index produced each ciphertext.
func shuffle(rows [][]byte, rnd io.Reader) error {
	for i := len(rows) - 1; i > 0; i-- {
		j, err := randIntn(rnd, i+1)
		if err != nil {
			return err
		}
		rows[i], rows[j] = rows[j], rows[i]
	}
	return nil
}

// randIntn returns a uniform random integer in [0, n) read from rnd.
// n is always tiny here (at most 4), so the modest modulo bias from an
// 8-byte read is negligible.
func randIntn(rnd io.Reader, n int) (int, error) {
	var buf [8]byte
	if _, err := io.ReadFull(rnd, buf[:]); err != nil {
		return 0, errors.Wrap(err, "garble: failed to read shuffle entropy")
	}
	return int(binary.BigEndian.Uint64(buf[:]) % uint64(n)), nil
}
