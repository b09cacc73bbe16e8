// Package twoparty orchestrates the full two-party protocol: Alice
// garbles, transfers Bob's input labels via oblivious transfer, Bob
// evaluates, and Alice decodes the result. Neither party ever learns
// the other's private inputs beyond what the circuit's output reveals.
package twoparty

import (
	"io"

	"github.com/cockroachdb/errors"

	"github.com/kobakaku/yaogc/circuit"
	"github.com/kobakaku/yaogc/evaluator"
	"github.com/kobakaku/yaogc/garble"
	"github.com/kobakaku/yaogc/label"
	"github.com/kobakaku/yaogc/ot"
)

// ErrInputSizeMismatch is returned when the caller's input map does not
// supply exactly one bit for every wire the circuit assigns to that
// party.
var ErrInputSizeMismatch = errors.New("twoparty: input map does not match circuit's wire assignment")

// ErrNoBobInputs is returned when the circuit declares Bob wires but no
// Bob input bits were supplied — Execute cannot run the OT phase
// without a choice bit for every one of them.
var ErrNoBobInputs = errors.New("twoparty: circuit requires Bob inputs but none were supplied")

// Execute runs the complete protocol for c with the given per-party
// inputs, drawing all garbling randomness from rnd, and returns the
// cleartext bit for every output wire. This is the secure entry point:
// the labels for Bob's input wires reach the evaluator only through
// oblivious transfer, never directly.
func Execute(c *circuit.Circuit, aliceInputs, bobInputs map[circuit.WireID]uint8, rnd io.Reader) (map[circuit.WireID]uint8, error) {
	if err := c.Validate(); err != nil {
		return nil, errors.Wrap(err, "twoparty: invalid circuit")
	}
	if err := checkInputs(c.AliceWires, aliceInputs); err != nil {
		return nil, errors.Wrap(err, "twoparty: Alice inputs")
	}
	if len(c.BobWires) > 0 && len(bobInputs) == 0 {
		return nil, ErrNoBobInputs
	}
	if err := checkInputs(c.BobWires, bobInputs); err != nil {
		return nil, errors.Wrap(err, "twoparty: Bob inputs")
	}

	garbled, err := garble.Garble(c, rnd)
	if err != nil {
		return nil, errors.Wrap(err, "twoparty: garbling failed")
	}

	bobKnownLabels, err := transferBobLabels(garbled, c.BobWires, bobInputs)
	if err != nil {
		return nil, errors.Wrap(err, "twoparty: oblivious transfer failed")
	}
	for w, bit := range aliceInputs {
		bobKnownLabels[w] = garbled.Labels[w].Of(bit)
	}

	outputLabels, err := evaluator.New(c, garbled.Gates).Evaluate(bobKnownLabels)
	if err != nil {
		return nil, errors.Wrap(err, "twoparty: evaluation failed")
	}

	return decode(garbled, outputLabels)
}

// transferBobLabels runs one 1-out-of-2 OT per Bob wire, Alice acting
// as Sender of the wire's label pair and Bob as Receiver choosing with
// his actual input bit. The result is Bob's recovered label for every
// wire he owns.
func transferBobLabels(garbled *garble.GarbledCircuit, bobWires []circuit.WireID, bobInputs map[circuit.WireID]uint8) (map[circuit.WireID]label.Label, error) {
	known := make(map[circuit.WireID]label.Label, len(bobWires))
	for _, w := range bobWires {
		pair := garbled.Labels[w]

		sender, err := ot.NewSender(ot.DefaultKeyBits)
		if err != nil {
			return nil, errors.Wrapf(err, "wire %d: sender setup", w)
		}
		sxfer, err := sender.NewTransfer(pair.L0.Bytes(), pair.L1.Bytes())
		if err != nil {
			return nil, errors.Wrapf(err, "wire %d: offering transfer", w)
		}

		receiver := ot.NewReceiver(bobInputs[w])
		rxfer, v, err := receiver.Commit(sender.PublicKey(), sxfer.Pads())
		if err != nil {
			return nil, errors.Wrapf(err, "wire %d: receiver commitment", w)
		}

		masked0, masked1, err := sxfer.Messages(v)
		if err != nil {
			return nil, errors.Wrapf(err, "wire %d: sender masking", w)
		}

		chosen, err := rxfer.Extract(masked0, masked1)
		if err != nil {
			return nil, errors.Wrapf(err, "wire %d: receiver extraction", w)
		}
		sender.Zeroize()

		var l label.Label
		if len(chosen) != label.Size {
			return nil, errors.Newf("wire %d: OT returned %d bytes, want %d", w, len(chosen), label.Size)
		}
		copy(l[:], chosen)
		known[w] = l
	}
	return known, nil
}

// decode maps every output wire's recovered label back to its
// cleartext bit using the garbler's label pairs — only Alice can
// perform this step, since only she knows which label means 0 and
// which means 1.
func decode(garbled *garble.GarbledCircuit, outputLabels map[circuit.WireID]label.Label) (map[circuit.WireID]uint8, error) {
	result := make(map[circuit.WireID]uint8, len(outputLabels))
	for _, w := range garbled.Circuit.OutputWires {
		l, ok := outputLabels[w]
		if !ok {
			return nil, errors.Newf("twoparty: no evaluated label for output wire %d", w)
		}
		bit, ok := garbled.Labels[w].Bit(l)
		if !ok {
			return nil, errors.Newf("twoparty: output label for wire %d matches neither of the garbler's labels", w)
		}
		result[w] = bit
	}
	return result, nil
}

func checkInputs(wires []circuit.WireID, inputs map[circuit.WireID]uint8) error {
	if len(inputs) != len(wires) {
		return ErrInputSizeMismatch
	}
	for _, w := range wires {
		if _, ok := inputs[w]; !ok {
			return errors.Wrapf(ErrInputSizeMismatch, "missing bit for wire %d", w)
		}
	}
	return nil
}

// EvaluateOnly runs the circuit without any oblivious transfer,
// handing Bob's real input labels directly to the evaluator. It is
// useful for testing circuit correctness in isolation from the OT
// sub-protocol, but it is NOT secure: it leaks Bob's inputs to
// whichever party calls it. Never use this for anything but circuit
// correctness checks.
func EvaluateOnly(c *circuit.Circuit, aliceInputs, bobInputs map[circuit.WireID]uint8, rnd io.Reader) (map[circuit.WireID]uint8, error) {
	if err := c.Validate(); err != nil {
		return nil, errors.Wrap(err, "twoparty: invalid circuit")
	}
	if err := checkInputs(c.AliceWires, aliceInputs); err != nil {
		return nil, errors.Wrap(err, "twoparty: Alice inputs")
	}
	if err := checkInputs(c.BobWires, bobInputs); err != nil {
		return nil, errors.Wrap(err, "twoparty: Bob inputs")
	}

	garbled, err := garble.Garble(c, rnd)
	if err != nil {
		return nil, errors.Wrap(err, "twoparty: garbling failed")
	}

	known := make(map[circuit.WireID]label.Label, len(aliceInputs)+len(bobInputs))
	for w, bit := range aliceInputs {
		known[w] = garbled.Labels[w].Of(bit)
	}
	for w, bit := range bobInputs {
		known[w] = garbled.Labels[w].Of(bit)
	}

	outputLabels, err := evaluator.New(c, garbled.Gates).Evaluate(known)
	if err != nil {
		return nil, errors.Wrap(err, "twoparty: evaluation failed")
	}
	return decode(garbled, outputLabels)
}
