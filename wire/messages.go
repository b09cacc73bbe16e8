package wire

import (
	"io"

	"github.com/cockroachdb/errors"

	"github.com/kobakaku/yaogc/circuit"
	"github.com/kobakaku/yaogc/garble"
	"github.com/kobakaku/yaogc/label"
)

// The five protocol messages exchanged between Alice (the garbler) and
// Bob (the evaluator). Each has Encode/Decode using the length-prefixed
// framing of SendFrame and SendUint32; none of them is required by the in-process
// twoparty.Execute path, which passes Go values directly, but all five
// give a networked deployment of the same protocol a wire format to
// use.

// GarbledGatesMsg carries the garbled circuit's gate tables, sent by
// Alice to Bob once garbling completes. It deliberately excludes the
// label.Pair map: Bob must never see both labels of any wire.
type GarbledGatesMsg struct {
	CircuitID string
	Gates     []garble.GarbledGate
}

// Encode writes m to w.
func (m *GarbledGatesMsg) Encode(w io.Writer) error {
	if err := SendFrame(w, []byte(m.CircuitID)); err != nil {
		return err
	}
	if err := SendUint32(w, uint32(len(m.Gates))); err != nil {
		return err
	}
	for _, g := range m.Gates {
		if err := SendUint32(w, uint32(g.ID)); err != nil {
			return err
		}
		if err := SendUint32(w, uint32(g.Kind)); err != nil {
			return err
		}
		if err := SendUint32(w, uint32(len(g.Inputs))); err != nil {
			return err
		}
		for _, in := range g.Inputs {
			if err := SendUint32(w, uint32(in)); err != nil {
				return err
			}
		}
		if err := SendUint32(w, uint32(len(g.Rows))); err != nil {
			return err
		}
		for _, row := range g.Rows {
			if err := SendFrame(w, row); err != nil {
				return err
			}
		}
	}
	return nil
}

// Decode reads a GarbledGatesMsg from r.
func (m *GarbledGatesMsg) Decode(r io.Reader) error {
	idBytes, err := ReceiveFrame(r)
	if err != nil {
		return errors.Wrap(err, "wire: decoding circuit ID")
	}
	m.CircuitID = string(idBytes)

	numGates, err := ReceiveUint32(r)
	if err != nil {
		return errors.Wrap(err, "wire: decoding gate count")
	}
	m.Gates = make([]garble.GarbledGate, 0, numGates)
	for i := uint32(0); i < numGates; i++ {
		id, err := ReceiveUint32(r)
		if err != nil {
			return errors.Wrap(err, "wire: decoding gate ID")
		}
		kind, err := ReceiveUint32(r)
		if err != nil {
			return errors.Wrap(err, "wire: decoding gate kind")
		}
		numInputs, err := ReceiveUint32(r)
		if err != nil {
			return errors.Wrap(err, "wire: decoding gate input count")
		}
		inputs := make([]circuit.WireID, numInputs)
		for j := range inputs {
			in, err := ReceiveUint32(r)
			if err != nil {
				return errors.Wrap(err, "wire: decoding gate input")
			}
			inputs[j] = circuit.WireID(in)
		}
		numRows, err := ReceiveUint32(r)
		if err != nil {
			return errors.Wrap(err, "wire: decoding gate row count")
		}
		rows := make([][]byte, numRows)
		for j := range rows {
			row, err := ReceiveFrame(r)
			if err != nil {
				return errors.Wrap(err, "wire: decoding gate row")
			}
			rows[j] = row
		}
		m.Gates = append(m.Gates, garble.GarbledGate{
			ID:     circuit.WireID(id),
			Kind:   circuit.GateKind(kind),
			Inputs: inputs,
			Rows:   rows,
		})
	}
	return nil
}

// AliceInputLabelsMsg carries the concrete labels (not pairs) Alice
// selects for her own input wires, sent directly since they require no
// oblivious transfer.
type AliceInputLabelsMsg struct {
	Labels map[circuit.WireID]label.Label
}

// Encode writes m to w.
func (m *AliceInputLabelsMsg) Encode(w io.Writer) error {
	if err := SendUint32(w, uint32(len(m.Labels))); err != nil {
		return err
	}
	for wireID, l := range m.Labels {
		if err := SendUint32(w, uint32(wireID)); err != nil {
			return err
		}
		if err := SendFrame(w, l.Bytes()); err != nil {
			return err
		}
	}
	return nil
}

// Decode reads an AliceInputLabelsMsg from r.
func (m *AliceInputLabelsMsg) Decode(r io.Reader) error {
	n, err := ReceiveUint32(r)
	if err != nil {
		return errors.Wrap(err, "wire: decoding Alice label count")
	}
	m.Labels = make(map[circuit.WireID]label.Label, n)
	for i := uint32(0); i < n; i++ {
		wireID, err := ReceiveUint32(r)
		if err != nil {
			return errors.Wrap(err, "wire: decoding Alice wire ID")
		}
		raw, err := ReceiveFrame(r)
		if err != nil {
			return errors.Wrap(err, "wire: decoding Alice label")
		}
		if len(raw) != label.Size {
			return errors.Newf("wire: Alice label for wire %d has wrong size %d", wireID, len(raw))
		}
		var l label.Label
		copy(l[:], raw)
		m.Labels[circuit.WireID(wireID)] = l
	}
	return nil
}

// OTCommitmentMsg carries the OT receiver's phase-2 commitment v, sent
// Bob to Alice for one Bob-owned wire.
type OTCommitmentMsg struct {
	WireID circuit.WireID
	V      []byte
}

// Encode writes m to w.
func (m *OTCommitmentMsg) Encode(w io.Writer) error {
	if err := SendUint32(w, uint32(m.WireID)); err != nil {
		return err
	}
	return SendFrame(w, m.V)
}

// Decode reads an OTCommitmentMsg from r.
func (m *OTCommitmentMsg) Decode(r io.Reader) error {
	wireID, err := ReceiveUint32(r)
	if err != nil {
		return errors.Wrap(err, "wire: decoding OT commitment wire ID")
	}
	v, err := ReceiveFrame(r)
	if err != nil {
		return errors.Wrap(err, "wire: decoding OT commitment value")
	}
	m.WireID = circuit.WireID(wireID)
	m.V = v
	return nil
}

// OTKeysMsg carries the OT sender's published public key and pad
// values (phase 1) together with the phase-3 masked messages, combined
// into one round trip per Bob-owned wire.
type OTKeysMsg struct {
	WireID     circuit.WireID
	ModulusN   []byte
	ExponentE  uint32
	Pad0, Pad1 []byte
	Masked0    []byte
	Masked1    []byte
}

// Encode writes m to w.
func (m *OTKeysMsg) Encode(w io.Writer) error {
	if err := SendUint32(w, uint32(m.WireID)); err != nil {
		return err
	}
	if err := SendFrame(w, m.ModulusN); err != nil {
		return err
	}
	if err := SendUint32(w, m.ExponentE); err != nil {
		return err
	}
	if err := SendFrame(w, m.Pad0); err != nil {
		return err
	}
	if err := SendFrame(w, m.Pad1); err != nil {
		return err
	}
	if err := SendFrame(w, m.Masked0); err != nil {
		return err
	}
	return SendFrame(w, m.Masked1)
}

// Decode reads an OTKeysMsg from r.
func (m *OTKeysMsg) Decode(r io.Reader) error {
	wireID, err := ReceiveUint32(r)
	if err != nil {
		return errors.Wrap(err, "wire: decoding OT keys wire ID")
	}
	n, err := ReceiveFrame(r)
	if err != nil {
		return errors.Wrap(err, "wire: decoding OT modulus")
	}
	e, err := ReceiveUint32(r)
	if err != nil {
		return errors.Wrap(err, "wire: decoding OT exponent")
	}
	pad0, err := ReceiveFrame(r)
	if err != nil {
		return errors.Wrap(err, "wire: decoding OT pad0")
	}
	pad1, err := ReceiveFrame(r)
	if err != nil {
		return errors.Wrap(err, "wire: decoding OT pad1")
	}
	masked0, err := ReceiveFrame(r)
	if err != nil {
		return errors.Wrap(err, "wire: decoding OT masked0")
	}
	masked1, err := ReceiveFrame(r)
	if err != nil {
		return errors.Wrap(err, "wire: decoding OT masked1")
	}
	m.WireID = circuit.WireID(wireID)
	m.ModulusN = n
	m.ExponentE = e
	m.Pad0, m.Pad1 = pad0, pad1
	m.Masked0, m.Masked1 = masked0, masked1
	return nil
}

// OutputLabelsMsg carries Bob's recovered output-wire labels, sent back
// to Alice for decoding — only Alice can map a label back to a bit.
type OutputLabelsMsg struct {
	Labels map[circuit.WireID]label.Label
}

// Encode writes m to w.
func (m *OutputLabelsMsg) Encode(w io.Writer) error {
	if err := SendUint32(w, uint32(len(m.Labels))); err != nil {
		return err
	}
	for wireID, l := range m.Labels {
		if err := SendUint32(w, uint32(wireID)); err != nil {
			return err
		}
		if err := SendFrame(w, l.Bytes()); err != nil {
			return err
		}
	}
	return nil
}

// Decode reads an OutputLabelsMsg from r.
func (m *OutputLabelsMsg) Decode(r io.Reader) error {
	n, err := ReceiveUint32(r)
	if err != nil {
		return errors.Wrap(err, "wire: decoding output label count")
	}
	m.Labels = make(map[circuit.WireID]label.Label, n)
	for i := uint32(0); i < n; i++ {
		wireID, err := ReceiveUint32(r)
		if err != nil {
			return errors.Wrap(err, "wire: decoding output wire ID")
		}
		raw, err := ReceiveFrame(r)
		if err != nil {
			return errors.Wrap(err, "wire: decoding output label")
		}
		if len(raw) != label.Size {
			return errors.Newf("wire: output label for wire %d has wrong size %d", wireID, len(raw))
		}
		var l label.Label
		copy(l[:], raw)
		m.Labels[circuit.WireID(wireID)] = l
	}
	return nil
}
