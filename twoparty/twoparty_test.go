package twoparty

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kobakaku/yaogc/circuit"
)

func andCircuit() *circuit.Circuit {
	return &circuit.Circuit{
		ID:          "and",
		AliceWires:  []circuit.WireID{1},
		BobWires:    []circuit.WireID{2},
		OutputWires: []circuit.WireID{3},
		Gates: []circuit.Gate{
			{ID: 3, Kind: circuit.AND, Inputs: []circuit.WireID{1, 2}},
		},
	}
}

func orCircuit() *circuit.Circuit {
	c := andCircuit()
	c.ID = "or"
	c.Gates[0].Kind = circuit.OR
	return c
}

func notOrCircuit() *circuit.Circuit {
	return &circuit.Circuit{
		ID:          "not-or",
		AliceWires:  []circuit.WireID{1},
		BobWires:    []circuit.WireID{2},
		OutputWires: []circuit.WireID{4},
		Gates: []circuit.Gate{
			{ID: 3, Kind: circuit.NOT, Inputs: []circuit.WireID{1}},
			{ID: 4, Kind: circuit.OR, Inputs: []circuit.WireID{3, 2}},
		},
	}
}

func compositeCircuit() *circuit.Circuit {
	return &circuit.Circuit{
		ID:          "composite",
		AliceWires:  []circuit.WireID{1},
		BobWires:    []circuit.WireID{2, 3},
		OutputWires: []circuit.WireID{5},
		Gates: []circuit.Gate{
			{ID: 4, Kind: circuit.AND, Inputs: []circuit.WireID{1, 2}},
			{ID: 5, Kind: circuit.OR, Inputs: []circuit.WireID{4, 3}},
		},
	}
}

func TestExecuteSingleAndGate(t *testing.T) {
	cases := []struct{ a, b, want uint8 }{
		{0, 0, 0}, {0, 1, 0}, {1, 0, 0}, {1, 1, 1},
	}
	for _, tc := range cases {
		out, err := Execute(andCircuit(),
			map[circuit.WireID]uint8{1: tc.a},
			map[circuit.WireID]uint8{2: tc.b},
			rand.Reader)
		require.NoError(t, err)
		assert.Equal(t, tc.want, out[3], "AND(%d,%d)", tc.a, tc.b)
	}
}

func TestExecuteSingleOrGate(t *testing.T) {
	cases := []struct{ a, b, want uint8 }{
		{0, 0, 0}, {0, 1, 1}, {1, 0, 1}, {1, 1, 1},
	}
	for _, tc := range cases {
		out, err := Execute(orCircuit(),
			map[circuit.WireID]uint8{1: tc.a},
			map[circuit.WireID]uint8{2: tc.b},
			rand.Reader)
		require.NoError(t, err)
		assert.Equal(t, tc.want, out[3], "OR(%d,%d)", tc.a, tc.b)
	}
}

func TestExecuteNotOrChain(t *testing.T) {
	cases := []struct{ a, b, want uint8 }{
		{0, 0, 1}, {0, 1, 1}, {1, 0, 0}, {1, 1, 1},
	}
	for _, tc := range cases {
		out, err := Execute(notOrCircuit(),
			map[circuit.WireID]uint8{1: tc.a},
			map[circuit.WireID]uint8{2: tc.b},
			rand.Reader)
		require.NoError(t, err)
		assert.Equal(t, tc.want, out[4])
	}
}

func TestExecuteCompositeTwoLevelCircuit(t *testing.T) {
	cases := []struct{ a1, b1, b2, want uint8 }{
		{1, 1, 0, 1},
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 1, 1},
	}
	for _, tc := range cases {
		out, err := Execute(compositeCircuit(),
			map[circuit.WireID]uint8{1: tc.a1},
			map[circuit.WireID]uint8{2: tc.b1, 3: tc.b2},
			rand.Reader)
		require.NoError(t, err)
		assert.Equal(t, tc.want, out[5])
	}
}

func TestExecuteRejectsInvalidCircuit(t *testing.T) {
	c := andCircuit()
	c.Gates[0].Inputs = []circuit.WireID{1}
	_, err := Execute(c,
		map[circuit.WireID]uint8{1: 1},
		map[circuit.WireID]uint8{2: 1},
		rand.Reader)
	assert.Error(t, err)
}

func TestExecuteRejectsMissingBobInputs(t *testing.T) {
	_, err := Execute(andCircuit(),
		map[circuit.WireID]uint8{1: 1},
		map[circuit.WireID]uint8{},
		rand.Reader)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoBobInputs)
}

func TestExecuteRejectsMismatchedAliceInputSize(t *testing.T) {
	_, err := Execute(andCircuit(),
		map[circuit.WireID]uint8{1: 1, 99: 0},
		map[circuit.WireID]uint8{2: 1},
		rand.Reader)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInputSizeMismatch)
}

func TestEvaluateOnlyMatchesExecute(t *testing.T) {
	aliceInputs := map[circuit.WireID]uint8{1: 1}
	bobInputs := map[circuit.WireID]uint8{2: 0, 3: 1}

	secure, err := Execute(compositeCircuit(), aliceInputs, bobInputs, rand.Reader)
	require.NoError(t, err)

	insecure, err := EvaluateOnly(compositeCircuit(), aliceInputs, bobInputs, rand.Reader)
	require.NoError(t, err)

	assert.Equal(t, secure, insecure)
}

// seededReader yields a fixed repeating byte stream so repeated
// Execute calls fed the same seed produce identical output bits.
type seededReader struct {
	seed byte
	pos  byte
}

func (r *seededReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = r.seed + r.pos
		r.pos++
	}
	return len(p), nil
}

func TestExecuteDeterministicAcrossSeeds(t *testing.T) {
	for seed := 0; seed < 100; seed++ {
		out1, err := Execute(notOrCircuit(),
			map[circuit.WireID]uint8{1: 1},
			map[circuit.WireID]uint8{2: 0},
			&seededReader{seed: byte(seed)})
		require.NoError(t, err)

		out2, err := Execute(notOrCircuit(),
			map[circuit.WireID]uint8{1: 1},
			map[circuit.WireID]uint8{2: 0},
			&seededReader{seed: byte(seed)})
		require.NoError(t, err)

		assert.Equal(t, out1, out2, "seed %d", seed)
	}
}
