// Package ot implements 1-out-of-2 oblivious transfer: a four-phase,
// RSA-based, semi-honest protocol that lets a Receiver learn exactly one
// of a Sender's two messages without revealing its choice, while the
// Sender learns nothing about which message was chosen.
//
// The four phases map onto this package's API as follows:
//
//  1. Sender key setup   — NewSender, then Sender.NewTransfer.
//  2. Receiver commitment — Receiver.Commit.
//  3. Masked delivery     — SenderXfer.Messages.
//  4. Receiver extraction — ReceiverXfer.Extract.
package ot

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"io"
	"math/big"

	"github.com/cockroachdb/errors"
	"golang.org/x/crypto/hkdf"
)

// DefaultKeyBits is the RSA modulus size this package uses unless the
// caller requests otherwise. The spec requires at least 2048 bits.
const DefaultKeyBits = 2048

// Sentinel errors for the OT sub-protocol. All are terminal for the
// session in which they occur.
var (
	// ErrKeyGenFail is returned when RSA key generation fails (OS RNG
	// exhausted or similarly unrecoverable).
	ErrKeyGenFail = errors.New("ot: RSA key generation failed")
	// ErrOutOfRange is returned when a received integer is not in [0, N).
	ErrOutOfRange = errors.New("ot: value out of range [0, N)")
	// ErrSizeMismatch is returned when a masked message's length does
	// not match the expected message size.
	ErrSizeMismatch = errors.New("ot: message size mismatch")
	// ErrStateError is returned when a phase method is invoked out of
	// order.
	ErrStateError = errors.New("ot: protocol phase invoked out of order")
)

// senderState tracks a SenderXfer's position in phases 1/3.
type senderState int

const (
	senderAwaitingV senderState = iota
	senderDone
)

// receiverState tracks a ReceiverXfer's position in phases 2/4, named
// after the state machine in the spec: Init, AwaitingSenderKeys,
// Committed, AwaitingMasked, Done.
type receiverState int

const (
	receiverAwaitingSenderKeys receiverState = iota
	receiverAwaitingMasked
	receiverDone
)

// Sender holds the RSA keypair used for phase 1. A single Sender may
// back many concurrent transfers (it holds no per-transfer state).
type Sender struct {
	key *rsa.PrivateKey
}

// NewSender generates a fresh RSA keypair of the given bit length (at
// least 2048 per the spec) and returns a Sender ready to offer
// transfers.
func NewSender(bits int) (*Sender, error) {
	key, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, errors.Wrap(ErrKeyGenFail, err.Error())
	}
	return &Sender{key: key}, nil
}

// PublicKey returns the Sender's RSA public key, published as part of
// phase 1.
func (s *Sender) PublicKey() *rsa.PublicKey {
	return &s.key.PublicKey
}

// messageSize is the size, in bytes, of the RSA modulus — the space the
// random pad values x0/x1 are drawn from.
func (s *Sender) messageSize() int {
	return s.key.Size()
}

// NewTransfer begins a new 1-of-2 transfer of m0 and m1 (which must be
// equal length — this protocol does not hide message length). It draws
// the random pad values x0, x1 that, together with the public key,
// phase 1 publishes to the Receiver.
func (s *Sender) NewTransfer(m0, m1 []byte) (*SenderXfer, error) {
	if len(m0) != len(m1) {
		return nil, errors.Wrap(ErrSizeMismatch, "m0 and m1 must be equal length")
	}
	x0, err := rand.Int(rand.Reader, s.key.N)
	if err != nil {
		return nil, errors.Wrap(ErrKeyGenFail, err.Error())
	}
	x1, err := rand.Int(rand.Reader, s.key.N)
	if err != nil {
		return nil, errors.Wrap(ErrKeyGenFail, err.Error())
	}
	return &SenderXfer{
		sender: s,
		m0:     m0,
		m1:     m1,
		x0:     x0,
		x1:     x1,
		state:  senderAwaitingV,
	}, nil
}

// SenderXfer is one in-flight transfer on the Sender's side. It must
// not be reused once Messages has been called.
type SenderXfer struct {
	sender *Sender
	m0, m1 []byte
	x0, x1 *big.Int
	state  senderState
}

// Pads returns the phase-1 random pad values (x0, x1) that, along with
// the Sender's public key, are published to the Receiver.
func (x *SenderXfer) Pads() (x0, x1 []byte) {
	return x.x0.Bytes(), x.x1.Bytes()
}

// Messages consumes the Receiver's phase-2 commitment v and produces
// the phase-3 masked messages (m0 ⊕ H(k0), m1 ⊕ H(k1)), where k0 and k1
// are computed so that exactly one of them equals the Receiver's random
// k — the Sender cannot tell which.
func (x *SenderXfer) Messages(v []byte) (masked0, masked1 []byte, err error) {
	if x.state != senderAwaitingV {
		return nil, nil, ErrStateError
	}
	n := x.sender.key.N
	vInt := new(big.Int).SetBytes(v)
	if vInt.Sign() < 0 || vInt.Cmp(n) >= 0 {
		return nil, nil, ErrOutOfRange
	}

	d := x.sender.key.D
	k0 := new(big.Int).Exp(new(big.Int).Sub(vInt, x.x0), d, n)
	k1 := new(big.Int).Exp(new(big.Int).Sub(vInt, x.x1), d, n)

	pad0, err := deriveMask(k0, len(x.m0))
	if err != nil {
		return nil, nil, err
	}
	pad1, err := deriveMask(k1, len(x.m1))
	if err != nil {
		return nil, nil, err
	}

	masked0 = xorBytes(x.m0, pad0)
	masked1 = xorBytes(x.m1, pad1)
	x.state = senderDone
	return masked0, masked1, nil
}

// Receiver drives the Receiver's side of a single transfer, choosing
// bit once at construction and holding it for the lifetime of the
// transfer.
type Receiver struct {
	bit uint8
}

// NewReceiver starts a new transfer for the given choice bit (0 or 1).
func NewReceiver(bit uint8) *Receiver {
	return &Receiver{bit: bit}
}

// Commit processes the Sender's phase-1 public key and pad values and
// produces the phase-2 commitment v. It returns a ReceiverXfer that
// must be used to complete phase 4.
func (r *Receiver) Commit(pub *rsa.PublicKey, x0, x1 []byte) (*ReceiverXfer, []byte, error) {
	k, err := rand.Int(rand.Reader, pub.N)
	if err != nil {
		return nil, nil, errors.Wrap(ErrKeyGenFail, err.Error())
	}

	var xb *big.Int
	if r.bit == 0 {
		xb = new(big.Int).SetBytes(x0)
	} else {
		xb = new(big.Int).SetBytes(x1)
	}

	e := big.NewInt(int64(pub.E))
	v := new(big.Int).Exp(k, e, pub.N)
	v.Add(v, xb)
	v.Mod(v, pub.N)

	xfer := &ReceiverXfer{
		bit:   r.bit,
		k:     k,
		state: receiverAwaitingMasked,
	}
	return xfer, v.Bytes(), nil
}

// ReceiverXfer is one in-flight transfer on the Receiver's side.
type ReceiverXfer struct {
	bit   uint8
	k     *big.Int
	state receiverState
}

// Extract consumes the Sender's phase-3 masked messages and recovers
// m_bit, the single message corresponding to this Receiver's choice
// bit. The other message remains computationally hidden.
func (x *ReceiverXfer) Extract(masked0, masked1 []byte) ([]byte, error) {
	if x.state != receiverAwaitingMasked {
		return nil, ErrStateError
	}
	if len(masked0) != len(masked1) {
		return nil, errors.Wrap(ErrSizeMismatch, "masked0 and masked1 must be equal length")
	}

	var maskedChoice []byte
	if x.bit == 0 {
		maskedChoice = masked0
	} else {
		maskedChoice = masked1
	}

	pad, err := deriveMask(x.k, len(maskedChoice))
	if err != nil {
		return nil, err
	}
	x.state = receiverDone
	x.k.SetInt64(0) // best-effort zeroization of the session secret.
	return xorBytes(maskedChoice, pad), nil
}

// Choice returns the bit this transfer was committed to.
func (x *ReceiverXfer) Choice() uint8 {
	return x.bit
}

// Zeroize erases the private RSA key material held by a Sender. Callers
// should invoke this once every transfer the Sender backs has
// completed.
func (s *Sender) Zeroize() {
	if s.key == nil {
		return
	}
	s.key.D.SetInt64(0)
	for _, p := range s.key.Primes {
		p.SetInt64(0)
	}
}

// deriveMask expands k (the Diffie-Hellman-like shared secret of this
// transfer) into an n-byte pad via HKDF-SHA256, the key-derivation
// function H the spec names explicitly.
func deriveMask(k *big.Int, n int) ([]byte, error) {
	reader := hkdf.New(sha256.New, k.Bytes(), nil, []byte("yaogc-ot-mask"))
	pad := make([]byte, n)
	if _, err := io.ReadFull(reader, pad); err != nil {
		return nil, errors.Wrap(err, "ot: failed to derive mask")
	}
	return pad, nil
}

func xorBytes(a, b []byte) []byte {
	out := make([]byte, len(a))
	for i := range a {
		out[i] = a[i] ^ b[i]
	}
	return out
}
