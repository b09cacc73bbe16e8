// Package label implements the symmetric wire-label cipher used by the
// garbler and evaluator: authenticated encryption of one label under
// another, with a magic-prefix tag that lets the evaluator probe whether
// a key decrypted a table row correctly.
package label

import (
	"crypto/aes"
	"crypto/cipher"
	"io"

	"github.com/cockroachdb/errors"
)

// Size is the length in bytes of a wire label (L_key in the spec, 128
// bits).
const Size = 16

// magic is prepended to every plaintext before encryption so the
// evaluator can distinguish "decrypted under the wrong key" from
// "decrypted under the right key".
var magic = [4]byte{'G', 'A', 'R', 'B'}

// nonce is fixed and all-zero. Each label is a fresh uniformly random
// key used for at most a handful of encryptions within one garbled
// circuit, so nonce reuse under a single key is bounded and acceptable
// in the semi-honest setting. A networked deployment that reuses
// garbled circuits across sessions MUST derive the nonce from
// (gate ID, row index) instead.
var nonce [12]byte

// ErrAuthFail is returned when AEAD authentication fails — the key
// used to decrypt was not the key used to encrypt.
var ErrAuthFail = errors.New("label: authentication failed")

// ErrMagicFail is returned when AEAD authentication succeeds but the
// decrypted plaintext does not begin with the magic tag, and by
// DecryptLabel when the plaintext after the tag is not exactly Size
// bytes. Either way the result is not a label this package produced.
var ErrMagicFail = errors.New("label: magic tag mismatch")

// Label is a fixed-size, uniformly random byte string that stands in
// for a cleartext wire value during garbled evaluation. A label alone
// carries no information about whether it is the 0- or 1-label for its
// wire.
type Label [Size]byte

// Pair holds both labels of a wire, indexed by the cleartext bit they
// represent.
type Pair struct {
	L0 Label
	L1 Label
}

// Of returns the label corresponding to bit (0 or 1).
func (p Pair) Of(bit uint8) Label {
	if bit == 0 {
		return p.L0
	}
	return p.L1
}

// Bit returns the cleartext bit whose label matches l, and whether a
// match was found. Neither label matching is the evaluator's
// EvalCorrupt condition.
func (p Pair) Bit(l Label) (uint8, bool) {
	if l == p.L0 {
		return 0, true
	}
	if l == p.L1 {
		return 1, true
	}
	return 0, false
}

// New draws a fresh uniformly random label from rnd.
func New(rnd io.Reader) (Label, error) {
	var l Label
	if _, err := io.ReadFull(rnd, l[:]); err != nil {
		return Label{}, errors.Wrap(err, "label: failed to generate random label")
	}
	return l, nil
}

// Bytes returns the label's bytes.
func (l Label) Bytes() []byte {
	return l[:]
}

// cipherFor builds the AES-128-GCM AEAD for key k.
func cipherFor(k Label) (cipher.AEAD, error) {
	block, err := aes.NewCipher(k[:])
	if err != nil {
		return nil, errors.Wrap(err, "label: failed to create AES cipher")
	}
	return cipher.NewGCM(block)
}

// Encrypt encrypts m under key k, producing c = AEAD(k, nonce, MAGIC ||
// m). m is typically another wire label's bytes.
func Encrypt(k Label, m []byte) ([]byte, error) {
	aead, err := cipherFor(k)
	if err != nil {
		return nil, err
	}
	plaintext := make([]byte, 0, len(magic)+len(m))
	plaintext = append(plaintext, magic[:]...)
	plaintext = append(plaintext, m...)
	return aead.Seal(nil, nonce[:], plaintext, nil), nil
}

// Decrypt attempts to decrypt c under key k. It returns ErrAuthFail if
// AEAD authentication fails, ErrMagicFail if authentication succeeds
// but the plaintext does not start with the magic tag, and otherwise
// the stripped plaintext, of whatever length. Both error cases are expected,
// routine signals used by the evaluator to probe table rows — callers
// must not treat them as exceptional.
func Decrypt(k Label, c []byte) ([]byte, error) {
	aead, err := cipherFor(k)
	if err != nil {
		return nil, err
	}
	plaintext, err := aead.Open(nil, nonce[:], c, nil)
	if err != nil {
		return nil, ErrAuthFail
	}
	if len(plaintext) < len(magic) || [4]byte(plaintext[:4]) != magic {
		return nil, ErrMagicFail
	}
	return plaintext[len(magic):], nil
}

// DecryptLabel decrypts c under key k and requires the resulting
// plaintext to be exactly one label's worth of bytes. A decrypted
// plaintext of any other length is reported as ErrMagicFail: the spec
// treats length mismatch as corruption rather than silently truncating.
func DecryptLabel(k Label, c []byte) (Label, error) {
	m, err := Decrypt(k, c)
	if err != nil {
		return Label{}, err
	}
	if len(m) != Size {
		return Label{}, ErrMagicFail
	}
	var out Label
	copy(out[:], m)
	return out, nil
}

// Zeroize overwrites l's bytes with zero. Best-effort hygiene for
// secret material that is no longer needed.
func (l *Label) Zeroize() {
	for i := range l {
		l[i] = 0
	}
}
