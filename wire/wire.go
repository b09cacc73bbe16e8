// Package wire implements length-prefixed framing for the protocol
// messages that flow between Alice and Bob, plus an in-memory Pipe
// transport for tests and single-process runs.
package wire

import (
	"encoding/binary"
	"fmt"
	"io"
)

var bo = binary.BigEndian

// maxFrame bounds how large a single framed message may be, guarding
// against a corrupt or hostile length prefix causing an unbounded
// allocation.
const maxFrame = 64 * 1024 * 1024

// Conn is the minimal read/write surface the protocol needs from a
// transport. *Pipe implements it, and so does any net.Conn paired with
// bufio.
type Conn interface {
	io.Reader
	io.Writer
}

// SendFrame writes val to w as a 4-byte big-endian length prefix
// followed by val's bytes.
func SendFrame(w io.Writer, val []byte) error {
	var hdr [4]byte
	bo.PutUint32(hdr[:], uint32(len(val)))
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	_, err := w.Write(val)
	return err
}

// ReceiveFrame reads one length-prefixed frame from r.
func ReceiveFrame(r io.Reader) ([]byte, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, err
	}
	n := bo.Uint32(hdr[:])
	if n > maxFrame {
		return nil, fmt.Errorf("wire: frame too large: %d bytes", n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// SendUint32 writes a single 4-byte big-endian value to w.
func SendUint32(w io.Writer, val uint32) error {
	var buf [4]byte
	bo.PutUint32(buf[:], val)
	_, err := w.Write(buf[:])
	return err
}

// ReceiveUint32 reads a single 4-byte big-endian value from r.
func ReceiveUint32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return bo.Uint32(buf[:]), nil
}

// Pipe is an in-memory, in-process full-duplex Conn, used to exercise
// the wire protocol between Alice and Bob without a real network.
type Pipe struct {
	r *io.PipeReader
	w *io.PipeWriter
}

// NewPipe returns a connected pair of Pipes: writes to one are
// readable from the other.
func NewPipe() (*Pipe, *Pipe) {
	ar, aw := io.Pipe()
	br, bw := io.Pipe()
	return &Pipe{r: ar, w: bw}, &Pipe{r: br, w: aw}
}

// Read implements io.Reader.
func (p *Pipe) Read(buf []byte) (int, error) {
	return p.r.Read(buf)
}

// Write implements io.Writer.
func (p *Pipe) Write(buf []byte) (int, error) {
	return p.w.Write(buf)
}

// Close closes the write side of the pipe.
func (p *Pipe) Close() error {
	return p.w.Close()
}
