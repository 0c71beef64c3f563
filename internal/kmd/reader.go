package kmd

import (
	"bytes"
	"encoding/binary"
	"math"
)

// cursor reads little-endian fields from an in-memory buffer at advancing
// offsets. Every read is bounds-checked against the full buffer and fails
// closed with ErrUnexpectedEOF; no read ever goes past the end.
type cursor struct {
	data []byte
	off  int
}

func (c *cursor) need(n int) error {
	if n < 0 || c.off > len(c.data)-n {
		c.off = len(c.data)
		return ErrUnexpectedEOF
	}
	return nil
}

func (c *cursor) u8() (uint8, error) {
	if err := c.need(1); err != nil {
		return 0, err
	}
	v := c.data[c.off]
	c.off++
	return v, nil
}

func (c *cursor) u32() (uint32, error) {
	if err := c.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(c.data[c.off:])
	c.off += 4
	return v, nil
}

func (c *cursor) f32() (float32, error) {
	v, err := c.u32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

// name reads a fixed-capacity name field: n raw bytes, cut at the first
// NUL. A field with no terminator is truncated at capacity.
func (c *cursor) name(n int) (string, error) {
	if err := c.need(n); err != nil {
		return "", err
	}
	s := c.data[c.off : c.off+n]
	c.off += n
	if i := bytes.IndexByte(s, 0); i >= 0 {
		s = s[:i]
	}
	return string(s), nil
}
