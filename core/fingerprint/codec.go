// Package fingerprint decodes client fingerprints and queries the fingerprint index.
package fingerprint

import (
	"encoding/base64"
	"errors"
	"strings"
)

// ErrInvalidFingerprint is returned for strings that are not a valid
// compressed fingerprint.
var ErrInvalidFingerprint = errors.New("invalid fingerprint")

const (
	headerSize     = 4
	normalBits     = 3
	exceptionBits  = 5
	maxNormalValue = 1<<normalBits - 1
	maxBitPosition = 32
)

// Decode parses a compressed, URL-safe base64 encoded fingerprint and
// returns the sub-fingerprints and the algorithm id.
func Decode(encoded string) ([]int32, int, error) {
	data, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(encoded, "="))
	if err != nil {
		return nil, 0, ErrInvalidFingerprint
	}
	return Decompress(data)
}

// Encode is the inverse of Decode.
func Encode(fp []int32, algorithm int) string {
	return base64.RawURLEncoding.EncodeToString(Compress(fp, algorithm))
}

// Decompress decodes the binary form of a compressed fingerprint.
//
// Every sub-fingerprint is XORed with the previous one; the set bits of the
// result are stored as gaps between bit positions in 3-bit values, with 0
// closing the sub-fingerprint. A gap of 7 or more is stored as 7 and the
// remainder is read from a trailing block of 5-bit values.
func Decompress(data []byte) ([]int32, int, error) {
	if len(data) < headerSize {
		return nil, 0, ErrInvalidFingerprint
	}
	algorithm := int(data[0])
	length := int(data[1])<<16 | int(data[2])<<8 | int(data[3])
	body := data[headerSize:]
	if length == 0 {
		return []int32{}, algorithm, nil
	}
	// every sub-fingerprint ends with at least one 3-bit terminator
	if length > len(body)*8/normalBits {
		return nil, 0, ErrInvalidFingerprint
	}

	reader := &bitReader{data: body}
	values := make([]int, 0, len(body)*8/normalBits)
	numExceptions := 0
	for found := 0; found < length; {
		v, ok := reader.read(normalBits)
		if !ok {
			return nil, 0, ErrInvalidFingerprint
		}
		if v == 0 {
			found++
		} else if v == maxNormalValue {
			numExceptions++
		}
		values = append(values, v)
	}

	exceptions := &bitReader{data: body[reader.bytesUsed():]}
	for i, v := range values {
		if v != maxNormalValue {
			continue
		}
		e, ok := exceptions.read(exceptionBits)
		if !ok {
			return nil, 0, ErrInvalidFingerprint
		}
		values[i] = v + e
	}

	fp := make([]int32, 0, length)
	var value uint32
	lastBit := 0
	for _, v := range values {
		if v == 0 {
			if n := len(fp); n > 0 {
				value ^= uint32(fp[n-1])
			}
			fp = append(fp, int32(value))
			value = 0
			lastBit = 0
			continue
		}
		lastBit += v
		if lastBit > maxBitPosition {
			return nil, 0, ErrInvalidFingerprint
		}
		value |= 1 << (lastBit - 1)
	}
	return fp, algorithm, nil
}

// Compress produces the binary form read by Decompress.
func Compress(fp []int32, algorithm int) []byte {
	normal := &bitWriter{}
	exceptions := &bitWriter{}

	emit := func(v int) {
		if v >= maxNormalValue {
			normal.write(maxNormalValue, normalBits)
			exceptions.write(v-maxNormalValue, exceptionBits)
			return
		}
		normal.write(v, normalBits)
	}

	var prev uint32
	for i, x := range fp {
		y := uint32(x)
		if i > 0 {
			y ^= prev
		}
		prev = uint32(x)

		lastBit := 0
		for bit := 1; y != 0; bit++ {
			if y&1 != 0 {
				emit(bit - lastBit)
				lastBit = bit
			}
			y >>= 1
		}
		emit(0)
	}

	out := make([]byte, headerSize, headerSize+len(normal.data)+len(exceptions.data))
	out[0] = byte(algorithm)
	out[1] = byte(len(fp) >> 16)
	out[2] = byte(len(fp) >> 8)
	out[3] = byte(len(fp))
	out = append(out, normal.bytes()...)
	return append(out, exceptions.bytes()...)
}

// bitReader reads little-endian bit fields.
type bitReader struct {
	data []byte
	pos  int
}

func (r *bitReader) read(n int) (int, bool) {
	if r.pos+n > len(r.data)*8 {
		return 0, false
	}
	v := 0
	for i := 0; i < n; i++ {
		p := r.pos + i
		if r.data[p/8]&(1<<(p%8)) != 0 {
			v |= 1 << i
		}
	}
	r.pos += n
	return v, true
}

func (r *bitReader) bytesUsed() int {
	return (r.pos + 7) / 8
}

type bitWriter struct {
	data []byte
	pos  int
}

func (w *bitWriter) write(v, n int) {
	for i := 0; i < n; i++ {
		p := w.pos + i
		if p/8 == len(w.data) {
			w.data = append(w.data, 0)
		}
		if v&(1<<i) != 0 {
			w.data[p/8] |= 1 << (p % 8)
		}
	}
	w.pos += n
}

func (w *bitWriter) bytes() []byte {
	return w.data
}
