// Package envelope serializes a file name and its content into the plaintext
// record that gets encrypted.
//
// Layout, all integers big-endian:
//
//	"SHRD" | version u8 | nameLen u16 | name | contentLen u64 | content
package envelope

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"unicode/utf8"
)

const (
	Version = 1

	magic      = "SHRD"
	headerSize = len(magic) + 1 + 2
)

var (
	ErrInvalidName = errors.New("invalid envelope name")
	ErrMalformed   = errors.New("malformed envelope")
)

// Envelope pairs an original file name with the file's bytes.
type Envelope struct {
	Name    string
	Content []byte
}

// Marshal encodes e.
func Marshal(e Envelope) ([]byte, error) {
	if e.Name == "" || len(e.Name) > math.MaxUint16 || !utf8.ValidString(e.Name) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidName, e.Name)
	}

	buf := bytes.NewBuffer(make([]byte, 0, headerSize+len(e.Name)+8+len(e.Content)))
	buf.WriteString(magic)
	buf.WriteByte(Version)
	buf.Write(binary.BigEndian.AppendUint16(nil, uint16(len(e.Name))))
	buf.WriteString(e.Name)
	buf.Write(binary.BigEndian.AppendUint64(nil, uint64(len(e.Content))))
	buf.Write(e.Content)
	return buf.Bytes(), nil
}

// Unmarshal decodes data produced by Marshal. The returned content aliases
// data.
func Unmarshal(data []byte) (Envelope, error) {
	r := bytes.NewReader(data)

	header := make([]byte, headerSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return Envelope{}, fmt.Errorf("%w: short header", ErrMalformed)
	}
	if string(header[:len(magic)]) != magic {
		return Envelope{}, fmt.Errorf("%w: bad magic", ErrMalformed)
	}
	if v := header[len(magic)]; v != Version {
		return Envelope{}, fmt.Errorf("%w: unsupported version %d", ErrMalformed, v)
	}

	nameLen := int(binary.BigEndian.Uint16(header[len(magic)+1:]))
	if nameLen == 0 || nameLen > r.Len() {
		return Envelope{}, fmt.Errorf("%w: bad name length %d", ErrMalformed, nameLen)
	}
	off := headerSize
	name := string(data[off : off+nameLen])
	off += nameLen
	if !utf8.ValidString(name) {
		return Envelope{}, fmt.Errorf("%w: name is not valid UTF-8", ErrMalformed)
	}

	if len(data)-off < 8 {
		return Envelope{}, fmt.Errorf("%w: short content length", ErrMalformed)
	}
	contentLen := binary.BigEndian.Uint64(data[off:])
	off += 8
	if contentLen != uint64(len(data)-off) {
		return Envelope{}, fmt.Errorf("%w: content length %d, have %d bytes", ErrMalformed, contentLen, len(data)-off)
	}

	return Envelope{Name: name, Content: data[off:]}, nil
}
