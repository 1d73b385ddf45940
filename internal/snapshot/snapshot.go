// Package snapshot implements the on-disk format used to save whole tables.
//
// A snapshot file is a fixed header followed by tagged, length prefixed
// records:
//
//	magic "RELDB" | version (1 byte) | snapshot id (16 bytes, uuid)
//	tag (1 byte) | length (uint32, big endian) | gob payload
//	...
//
// Readers skip records whose tag they do not know, so new record tags can be
// added without breaking old readers.
package snapshot

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"io"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	Magic   = "RELDB"
	Version = byte(1)

	HEADER_SIZE = len(Magic) + 1 + 16
	// 1 byte tag + 4 byte length
	record_header_size = 5
	MAX_RECORD_SIZE    = 64 << 20
)

type Tag byte

const (
	TagHeader Tag = iota + 1
	TagTuple
)

var (
	ERR_INVALID_HEADER  = errors.New("invalid snapshot header")
	ERR_VERSION         = errors.New("unsupported snapshot version")
	ERR_TRUNCATED       = errors.New("truncated snapshot record")
	ERR_MAX_RECORD_SIZE = errors.New("maximum record size exceeded")
)

type Writer struct {
	w  *bufio.Writer
	Id uuid.UUID
}

func NewWriter(w io.Writer, id uuid.UUID) (*Writer, error) {
	bw := bufio.NewWriter(w)
	raw_id, err := id.MarshalBinary()
	if err != nil {
		return nil, err
	}

	buf := make([]byte, 0, HEADER_SIZE)
	buf = append(buf, Magic...)
	buf = append(buf, Version)
	buf = append(buf, raw_id...)
	if _, err := bw.Write(buf); err != nil {
		return nil, errors.Wrap(err, "writing snapshot header")
	}
	return &Writer{bw, id}, nil
}

// Push gob encodes v as a single record.
func (w *Writer) Push(tag Tag, v any) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return errors.Wrapf(err, "encoding record %d", tag)
	}
	return w.PushBytes(tag, buf.Bytes())
}

func (w *Writer) PushBytes(tag Tag, data []byte) error {
	if len(data) > MAX_RECORD_SIZE {
		return ERR_MAX_RECORD_SIZE
	}

	header := make([]byte, record_header_size)
	header[0] = byte(tag)
	binary.BigEndian.PutUint32(header[1:], uint32(len(data)))
	if _, err := w.w.Write(header); err != nil {
		return err
	}
	_, err := w.w.Write(data)
	return err
}

func (w *Writer) Flush() error { return w.w.Flush() }

type Reader struct {
	r   *bufio.Reader
	Id  uuid.UUID
	Tag Tag
	Buf []byte
	err error
}

func NewReader(r io.Reader) (*Reader, error) {
	br := bufio.NewReader(r)
	header := make([]byte, HEADER_SIZE)
	if _, err := io.ReadFull(br, header); err != nil {
		return nil, errors.Wrap(ERR_INVALID_HEADER, err.Error())
	}
	if string(header[:len(Magic)]) != Magic {
		return nil, ERR_INVALID_HEADER
	}
	if header[len(Magic)] != Version {
		return nil, errors.Wrapf(ERR_VERSION, "version %d", header[len(Magic)])
	}
	id, err := uuid.FromBytes(header[len(Magic)+1:])
	if err != nil {
		return nil, errors.Wrap(ERR_INVALID_HEADER, err.Error())
	}
	return &Reader{r: br, Id: id}, nil
}

// ReadNext advances to the next record. It returns false at the end of the
// file or on error; check Err to tell them apart.
func (r *Reader) ReadNext() bool {
	if r.err != nil {
		return false
	}

	header := make([]byte, record_header_size)
	n, err := io.ReadFull(r.r, header)
	if err != nil {
		if err == io.EOF && n == 0 {
			return false
		}
		r.err = ERR_TRUNCATED
		return false
	}

	size := binary.BigEndian.Uint32(header[1:])
	if size > MAX_RECORD_SIZE {
		r.err = ERR_MAX_RECORD_SIZE
		return false
	}

	buf := make([]byte, size)
	if _, err := io.ReadFull(r.r, buf); err != nil {
		r.err = ERR_TRUNCATED
		return false
	}
	r.Tag = Tag(header[0])
	r.Buf = buf
	return true
}

// Decode gob decodes the current record into v.
func (r *Reader) Decode(v any) error {
	if err := gob.NewDecoder(bytes.NewReader(r.Buf)).Decode(v); err != nil {
		return errors.Wrapf(err, "decoding record %d", r.Tag)
	}
	return nil
}

func (r *Reader) Err() error { return r.err }
