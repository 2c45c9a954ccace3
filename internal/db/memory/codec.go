package memory

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/totto/penpot-wizard-sub002/internal/domain"
	"github.com/totto/penpot-wizard-sub002/internal/domain/document"
	"github.com/totto/penpot-wizard-sub002/internal/domain/hook"
	"github.com/totto/penpot-wizard-sub002/internal/domain/schema"
)

// Payload layout (little endian):
//
//	magic "PWIX", version uint16
//	field count uint16, per field: name, type uint8, dims uint32, optional uint8
//	doc count uint32, per doc: id, pageId, url, text,
//	  extra count uint16, per extra: name, value
//	  vector float32[dims]
//
// Strings are a uint32 byte length followed by the bytes.
const (
	payloadMagic   = "PWIX"
	payloadVersion = 1
	maxDimensions  = 1 << 16
)

var errTruncated = errors.New("truncated payload")

// MarshalBinary serializes the schema and all documents in insertion order.
// The lexical index is not stored; it is rebuilt on decode.
func (x *Index) MarshalBinary() ([]byte, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	size := 16
	for _, d := range x.docs {
		size += 16 + len(d.ID()) + len(d.PageID()) + len(d.URL()) + len(d.Text()) + 4*x.dim
	}
	out := make([]byte, 0, size)
	putU8 := func(v uint8) { out = append(out, v) }
	putU16 := func(v uint16) { out = binary.LittleEndian.AppendUint16(out, v) }
	putU32 := func(v uint32) { out = binary.LittleEndian.AppendUint32(out, v) }
	putStr := func(s string) {
		putU32(uint32(len(s)))
		out = append(out, s...)
	}

	out = append(out, payloadMagic...)
	putU16(payloadVersion)

	fields := x.schema.Fields()
	putU16(uint16(len(fields)))
	for _, f := range fields {
		putStr(f.Name)
		putU8(uint8(f.Type))
		putU32(uint32(f.Dimensions))
		if f.Optional {
			putU8(1)
		} else {
			putU8(0)
		}
	}

	putU32(uint32(len(x.docs)))
	for _, d := range x.docs {
		putStr(d.ID())
		putStr(d.PageID())
		putStr(d.URL())
		putStr(d.Text())
		names := d.FieldNames()
		if len(names) > math.MaxUint16 {
			return nil, fmt.Errorf("document %q: too many fields", d.ID())
		}
		putU16(uint16(len(names)))
		for _, n := range names {
			putStr(n)
			putStr(d.Field(n))
		}
		for _, v := range d.Vector() {
			putU32(math.Float32bits(v))
		}
	}
	return out, nil
}

// Decode rebuilds an index from a payload written by MarshalBinary and attaches
// the given hook. Any malformed input yields domain.ErrArchiveFormat and no index.
func Decode(data []byte, h hook.Hook, embedder domain.Embedder) (*Index, error) {
	r := &reader{data: data}
	if string(r.bytes(len(payloadMagic))) != payloadMagic {
		return nil, fmt.Errorf("%w: bad magic", domain.ErrArchiveFormat)
	}
	if v := r.u16(); r.err == nil && v != payloadVersion {
		return nil, fmt.Errorf("%w: unsupported payload version %d", domain.ErrArchiveFormat, v)
	}

	nFields := int(r.u16())
	fields := make([]schema.Field, 0, nFields)
	for i := 0; i < nFields && r.err == nil; i++ {
		f := schema.Field{Name: r.str(), Type: schema.Type(r.u8()), Dimensions: int(r.u32())}
		f.Optional = r.u8() == 1
		if f.Dimensions > maxDimensions {
			return nil, fmt.Errorf("%w: field %q has %d dims", domain.ErrArchiveFormat, f.Name, f.Dimensions)
		}
		fields = append(fields, f)
	}
	if r.err != nil {
		return nil, fmt.Errorf("%w: schema: %w", domain.ErrArchiveFormat, r.err)
	}
	s, err := schema.New(fields)
	if err != nil {
		return nil, fmt.Errorf("%w: schema: %w", domain.ErrArchiveFormat, err)
	}

	x, err := New(s, h, embedder)
	if err != nil {
		return nil, err
	}

	nDocs := int(r.u32())
	for i := 0; i < nDocs && r.err == nil; i++ {
		id, pageID, url, text := r.str(), r.str(), r.str(), r.str()
		var extra map[string]string
		if n := int(r.u16()); n > 0 {
			extra = make(map[string]string, n)
			for j := 0; j < n && r.err == nil; j++ {
				k := r.str()
				extra[k] = r.str()
			}
		}
		vec := make([]float32, x.dim)
		for j := range vec {
			vec[j] = math.Float32frombits(r.u32())
		}
		if r.err != nil {
			break
		}
		doc := document.Reconstruct(id, pageID, url, text, extra, vec)
		// x is not shared yet, so no lock is taken.
		if err := x.appendLocked(doc); err != nil {
			return nil, fmt.Errorf("%w: document %q: %w", domain.ErrArchiveFormat, id, err)
		}
	}
	if r.err != nil {
		return nil, fmt.Errorf("%w: documents: %w", domain.ErrArchiveFormat, r.err)
	}
	if r.off != len(data) {
		return nil, fmt.Errorf("%w: %d trailing bytes", domain.ErrArchiveFormat, len(data)-r.off)
	}
	return x, nil
}

// reader is a cursor over a payload; the first short read sets err and
// turns every later read into a zero value.
type reader struct {
	data []byte
	off  int
	err  error
}

func (r *reader) bytes(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || r.off+n > len(r.data) {
		r.err = errTruncated
		return nil
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b
}

func (r *reader) u8() uint8 {
	b := r.bytes(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *reader) u16() uint16 {
	b := r.bytes(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (r *reader) u32() uint32 {
	b := r.bytes(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *reader) str() string {
	n := r.u32()
	if r.err != nil {
		return ""
	}
	if uint64(n) > uint64(len(r.data)-r.off) {
		r.err = errTruncated
		return ""
	}
	return string(r.bytes(int(n)))
}
