// Package row implements Row<->Tuple (de)serialization per spec §3/§4.F:
// a row is a fixed-arity list of Fields; a tuple is its opaque serialized
// byte form.
//
// Layout (spec §3):
//
//	[ var-field offset table: u16 × V ][ fixed-field data ][ variable-field data ]
//
// Grounded on original_source/src/storage/tuple/row.rs for the offset-table
// shape, adapted to tag-prefix every field (as the teacher's
// _examples/SimonWaldherr-tinySQL/internal/storage/pager/row_codec.go
// tags every value in its binary row codec) so a Null value in a
// fixed-width column still occupies a stable-width slot — the original's
// fixed-width-without-a-tag layout has no way to represent a fixed-column
// Null without aliasing it to a zero value, which this repo avoids.
package row

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/sjwhitworth/goheap/internal/dberr"
	"github.com/sjwhitworth/goheap/internal/field"
	"github.com/sjwhitworth/goheap/internal/schema"
)

// Row is an ordered list of Fields matching a Schema's arity.
type Row []field.Field

// Tuple is an opaque serialized Row; it carries no schema of its own.
type Tuple []byte

const (
	tagNull  byte = 0
	tagBool  byte = 1
	tagInt   byte = 2
	tagFloat byte = 3
	tagStr   byte = 4
)

// fieldBytes encodes one Field as tag + payload. Fixed-kind payloads are a
// constant width (1 for bool, 4 for int/float) regardless of whether the
// value held is actually that kind — callers must only invoke this for a
// Field whose Kind matches the column's declared type, or Null.
func fieldBytes(f field.Field, col schema.Column) ([]byte, error) {
	if f.IsNull() {
		switch col.Type {
		case schema.TypeString:
			return []byte{tagNull}, nil
		default:
			pad := make([]byte, fixedPayloadWidth(col.Type))
			return append([]byte{tagNull}, pad...), nil
		}
	}
	if f.Kind != col.Type {
		return nil, fmt.Errorf("row: column %q expects %s, got %s: %w", col.Name, col.Type, f.Kind, dberr.InvalidInput)
	}
	switch f.Kind {
	case schema.TypeBoolean:
		b := byte(0)
		if f.B {
			b = 1
		}
		return []byte{tagBool, b}, nil
	case schema.TypeInteger:
		buf := make([]byte, 5)
		buf[0] = tagInt
		binary.LittleEndian.PutUint32(buf[1:], uint32(f.I))
		return buf, nil
	case schema.TypeFloat:
		buf := make([]byte, 5)
		buf[0] = tagFloat
		binary.LittleEndian.PutUint32(buf[1:], math.Float32bits(f.F))
		return buf, nil
	case schema.TypeString:
		if col.MaxStringLen > 0 && len(f.S) > col.MaxStringLen {
			return nil, fmt.Errorf("row: column %q string exceeds max length %d: %w", col.Name, col.MaxStringLen, dberr.InvalidInput)
		}
		return append([]byte{tagStr}, []byte(f.S)...), nil
	default:
		return nil, fmt.Errorf("row: unsupported field kind %s: %w", f.Kind, dberr.InvalidInput)
	}
}

func fixedPayloadWidth(t schema.DataType) int {
	switch t {
	case schema.TypeBoolean:
		return 1
	case schema.TypeInteger, schema.TypeFloat:
		return 4
	default:
		return 0
	}
}

func decodeField(buf []byte) (field.Field, error) {
	if len(buf) == 0 {
		return field.Field{}, fmt.Errorf("row: empty field payload: %w", dberr.InvalidData)
	}
	switch buf[0] {
	case tagNull:
		return field.NewNull(), nil
	case tagBool:
		if len(buf) < 2 {
			return field.Field{}, fmt.Errorf("row: truncated bool field: %w", dberr.InvalidData)
		}
		return field.NewBool(buf[1] != 0), nil
	case tagInt:
		if len(buf) < 5 {
			return field.Field{}, fmt.Errorf("row: truncated int field: %w", dberr.InvalidData)
		}
		return field.NewInt(int32(binary.LittleEndian.Uint32(buf[1:5]))), nil
	case tagFloat:
		if len(buf) < 5 {
			return field.Field{}, fmt.Errorf("row: truncated float field: %w", dberr.InvalidData)
		}
		return field.NewFloat(math.Float32frombits(binary.LittleEndian.Uint32(buf[1:5]))), nil
	case tagStr:
		return field.NewString(string(buf[1:])), nil
	default:
		return field.Field{}, fmt.Errorf("row: unknown field tag %d: %w", buf[0], dberr.InvalidData)
	}
}

// Serialize encodes r against s into its Tuple form.
func Serialize(r Row, s *schema.Schema) (Tuple, error) {
	if len(r) != s.Arity() {
		return nil, fmt.Errorf("row: arity %d does not match schema arity %d: %w", len(r), s.Arity(), dberr.InvalidInput)
	}

	varCount := s.VarColumnCount()
	headerSize := 2 * varCount

	fixedBytes := make([][]byte, 0, len(s.Columns)-varCount)
	varBytes := make([][]byte, varCount)

	for i, col := range s.Columns {
		fb, err := fieldBytes(r[i], col)
		if err != nil {
			return nil, err
		}
		if col.Type == schema.TypeString {
			varBytes[col.StoredOffset] = fb
		} else {
			fixedBytes = append(fixedBytes, fb)
		}
	}

	// Compute absolute offsets (from row start, i.e. including header).
	offsets := make([]uint16, varCount)
	cursor := headerSize + s.FixedFieldSizeBytes
	for i, b := range varBytes {
		offsets[i] = uint16(cursor)
		cursor += len(b)
	}

	out := make([]byte, cursor)
	for i, off := range offsets {
		binary.LittleEndian.PutUint16(out[2*i:2*i+2], off)
	}
	fixedCursor := headerSize
	for _, b := range fixedBytes {
		copy(out[fixedCursor:], b)
		fixedCursor += len(b)
	}
	varCursor := headerSize + s.FixedFieldSizeBytes
	for _, b := range varBytes {
		copy(out[varCursor:], b)
		varCursor += len(b)
	}

	return Tuple(out), nil
}

// Deserialize decodes a Tuple produced by Serialize back into a Row,
// against s.
func Deserialize(t Tuple, s *schema.Schema) (Row, error) {
	varCount := s.VarColumnCount()
	headerSize := 2 * varCount
	if len(t) < headerSize {
		return nil, fmt.Errorf("row: tuple shorter than offset table: %w", dberr.InvalidData)
	}

	offsets := make([]int, varCount)
	for i := 0; i < varCount; i++ {
		offsets[i] = int(binary.LittleEndian.Uint16(t[2*i : 2*i+2]))
	}

	out := make(Row, s.Arity())
	for i, col := range s.Columns {
		if col.Type == schema.TypeString {
			idx := col.StoredOffset
			if idx >= len(offsets) {
				return nil, fmt.Errorf("row: variable column %q offset index out of range: %w", col.Name, dberr.OutOfBounds)
			}
			start := offsets[idx]
			end := len(t)
			if idx+1 < len(offsets) {
				end = offsets[idx+1]
			}
			if start < 0 || end > len(t) || start > end {
				return nil, fmt.Errorf("row: variable column %q has invalid span: %w", col.Name, dberr.InvalidData)
			}
			f, err := decodeField(t[start:end])
			if err != nil {
				return nil, err
			}
			out[i] = f
			continue
		}
		start := headerSize + col.StoredOffset
		end := start + lengthBytesFor(col.Type)
		if end > len(t) {
			return nil, fmt.Errorf("row: fixed column %q runs past tuple end: %w", col.Name, dberr.InvalidData)
		}
		f, err := decodeField(t[start:end])
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}

func lengthBytesFor(t schema.DataType) int {
	switch t {
	case schema.TypeBoolean:
		return 2
	case schema.TypeInteger, schema.TypeFloat:
		return 5
	default:
		return 0
	}
}
