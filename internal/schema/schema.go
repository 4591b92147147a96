// Package schema implements Column and Schema of spec §3: the typed,
// ordered column list a Row serializes against.
//
// Grounded on original_source/src/types/schema.rs for the stored_offset
// and fixed_field_size_bytes invariants, and on the column-header encoding
// idiom of askorykh-goDB's internal/storage/filestore/format.go
// (writeHeader/readHeader) for CatalogEncode/CatalogDecode below.
package schema

import (
	"encoding/binary"
	"fmt"

	"github.com/sjwhitworth/goheap/internal/dberr"
	"github.com/sjwhitworth/goheap/internal/field"
)

// DataType is a column's declared type. It reuses field.Kind's tag space;
// Null is not a valid column DataType (nullability is a separate flag).
type DataType = field.Kind

const (
	TypeBoolean = field.Boolean
	TypeInteger = field.Integer
	TypeFloat   = field.Float
	TypeString  = field.String
)

// lengthBytes returns the fixed-field byte width of a non-text type,
// including the one-byte type tag every field carries (see
// internal/row's codec) so a Null value still occupies a stable-width
// slot in the fixed region.
func lengthBytes(t DataType) int {
	switch t {
	case TypeBoolean:
		return 2 // tag + 1 payload byte
	case TypeInteger:
		return 5 // tag + 4 payload bytes
	case TypeFloat:
		return 5 // tag + 4 payload bytes
	default:
		return 0
	}
}

// Column describes one field of a Schema.
type Column struct {
	Name         string
	Type         DataType
	Nullable     bool
	Default      field.Field
	MaxStringLen int // only meaningful for TypeString; 0 means unbounded

	// StoredOffset is computed when the column is appended to a Schema:
	// for fixed-width columns it is the byte offset into the fixed-field
	// region; for TypeString columns it is the column's ordinal among
	// text columns (its index into the variable-offset table).
	StoredOffset int
}

// Schema is an ordered, named list of columns.
type Schema struct {
	Name              string
	Columns           []Column
	FixedFieldSizeBytes int
}

// New builds a Schema from columns, computing each column's StoredOffset
// and the schema's FixedFieldSizeBytes. Column names must be unique.
func New(name string, columns []Column) (*Schema, error) {
	seen := make(map[string]bool, len(columns))
	out := make([]Column, len(columns))
	fixedOff := 0
	varOrdinal := 0
	for i, c := range columns {
		if seen[c.Name] {
			return nil, fmt.Errorf("schema: duplicate column name %q: %w", c.Name, dberr.InvalidInput)
		}
		seen[c.Name] = true
		out[i] = c
		if c.Type == TypeString {
			out[i].StoredOffset = varOrdinal
			varOrdinal++
		} else {
			out[i].StoredOffset = fixedOff
			fixedOff += lengthBytes(c.Type)
		}
	}
	return &Schema{Name: name, Columns: out, FixedFieldSizeBytes: fixedOff}, nil
}

// Arity is the number of columns.
func (s *Schema) Arity() int { return len(s.Columns) }

// VarColumnCount is the number of TypeString columns.
func (s *Schema) VarColumnCount() int {
	n := 0
	for _, c := range s.Columns {
		if c.Type == TypeString {
			n++
		}
	}
	return n
}

// ColumnIndex returns the index of the column named name, or -1.
func (s *Schema) ColumnIndex(name string) int {
	for i, c := range s.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// CatalogEncode serializes the schema's name and columns for on-disk
// storage (table catalog), following the teacher's header-encoding idiom:
// a 2-byte count, then per-column a length-prefixed name and a 1-byte type
// tag, plus nullability and max-string-length.
func (s *Schema) CatalogEncode() []byte {
	buf := make([]byte, 0, 64)
	nameBytes := []byte(s.Name)
	buf = appendU16(buf, uint16(len(nameBytes)))
	buf = append(buf, nameBytes...)
	buf = appendU16(buf, uint16(len(s.Columns)))
	for _, c := range s.Columns {
		cb := []byte(c.Name)
		buf = appendU16(buf, uint16(len(cb)))
		buf = append(buf, cb...)
		buf = append(buf, byte(c.Type))
		var nullable byte
		if c.Nullable {
			nullable = 1
		}
		buf = append(buf, nullable)
		buf = appendU16(buf, uint16(c.MaxStringLen))
	}
	return buf
}

// CatalogDecode is the inverse of CatalogEncode.
func CatalogDecode(buf []byte) (*Schema, error) {
	off := 0
	readU16 := func() (uint16, error) {
		if off+2 > len(buf) {
			return 0, fmt.Errorf("schema: truncated catalog entry: %w", dberr.InvalidData)
		}
		v := binary.LittleEndian.Uint16(buf[off : off+2])
		off += 2
		return v, nil
	}

	nameLen, err := readU16()
	if err != nil {
		return nil, err
	}
	if off+int(nameLen) > len(buf) {
		return nil, fmt.Errorf("schema: truncated name: %w", dberr.InvalidData)
	}
	name := string(buf[off : off+int(nameLen)])
	off += int(nameLen)

	numCols, err := readU16()
	if err != nil {
		return nil, err
	}
	cols := make([]Column, 0, numCols)
	for i := 0; i < int(numCols); i++ {
		cLen, err := readU16()
		if err != nil {
			return nil, err
		}
		if off+int(cLen) > len(buf) {
			return nil, fmt.Errorf("schema: truncated column name: %w", dberr.InvalidData)
		}
		cName := string(buf[off : off+int(cLen)])
		off += int(cLen)
		if off+1 > len(buf) {
			return nil, fmt.Errorf("schema: truncated type tag: %w", dberr.InvalidData)
		}
		t := DataType(buf[off])
		off++
		if off+1 > len(buf) {
			return nil, fmt.Errorf("schema: truncated nullable flag: %w", dberr.InvalidData)
		}
		nullable := buf[off] != 0
		off++
		maxLen, err := readU16()
		if err != nil {
			return nil, err
		}
		cols = append(cols, Column{Name: cName, Type: t, Nullable: nullable, MaxStringLen: int(maxLen)})
	}
	return New(name, cols)
}

func appendU16(buf []byte, v uint16) []byte {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	return append(buf, b[:]...)
}
