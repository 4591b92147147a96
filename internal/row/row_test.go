package row

import (
	"testing"

	"github.com/sjwhitworth/goheap/internal/field"
	"github.com/sjwhitworth/goheap/internal/schema"
)

func testSchema(t *testing.T) *schema.Schema {
	t.Helper()
	s, err := schema.New("t", []schema.Column{
		{Name: "id", Type: schema.TypeInteger},
		{Name: "name", Type: schema.TypeString},
		{Name: "active", Type: schema.TypeBoolean, Nullable: true},
		{Name: "tag", Type: schema.TypeString},
	})
	if err != nil {
		t.Fatalf("schema.New: %v", err)
	}
	return s
}

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	s := testSchema(t)
	r := Row{field.NewInt(42), field.NewString("hello"), field.NewBool(true), field.NewString("x")}

	tup, err := Serialize(r, s)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	got, err := Deserialize(tup, s)
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if len(got) != len(r) {
		t.Fatalf("got %d fields, want %d", len(got), len(r))
	}
	for i := range r {
		if !got[i].Equal(r[i]) {
			t.Fatalf("field %d: got %v, want %v", i, got[i], r[i])
		}
	}
}

func TestSerializeNullInFixedColumn(t *testing.T) {
	s := testSchema(t)
	r := Row{field.NewInt(1), field.NewString(""), field.NewNull(), field.NewString("")}

	tup, err := Serialize(r, s)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	got, err := Deserialize(tup, s)
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if !got[2].IsNull() {
		t.Fatalf("got %v, want Null", got[2])
	}
}

func TestSerializeRejectsArityMismatch(t *testing.T) {
	s := testSchema(t)
	if _, err := Serialize(Row{field.NewInt(1)}, s); err == nil {
		t.Fatal("expected arity mismatch error")
	}
}

func TestSerializeRejectsKindMismatch(t *testing.T) {
	s := testSchema(t)
	r := Row{field.NewString("not an int"), field.NewString(""), field.NewNull(), field.NewString("")}
	if _, err := Serialize(r, s); err == nil {
		t.Fatal("expected kind mismatch error")
	}
}

func TestSerializeRejectsStringOverMaxLen(t *testing.T) {
	s, err := schema.New("t", []schema.Column{
		{Name: "name", Type: schema.TypeString, MaxStringLen: 3},
	})
	if err != nil {
		t.Fatalf("schema.New: %v", err)
	}
	if _, err := Serialize(Row{field.NewString("toolong")}, s); err == nil {
		t.Fatal("expected max-length error")
	}
}

func TestSerializeVariableLengthStringsAtDifferentOffsets(t *testing.T) {
	s, err := schema.New("t", []schema.Column{
		{Name: "a", Type: schema.TypeString},
		{Name: "b", Type: schema.TypeString},
	})
	if err != nil {
		t.Fatalf("schema.New: %v", err)
	}
	r := Row{field.NewString("short"), field.NewString("a much longer value")}
	tup, err := Serialize(r, s)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	got, err := Deserialize(tup, s)
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if got[0].S != "short" || got[1].S != "a much longer value" {
		t.Fatalf("got %v, %v", got[0], got[1])
	}
}
