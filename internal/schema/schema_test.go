package schema

import "testing"

func TestNewComputesStoredOffsetsSkippingVarColumns(t *testing.T) {
	s, err := New("t", []Column{
		{Name: "id", Type: TypeInteger},
		{Name: "name", Type: TypeString},
		{Name: "active", Type: TypeBoolean},
		{Name: "tag", Type: TypeString},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if s.Columns[0].StoredOffset != 0 {
		t.Fatalf("id offset = %d, want 0", s.Columns[0].StoredOffset)
	}
	if s.Columns[1].StoredOffset != 0 {
		t.Fatalf("name ordinal = %d, want 0", s.Columns[1].StoredOffset)
	}
	if s.Columns[2].StoredOffset != 5 {
		t.Fatalf("active offset = %d, want 5", s.Columns[2].StoredOffset)
	}
	if s.Columns[3].StoredOffset != 1 {
		t.Fatalf("tag ordinal = %d, want 1", s.Columns[3].StoredOffset)
	}
	if s.FixedFieldSizeBytes != 7 {
		t.Fatalf("FixedFieldSizeBytes = %d, want 7", s.FixedFieldSizeBytes)
	}
}

func TestNewRejectsDuplicateColumnNames(t *testing.T) {
	_, err := New("t", []Column{
		{Name: "id", Type: TypeInteger},
		{Name: "id", Type: TypeString},
	})
	if err == nil {
		t.Fatal("expected duplicate column name error")
	}
}

func TestColumnIndexFindsByName(t *testing.T) {
	s, err := New("t", []Column{
		{Name: "id", Type: TypeInteger},
		{Name: "name", Type: TypeString},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if s.ColumnIndex("name") != 1 {
		t.Fatalf("ColumnIndex(name) = %d, want 1", s.ColumnIndex("name"))
	}
	if s.ColumnIndex("missing") != -1 {
		t.Fatalf("ColumnIndex(missing) = %d, want -1", s.ColumnIndex("missing"))
	}
}

func TestCatalogEncodeDecodeRoundTrip(t *testing.T) {
	s, err := New("pets", []Column{
		{Name: "id", Type: TypeInteger},
		{Name: "name", Type: TypeString, MaxStringLen: 64},
		{Name: "weight", Type: TypeFloat, Nullable: true},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	buf := s.CatalogEncode()
	got, err := CatalogDecode(buf)
	if err != nil {
		t.Fatalf("CatalogDecode: %v", err)
	}
	if got.Name != s.Name || got.Arity() != s.Arity() {
		t.Fatalf("got %+v, want %+v", got, s)
	}
	for i := range s.Columns {
		if got.Columns[i].Name != s.Columns[i].Name ||
			got.Columns[i].Type != s.Columns[i].Type ||
			got.Columns[i].Nullable != s.Columns[i].Nullable ||
			got.Columns[i].MaxStringLen != s.Columns[i].MaxStringLen {
			t.Fatalf("column %d: got %+v, want %+v", i, got.Columns[i], s.Columns[i])
		}
	}
}
