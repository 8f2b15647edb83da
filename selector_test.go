package flatrecord

import "testing"

func TestSchemaSelectorFirstMatchWins(t *testing.T) {
	schemaA := NewSchema()
	schemaB := NewSchema()

	sel := NewSchemaSelector().
		AddReadRule(func(fields []string) bool { return len(fields) > 0 && fields[0] == "A" }, schemaA).
		AddReadRule(func(fields []string) bool { return true }, schemaB)

	got, err := sel.SelectForRead([]string{"A", "x"}, 1)
	if err != nil {
		t.Fatalf("SelectForRead: %v", err)
	}
	if got != schemaA {
		t.Error("expected schemaA to match first")
	}

	got, err = sel.SelectForRead([]string{"B", "x"}, 2)
	if err != nil {
		t.Fatalf("SelectForRead: %v", err)
	}
	if got != schemaB {
		t.Error("expected schemaB to match via catch-all rule")
	}
}

func TestSchemaSelectorNoMatchNoDefaultErrors(t *testing.T) {
	sel := NewSchemaSelector().AddReadRule(func(fields []string) bool { return false }, NewSchema())
	_, err := sel.SelectForRead([]string{"x"}, 3)
	if err == nil {
		t.Fatal("expected SchemaSelectionError")
	}
	sse, ok := err.(*SchemaSelectionError)
	if !ok {
		t.Fatalf("err = %T, want *SchemaSelectionError", err)
	}
	if sse.PhysicalRecordNumber != 3 {
		t.Errorf("PhysicalRecordNumber = %d, want 3", sse.PhysicalRecordNumber)
	}
}

func TestSchemaSelectorDefaultUsedWhenNoRuleMatches(t *testing.T) {
	def := NewSchema()
	sel := NewSchemaSelector().
		AddReadRule(func(fields []string) bool { return false }, NewSchema()).
		SetDefault(def)

	got, err := sel.SelectForRead([]string{"x"}, 1)
	if err != nil {
		t.Fatalf("SelectForRead: %v", err)
	}
	if got != def {
		t.Error("expected default schema")
	}
}

func TestSchemaSelectorWriteRules(t *testing.T) {
	type order struct{ kind string }
	schemaA := NewSchema()
	schemaB := NewSchema()

	sel := NewSchemaSelector().
		AddWriteRule(func(e interface{}) bool { return e.(order).kind == "A" }, schemaA).
		AddWriteRule(func(e interface{}) bool { return e.(order).kind == "B" }, schemaB)

	got, err := sel.SelectForWrite(order{kind: "B"}, 1)
	if err != nil {
		t.Fatalf("SelectForWrite: %v", err)
	}
	if got != schemaB {
		t.Error("expected schemaB")
	}
}
