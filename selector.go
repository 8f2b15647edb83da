package flatrecord

// ReadPredicate decides, from a record's raw field vector, whether its
// paired schema should be used to parse that record.
type ReadPredicate func(rawFields []string) bool

// WritePredicate decides, from a typed entity about to be written, whether
// its paired schema should be used to format that record.
type WritePredicate func(entity interface{}) bool

type readRule struct {
	predicate ReadPredicate
	schema    *Schema
}

type writeRule struct {
	predicate WritePredicate
	schema    *Schema
}

// SchemaSelector chooses one Schema per record from an ordered list of
// predicates. The first matching predicate wins; if none match, the
// configured default is used, and if there is no default a
// SchemaSelectionError is raised.
type SchemaSelector struct {
	readRules  []readRule
	writeRules []writeRule
	def        *Schema
}

// NewSchemaSelector returns an empty SchemaSelector.
func NewSchemaSelector() *SchemaSelector {
	return &SchemaSelector{}
}

// AddReadRule registers a schema to use for records whose raw fields satisfy
// predicate, in insertion order.
func (s *SchemaSelector) AddReadRule(predicate ReadPredicate, schema *Schema) *SchemaSelector {
	s.readRules = append(s.readRules, readRule{predicate, schema})
	return s
}

// AddWriteRule registers a schema to use for entities satisfying predicate,
// in insertion order.
func (s *SchemaSelector) AddWriteRule(predicate WritePredicate, schema *Schema) *SchemaSelector {
	s.writeRules = append(s.writeRules, writeRule{predicate, schema})
	return s
}

// SetDefault configures the schema used when no rule matches.
func (s *SchemaSelector) SetDefault(schema *Schema) *SchemaSelector {
	s.def = schema
	return s
}

// SelectForRead returns the schema to use for a record's raw fields.
func (s *SchemaSelector) SelectForRead(rawFields []string, physicalRecordNumber int64) (*Schema, error) {
	for _, r := range s.readRules {
		if r.predicate(rawFields) {
			return r.schema, nil
		}
	}
	if s.def != nil {
		return s.def, nil
	}
	return nil, newSchemaSelectionError(physicalRecordNumber)
}

// SelectForWrite returns the schema to use for an entity about to be
// written.
func (s *SchemaSelector) SelectForWrite(entity interface{}, physicalRecordNumber int64) (*Schema, error) {
	for _, r := range s.writeRules {
		if r.predicate(entity) {
			return r.schema, nil
		}
	}
	if s.def != nil {
		return s.def, nil
	}
	return nil, newSchemaSelectionError(physicalRecordNumber)
}
