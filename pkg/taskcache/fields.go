package taskcache

import (
	"fmt"
	"sort"
	"strings"
)

// Field names one optional task attribute.
type Field uint8

// Optional fields, in canonical order.
const (
	FieldTag Field = iota
	FieldStartDate
	FieldDueDate
	FieldDueTime
	FieldStar
	FieldPriority
	FieldDueDateModifier
	FieldStatus
	FieldLength
	FieldNote
	FieldRepeat
	FieldParent
	FieldFolder
	FieldContext
	FieldMeta

	numFields
)

// Wire names, indexed by Field.
var fieldNames = [numFields]string{
	FieldTag:             "tag",
	FieldStartDate:       "startdate",
	FieldDueDate:         "duedate",
	FieldDueTime:         "duetime",
	FieldStar:            "star",
	FieldPriority:        "priority",
	FieldDueDateModifier: "duedatemod",
	FieldStatus:          "status",
	FieldLength:          "length",
	FieldNote:            "note",
	FieldRepeat:          "repeat",
	FieldParent:          "parent",
	FieldFolder:          "folder",
	FieldContext:         "context",
	FieldMeta:            "meta",
}

// coreFieldNames are always carried and may appear in a field list.
var coreFieldNames = map[string]bool{
	"id":        true,
	"title":     true,
	"modified":  true,
	"completed": true,
}

func (f Field) String() string {
	if f < numFields {
		return fieldNames[f]
	}

	return fmt.Sprintf("field(%d)", uint8(f))
}

// FieldSet is a set of optional fields. The zero value is the empty set.
type FieldSet uint32

// AllFields contains every optional field.
const AllFields = FieldSet(1<<numFields - 1)

// FieldsOf builds a set from individual fields.
func FieldsOf(fields ...Field) FieldSet {
	var set FieldSet

	for _, f := range fields {
		set |= 1 << f
	}

	return set
}

// ParseFieldSet parses a comma-separated list of wire names.
//
// Whitespace around names and empty elements are ignored. Core names (id,
// title, modified, completed) are accepted and carry no bit. Unknown names
// fail with [ErrUnsupportedField].
func ParseFieldSet(list string) (FieldSet, error) {
	var (
		set     FieldSet
		unknown []string
	)

	for name := range strings.SplitSeq(list, ",") {
		name = strings.TrimSpace(name)
		if name == "" || coreFieldNames[name] {
			continue
		}

		field, ok := fieldByName(name)
		if !ok {
			unknown = append(unknown, name)

			continue
		}

		set |= 1 << field
	}

	if len(unknown) > 0 {
		sort.Strings(unknown)

		return 0, fmt.Errorf("%w: %s", ErrUnsupportedField, strings.Join(unknown, ", "))
	}

	return set, nil
}

func fieldByName(name string) (Field, bool) {
	for f, n := range fieldNames {
		if n == name {
			return Field(f), true
		}
	}

	return 0, false
}

// Has reports whether f is in the set.
func (s FieldSet) Has(f Field) bool {
	return s&(1<<f) != 0
}

// Contains reports whether every field of other is in s.
func (s FieldSet) Contains(other FieldSet) bool {
	return other&^s == 0
}

// Missing returns the fields of want that are not in s.
func (s FieldSet) Missing(want FieldSet) FieldSet {
	return want &^ s
}

// Fields returns the members in canonical order.
func (s FieldSet) Fields() []Field {
	var out []Field

	for f := range numFields {
		if s.Has(f) {
			out = append(out, f)
		}
	}

	return out
}

// String returns the comma-joined wire names in canonical order.
func (s FieldSet) String() string {
	fields := s.Fields()
	names := make([]string, len(fields))

	for i, f := range fields {
		names[i] = f.String()
	}

	return strings.Join(names, ",")
}
