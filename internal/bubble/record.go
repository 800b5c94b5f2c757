// Package bubble provides a client for the Bubble object API that
// sheetmigrate reads source records from.
package bubble

import "time"

// Record is one loosely-typed source document as returned by the object API.
// Field names vary by entity type; typed accessors perform the coercion at
// the client boundary so transform code never touches raw interface values.
type Record map[string]interface{}

// Well-known field names assigned by the source system to every record.
const (
	fieldID       = "_id"
	fieldCreated  = "Created Date"
	fieldModified = "Modified Date"
)

// ID returns the source-assigned unique ID of the record.
func (r Record) ID() string {
	return r.String(fieldID)
}

// CreatedAt returns the source creation timestamp, or the zero time if the
// field is absent or malformed.
func (r Record) CreatedAt() time.Time {
	return r.Time(fieldCreated)
}

// ModifiedAt returns the source modification timestamp, or the zero time if
// the field is absent or malformed.
func (r Record) ModifiedAt() time.Time {
	return r.Time(fieldModified)
}

// String returns the named field as a string. Missing or non-string fields
// return the empty string.
func (r Record) String(field string) string {
	if s, ok := r[field].(string); ok {
		return s
	}
	return ""
}

// NullString returns the named field as a *string, nil when the field is
// missing or empty. Optional text columns in the destination are nullable,
// so absence maps to NULL rather than "".
func (r Record) NullString(field string) *string {
	s := r.String(field)
	if s == "" {
		return nil
	}
	return &s
}

// Bool returns the named field as a bool, or def when the field is missing
// or not a bool. The source system leaves unset booleans undefined, so every
// caller must state its default explicitly.
func (r Record) Bool(field string, def bool) bool {
	if b, ok := r[field].(bool); ok {
		return b
	}
	return def
}

// Float returns the named field as a float64. JSON numbers always decode to
// float64; anything else returns 0.
func (r Record) Float(field string) float64 {
	if f, ok := r[field].(float64); ok {
		return f
	}
	return 0
}

// Int returns the named field as an int, truncating any fractional part.
func (r Record) Int(field string) int {
	return int(r.Float(field))
}

// StringList returns the named field as a slice of strings. Bubble encodes
// list-of-reference fields as JSON arrays of ID strings; non-string elements
// are dropped. A missing field returns nil.
func (r Record) StringList(field string) []string {
	raw, ok := r[field].([]interface{})
	if !ok {
		return nil
	}
	var out []string
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Time returns the named field parsed as an RFC3339 timestamp, or the zero
// time on absence or parse failure.
func (r Record) Time(field string) time.Time {
	s := r.String(field)
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
