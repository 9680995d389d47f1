// Package clover provides a client for the Clover REST API.
package clover

import (
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/peteski22/cloverbridge/internal/entity"
	"github.com/peteski22/cloverbridge/internal/upstream"
)

const (
	// FieldCreatedTime is the creation timestamp on orders and payments.
	FieldCreatedTime = "createdTime"

	// FieldCustomerSince is the creation timestamp on customers.
	FieldCustomerSince = "customerSince"

	// PaymentStatePaid marks an order that has been paid in full.
	PaymentStatePaid = "PAID"
)

// Resource returns the Clover URL resource for an entity type.
func Resource(t entity.Type) (string, error) {
	switch t {
	case entity.Customers:
		return "customers", nil
	case entity.Inventory:
		return "items", nil
	case entity.Orders:
		return "orders", nil
	case entity.Payments:
		return "payments", nil
	default:
		return "", fmt.Errorf("no Clover resource for entity type %q", t)
	}
}

// CursorField returns the timestamp field used for incremental fetches of t.
// Inventory items carry no such field, so it returns "".
func CursorField(t entity.Type) string {
	switch t {
	case entity.Customers:
		return FieldCustomerSince
	case entity.Orders, entity.Payments:
		return FieldCreatedTime
	default:
		return ""
	}
}

// Record is a raw Clover element. Its shape depends on the entity type.
type Record struct {
	data gjson.Result
}

// NewRecord parses a single JSON object into a Record.
func NewRecord(raw string) (Record, error) {
	if !gjson.Valid(raw) {
		return Record{}, &upstream.DecodeError{Reason: "invalid json"}
	}
	result := gjson.Parse(raw)
	if !result.IsObject() {
		return Record{}, &upstream.DecodeError{Reason: "element is not an object"}
	}
	return Record{data: result}, nil
}

// MustRecord is like NewRecord but panics on malformed input. Intended for tests and fixtures.
func MustRecord(raw string) Record {
	r, err := NewRecord(raw)
	if err != nil {
		panic(err)
	}
	return r
}

// ID returns the Clover identifier of the element.
func (r Record) ID() string {
	return r.data.Get("id").String()
}

// Raw returns the element's JSON.
func (r Record) Raw() string {
	return r.data.Raw
}

// StringForPath returns the string at path and whether it was present and non-null.
func (r Record) StringForPath(path string) (string, bool) {
	result := r.data.Get(path)
	return result.String(), result.Exists() && result.Value() != nil
}

// IntForPath returns the integer at path and whether it was present and non-null.
func (r Record) IntForPath(path string) (int64, bool) {
	result := r.data.Get(path)
	return result.Int(), result.Exists() && result.Value() != nil
}

// BoolForPath returns the boolean at path and whether it was present and non-null.
func (r Record) BoolForPath(path string) (bool, bool) {
	result := r.data.Get(path)
	return result.Bool(), result.Exists() && result.Value() != nil
}

// CursorToken returns the record's watermark token for entity type t.
func (r Record) CursorToken(t entity.Type) (string, bool) {
	field := CursorField(t)
	if field == "" {
		return "", false
	}
	token, ok := r.StringForPath(field)
	return token, ok && token != ""
}

// LatestCursor returns the greatest cursor token among records, which is the
// token of the most recent element on the page.
func LatestCursor(t entity.Type, records []Record) (string, bool) {
	var latest string
	for _, r := range records {
		token, ok := r.CursorToken(t)
		if !ok {
			continue
		}
		if entity.CompareTokens(token, latest) > 0 {
			latest = token
		}
	}
	return latest, latest != ""
}

// parsePage decodes a Clover list response of the form {"elements": [...]}.
func parsePage(body string) ([]Record, error) {
	if !gjson.Valid(body) {
		return nil, &upstream.DecodeError{Reason: "invalid json"}
	}

	page := gjson.Parse(body)
	if !page.IsObject() {
		return nil, &upstream.DecodeError{Reason: "page is not an object"}
	}

	elements := page.Get("elements")
	if !elements.IsArray() {
		return nil, &upstream.DecodeError{Reason: "page has no elements list"}
	}

	items := elements.Array()
	records := make([]Record, 0, len(items))
	for i, item := range items {
		if !item.IsObject() {
			return nil, &upstream.DecodeError{Reason: fmt.Sprintf("element %d is not an object", i)}
		}
		records = append(records, Record{data: item})
	}

	return records, nil
}
