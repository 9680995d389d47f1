// Package entity defines the entity types replicated from Clover to HubSpot.
package entity

import (
	"strconv"
	"strings"
	"time"
)

// Type identifies one of the replicated entity types.
type Type string

const (
	// Customers are Clover customers, replicated as HubSpot contacts.
	Customers Type = "customers"

	// Inventory are Clover inventory items, replicated as HubSpot products.
	Inventory Type = "inventory"

	// Orders are Clover orders, replicated as HubSpot deals.
	Orders Type = "orders"

	// Payments are Clover payments, replicated as HubSpot commerce payments.
	Payments Type = "payments"
)

// All returns every entity type in a stable order.
func All() []Type {
	return []Type{Customers, Payments, Orders, Inventory}
}

// Valid reports whether t is a known entity type.
func (t Type) Valid() bool {
	switch t {
	case Customers, Inventory, Orders, Payments:
		return true
	default:
		return false
	}
}

// String returns the type name.
func (t Type) String() string {
	return string(t)
}

// ParseType converts a case-insensitive name into a Type.
func ParseType(name string) (Type, bool) {
	t := Type(strings.ToLower(strings.TrimSpace(name)))
	return t, t.Valid()
}

// CompareTokens orders two cursor tokens, returning -1, 0 or 1.
// Integer tokens (epoch milliseconds) compare numerically and RFC 3339
// tokens compare as instants. Anything else falls back to string order.
// An empty token sorts before every non-empty token.
func CompareTokens(a string, b string) int {
	switch {
	case a == b:
		return 0
	case a == "":
		return -1
	case b == "":
		return 1
	}

	if ai, err := strconv.ParseInt(a, 10, 64); err == nil {
		if bi, err := strconv.ParseInt(b, 10, 64); err == nil {
			return compareOrdered(ai, bi)
		}
	}

	if at, err := time.Parse(time.RFC3339Nano, a); err == nil {
		if bt, err := time.Parse(time.RFC3339Nano, b); err == nil {
			return at.Compare(bt)
		}
	}

	return strings.Compare(a, b)
}

func compareOrdered(a int64, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
