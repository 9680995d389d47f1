// Package hubspot provides a client for the HubSpot CRM v3 objects API.
package hubspot

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/iancoleman/strcase"

	"github.com/peteski22/cloverbridge/internal/entity"
)

// ObjectType is a HubSpot CRM object type, used as the URL resource segment.
type ObjectType string

const (
	// ObjectCommercePayments holds payments.
	ObjectCommercePayments ObjectType = "commerce_payments"

	// ObjectContacts holds people.
	ObjectContacts ObjectType = "contacts"

	// ObjectDeals holds deals.
	ObjectDeals ObjectType = "deals"

	// ObjectProducts holds the product library.
	ObjectProducts ObjectType = "products"
)

// DealToContactAssociationTypeID is HubSpot's default deal-to-contact association type.
const DealToContactAssociationTypeID = 3

// Standard HubSpot property names.
const (
	PropertyAmount        = "amount"
	PropertyDealName      = "dealname"
	PropertyDealStage     = "dealstage"
	PropertyEmail         = "email"
	PropertyFirstName     = "firstname"
	PropertyLastName      = "lastname"
	PropertyName          = "name"
	PropertyPaymentAmount = "hs_initial_amount"
	PropertyPaymentStatus = "hs_latest_status"
	PropertyPipeline      = "pipeline"
	PropertyPrice         = "price"
)

// Custom properties that carry Clover identifiers on replicated objects.
var (
	PropertyCloverArchived   = cloverProperty("archived")
	PropertyCloverCustomerID = cloverProperty("customer id")
	PropertyCloverItemID     = cloverProperty("item id")
	PropertyCloverOrderID    = cloverProperty("order id")
	PropertyCloverPaymentID  = cloverProperty("payment id")
)

// cloverProperty derives a HubSpot internal property name, e.g. "order id" -> "clover_order_id".
func cloverProperty(name string) string {
	return strcase.ToSnake("clover " + name)
}

// ObjectFor returns the HubSpot object type that an entity type replicates into.
func ObjectFor(t entity.Type) (ObjectType, error) {
	switch t {
	case entity.Customers:
		return ObjectContacts, nil
	case entity.Inventory:
		return ObjectProducts, nil
	case entity.Orders:
		return ObjectDeals, nil
	case entity.Payments:
		return ObjectCommercePayments, nil
	default:
		return "", fmt.Errorf("no HubSpot object for entity type %q", t)
	}
}

// Properties is the property bag sent to HubSpot. All values are strings.
type Properties map[string]string

// NaturalKey identifies a record across systems by a single property value.
type NaturalKey struct {
	// Property is the HubSpot property searched with an EQ filter.
	Property string

	// Value is the exact value to match.
	Value string
}

// String renders the key as property=value.
func (k NaturalKey) String() string {
	return k.Property + "=" + k.Value
}

// Record is a destination-shaped projection of a Clover entity.
type Record interface {
	// NaturalKey returns the key used to find an existing object, or false if
	// the record has none and therefore cannot be upserted.
	NaturalKey() (NaturalKey, bool)

	// Object returns the HubSpot object type the record belongs to.
	Object() ObjectType

	// Properties returns the properties to create or update.
	Properties() Properties

	// SourceID returns the Clover identifier of the originating entity.
	SourceID() string
}

// Contact is a HubSpot contact mapped from a Clover customer.
type Contact struct {
	// Email is the natural key. Empty when the customer has no email address.
	Email string

	// FirstName is the contact's first name.
	FirstName string

	// LastName is the contact's last name.
	LastName string

	// CloverID is the Clover customer ID.
	CloverID string
}

// NaturalKey implements Record.
func (c Contact) NaturalKey() (NaturalKey, bool) {
	email := NormalizeEmail(c.Email)
	if email == "" {
		return NaturalKey{}, false
	}
	return NaturalKey{Property: PropertyEmail, Value: email}, true
}

// Object implements Record.
func (c Contact) Object() ObjectType { return ObjectContacts }

// Properties implements Record.
func (c Contact) Properties() Properties {
	props := Properties{
		PropertyFirstName:        c.FirstName,
		PropertyLastName:         c.LastName,
		PropertyCloverCustomerID: c.CloverID,
	}
	if email := NormalizeEmail(c.Email); email != "" {
		props[PropertyEmail] = email
	}
	return props
}

// SourceID implements Record.
func (c Contact) SourceID() string { return c.CloverID }

// Product is a HubSpot product mapped from a Clover inventory item.
type Product struct {
	// Archived mirrors the item's deleted flag.
	Archived bool

	// Name is the product name.
	Name string

	// Price is a decimal amount, e.g. "19.99".
	Price string

	// CloverID is the Clover item ID and the natural key.
	CloverID string
}

// NaturalKey implements Record.
func (p Product) NaturalKey() (NaturalKey, bool) {
	return sourceKey(PropertyCloverItemID, p.CloverID)
}

// Object implements Record.
func (p Product) Object() ObjectType { return ObjectProducts }

// Properties implements Record.
func (p Product) Properties() Properties {
	return Properties{
		PropertyName:           p.Name,
		PropertyPrice:          p.Price,
		PropertyCloverItemID:   p.CloverID,
		PropertyCloverArchived: strconv.FormatBool(p.Archived),
	}
}

// SourceID implements Record.
func (p Product) SourceID() string { return p.CloverID }

// Deal is a HubSpot deal mapped from a Clover order.
type Deal struct {
	// Amount is the order total as a decimal amount.
	Amount string

	// Name is the deal name.
	Name string

	// Pipeline is the HubSpot pipeline ID.
	Pipeline string

	// SourceCustomerID is the Clover customer the order belongs to. It is only
	// used to find the contact to associate the deal with.
	SourceCustomerID string

	// CloverID is the Clover order ID and the natural key.
	CloverID string

	// Stage is the HubSpot deal stage ID.
	Stage string
}

// NaturalKey implements Record.
func (d Deal) NaturalKey() (NaturalKey, bool) {
	return sourceKey(PropertyCloverOrderID, d.CloverID)
}

// Object implements Record.
func (d Deal) Object() ObjectType { return ObjectDeals }

// Properties implements Record.
func (d Deal) Properties() Properties {
	props := Properties{
		PropertyAmount:        d.Amount,
		PropertyDealName:      d.Name,
		PropertyCloverOrderID: d.CloverID,
	}
	if d.Pipeline != "" {
		props[PropertyPipeline] = d.Pipeline
	}
	if d.Stage != "" {
		props[PropertyDealStage] = d.Stage
	}
	if d.SourceCustomerID != "" {
		props[PropertyCloverCustomerID] = d.SourceCustomerID
	}
	return props
}

// SourceID implements Record.
func (d Deal) SourceID() string { return d.CloverID }

// CommercePayment is a HubSpot commerce payment mapped from a Clover payment.
type CommercePayment struct {
	// Amount is the payment amount as a decimal amount.
	Amount string

	// CloverID is the Clover payment ID and the natural key.
	CloverID string

	// Status is the Clover payment result, e.g. SUCCESS.
	Status string
}

// NaturalKey implements Record.
func (p CommercePayment) NaturalKey() (NaturalKey, bool) {
	return sourceKey(PropertyCloverPaymentID, p.CloverID)
}

// Object implements Record.
func (p CommercePayment) Object() ObjectType { return ObjectCommercePayments }

// Properties implements Record.
func (p CommercePayment) Properties() Properties {
	return Properties{
		PropertyPaymentAmount:   p.Amount,
		PropertyPaymentStatus:   p.Status,
		PropertyCloverPaymentID: p.CloverID,
	}
}

// SourceID implements Record.
func (p CommercePayment) SourceID() string { return p.CloverID }

// Object is a HubSpot CRM object as returned by the API.
type Object struct {
	// Archived indicates the object is archived.
	Archived bool `json:"archived,omitempty"`

	// CreatedAt is the creation timestamp.
	CreatedAt string `json:"createdAt,omitempty"`

	// ID is the HubSpot object ID.
	ID string `json:"id"`

	// Properties are the object's property values.
	Properties map[string]string `json:"properties"`

	// UpdatedAt is the last modification timestamp.
	UpdatedAt string `json:"updatedAt,omitempty"`
}

// NormalizeEmail lowercases and trims an email address for matching.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func sourceKey(property string, sourceID string) (NaturalKey, bool) {
	if strings.TrimSpace(sourceID) == "" {
		return NaturalKey{}, false
	}
	return NaturalKey{Property: property, Value: sourceID}, true
}

// objectWriteRequest is the body of create and update calls.
type objectWriteRequest struct {
	Properties Properties `json:"properties"`
}

// searchResponse is the body returned by the search endpoint.
type searchResponse struct {
	Results []Object `json:"results"`
	Total   int      `json:"total"`
}
