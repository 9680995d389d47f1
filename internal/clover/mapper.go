package clover

import (
	"strconv"
	"strings"

	"github.com/peteski22/cloverbridge/internal/hubspot"
)

// ToContact converts a customer to a HubSpot contact.
// Customers without an email still map; the contact then has no natural key.
func (r Record) ToContact() hubspot.Contact {
	first, _ := r.StringForPath("firstName")
	last, _ := r.StringForPath("lastName")

	return hubspot.Contact{
		CloverID:  r.ID(),
		Email:     r.PrimaryEmail(),
		FirstName: strings.TrimSpace(first),
		LastName:  strings.TrimSpace(last),
	}
}

// ToProduct converts an inventory item to a HubSpot product.
// Deleted and hidden items are archived.
func (r Record) ToProduct() hubspot.Product {
	name, _ := r.StringForPath("name")
	price, _ := r.IntForPath("price")
	deleted, _ := r.BoolForPath("deleted")
	hidden, _ := r.BoolForPath("hidden")

	return hubspot.Product{
		Archived: deleted || hidden,
		CloverID: r.ID(),
		Name:     strings.TrimSpace(name),
		Price:    formatCents(price),
	}
}

// ToDeal converts an order to a HubSpot deal. Pipeline and Stage are left for
// the caller to fill from configuration.
func (r Record) ToDeal() hubspot.Deal {
	total, _ := r.IntForPath("total")
	customerID, _ := r.CustomerID()

	return hubspot.Deal{
		Amount:           formatCents(total),
		CloverID:         r.ID(),
		Name:             r.dealName(),
		SourceCustomerID: customerID,
	}
}

// ToCommercePayment converts a payment to a HubSpot commerce payment.
func (r Record) ToCommercePayment() hubspot.CommercePayment {
	amount, _ := r.IntForPath("amount")
	result, _ := r.StringForPath("result")

	return hubspot.CommercePayment{
		Amount:   formatCents(amount),
		CloverID: r.ID(),
		Status:   result,
	}
}

// CustomerID returns the ID of the customer an order references.
func (r Record) CustomerID() (string, bool) {
	id, ok := r.StringForPath("customers.elements.0.id")
	return id, ok && id != ""
}

// IsPaid reports whether an order has been paid in full.
func (r Record) IsPaid() bool {
	state, _ := r.StringForPath("paymentState")
	return strings.EqualFold(state, PaymentStatePaid)
}

// PrimaryEmail returns a customer's primary email address, falling back to
// the first listed address. Returns "" when the customer has none.
func (r Record) PrimaryEmail() string {
	var first string
	for _, e := range r.data.Get("emailAddresses.elements").Array() {
		address := hubspot.NormalizeEmail(e.Get("emailAddress").String())
		if address == "" {
			continue
		}
		if e.Get("primaryEmail").Bool() {
			return address
		}
		if first == "" {
			first = address
		}
	}
	return first
}

// dealName builds "<first> <last> - Order <id>", or the order title, when a name is known.
func (r Record) dealName() string {
	base := "Order " + r.ID()
	if title, ok := r.StringForPath("title"); ok && strings.TrimSpace(title) != "" {
		base = strings.TrimSpace(title)
	}

	first, _ := r.StringForPath("customers.elements.0.firstName")
	last, _ := r.StringForPath("customers.elements.0.lastName")
	customer := strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
	if customer == "" {
		return base
	}
	return customer + " - " + base
}

// formatCents renders an amount in cents as a decimal string, e.g. 1999 -> "19.99".
func formatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return sign + strconv.FormatInt(cents/100, 10) + "." + leftPad2(cents%100)
}

func leftPad2(n int64) string {
	if n < 10 {
		return "0" + strconv.FormatInt(n, 10)
	}
	return strconv.FormatInt(n, 10)
}
