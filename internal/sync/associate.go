package sync

import (
	"context"
	"errors"
	"fmt"
)

// errCustomerNotResolved skips a link whose contact was not replicated in the same cycle.
var errCustomerNotResolved = errors.New("customer contact not resolved this cycle")

// errNoCustomer skips a link for an order without a customer.
var errNoCustomer = errors.New("order has no customer")

// Linker associates replicated deals with replicated contacts.
type Linker struct {
	dest Destination
}

// NewLinker creates a Linker writing to dest.
func NewLinker(dest Destination) *Linker {
	return &Linker{dest: dest}
}

// Link associates a deal with a contact. Both IDs must come from the current cycle.
func (l *Linker) Link(ctx context.Context, dealID string, contactID string) error {
	if dealID == "" || contactID == "" {
		return errors.New("deal ID and contact ID are required")
	}
	if err := l.dest.Associate(ctx, dealID, contactID); err != nil {
		return fmt.Errorf("linking deal %s to contact %s: %w", dealID, contactID, err)
	}
	return nil
}
