package sync

import (
	"fmt"

	"github.com/peteski22/cloverbridge/internal/clover"
	"github.com/peteski22/cloverbridge/internal/config"
	"github.com/peteski22/cloverbridge/internal/entity"
	"github.com/peteski22/cloverbridge/internal/hubspot"
)

// Mapper projects Clover records onto HubSpot records.
type Mapper struct {
	deals config.DealDefaults
}

// NewMapper creates a Mapper that applies deal defaults to orders.
func NewMapper(deals config.DealDefaults) Mapper {
	return Mapper{deals: deals}
}

// Map converts a record of entity type t. The result may lack a natural key,
// in which case the record is reported as skipped rather than dropped.
func (m Mapper) Map(t entity.Type, record clover.Record) (hubspot.Record, error) {
	switch t {
	case entity.Customers:
		return record.ToContact(), nil
	case entity.Inventory:
		return record.ToProduct(), nil
	case entity.Orders:
		return m.deal(record), nil
	case entity.Payments:
		return record.ToCommercePayment(), nil
	default:
		return nil, fmt.Errorf("no mapping for entity type %q", t)
	}
}

// deal maps an order, placing it in the paid stage when fully paid.
func (m Mapper) deal(record clover.Record) hubspot.Deal {
	deal := record.ToDeal()
	deal.Pipeline = m.deals.Pipeline
	deal.Stage = m.deals.Stage
	if record.IsPaid() && m.deals.PaidStage != "" {
		deal.Stage = m.deals.PaidStage
	}
	return deal
}
