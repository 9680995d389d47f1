package sync

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/peteski22/cloverbridge/internal/clover"
	"github.com/peteski22/cloverbridge/internal/config"
	"github.com/peteski22/cloverbridge/internal/entity"
	"github.com/peteski22/cloverbridge/internal/hubspot"
)

func TestMapper_Map(t *testing.T) {
	t.Parallel()

	deals := config.DealDefaults{PaidStage: "closedwon", Pipeline: "default", Stage: "appointmentscheduled"}

	tests := map[string]struct {
		deals      config.DealDefaults
		entityType entity.Type
		raw        string
		want       hubspot.Record
		wantErr    bool
	}{
		"customer to contact": {
			deals:      deals,
			entityType: entity.Customers,
			raw:        `{"id":"C1","firstName":"Ada","lastName":"Lovelace","emailAddresses":{"elements":[{"emailAddress":"ADA@x.com"}]}}`,
			want:       hubspot.Contact{CloverID: "C1", Email: "ada@x.com", FirstName: "Ada", LastName: "Lovelace"},
		},
		"open order uses default stage": {
			deals:      deals,
			entityType: entity.Orders,
			raw:        `{"id":"O1","total":1250,"paymentState":"OPEN"}`,
			want: hubspot.Deal{
				Amount:   "12.50",
				CloverID: "O1",
				Name:     "Order O1",
				Pipeline: "default",
				Stage:    "appointmentscheduled",
			},
		},
		"paid order uses paid stage": {
			deals:      deals,
			entityType: entity.Orders,
			raw:        `{"id":"O2","total":500,"paymentState":"PAID","customers":{"elements":[{"id":"C1"}]}}`,
			want: hubspot.Deal{
				Amount:           "5.00",
				CloverID:         "O2",
				Name:             "Order O2",
				Pipeline:         "default",
				SourceCustomerID: "C1",
				Stage:            "closedwon",
			},
		},
		"paid order without paid stage keeps default stage": {
			deals:      config.DealDefaults{Pipeline: "default", Stage: "appointmentscheduled"},
			entityType: entity.Orders,
			raw:        `{"id":"O3","total":0,"paymentState":"PAID"}`,
			want: hubspot.Deal{
				Amount:   "0.00",
				CloverID: "O3",
				Name:     "Order O3",
				Pipeline: "default",
				Stage:    "appointmentscheduled",
			},
		},
		"payment to commerce payment": {
			deals:      deals,
			entityType: entity.Payments,
			raw:        `{"id":"P1","amount":999,"result":"SUCCESS"}`,
			want:       hubspot.CommercePayment{Amount: "9.99", CloverID: "P1", Status: "SUCCESS"},
		},
		"item to product": {
			deals:      deals,
			entityType: entity.Inventory,
			raw:        `{"id":"I1","name":"Latte","price":450}`,
			want:       hubspot.Product{CloverID: "I1", Name: "Latte", Price: "4.50"},
		},
		"unknown type": {
			deals:      deals,
			entityType: entity.Type("refunds"),
			raw:        `{"id":"R1"}`,
			wantErr:    true,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := NewMapper(tc.deals).Map(tc.entityType, clover.MustRecord(tc.raw))
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestMapper_Map_allTypes(t *testing.T) {
	t.Parallel()

	m := NewMapper(config.DealDefaults{Pipeline: "default", Stage: "new"})
	for _, et := range entity.All() {
		got, err := m.Map(et, clover.MustRecord(`{"id":"X1"}`))
		require.NoError(t, err, et)

		obj, err := hubspot.ObjectFor(et)
		require.NoError(t, err)
		require.Equal(t, obj, got.Object(), et)
	}
}
