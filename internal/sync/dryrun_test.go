package sync

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/peteski22/cloverbridge/internal/hubspot"
)

func TestDryRunDestination(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dest := newFakeDestination()
	existing := dest.seed(hubspot.ObjectContacts, hubspot.Properties{hubspot.PropertyEmail: "ada@x.com"})
	dry := newDryRunDestination(dest, discardLogger())

	matches, err := dry.Search(ctx, hubspot.ObjectContacts, hubspot.NaturalKey{Property: hubspot.PropertyEmail, Value: "ada@x.com"})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	require.Equal(t, 1, dest.opCount("search"))

	id, err := dry.Create(ctx, hubspot.ObjectDeals, hubspot.Properties{hubspot.PropertyDealName: "Order O1"})
	require.NoError(t, err)
	require.Equal(t, "dry-run-deals-1", id)

	id, err = dry.Create(ctx, hubspot.ObjectProducts, hubspot.Properties{})
	require.NoError(t, err)
	require.Equal(t, "dry-run-products-2", id)

	id, err = dry.Update(ctx, hubspot.ObjectContacts, existing, hubspot.Properties{hubspot.PropertyFirstName: "Ada"})
	require.NoError(t, err)
	require.Equal(t, existing, id)

	require.NoError(t, dry.Associate(ctx, "dry-run-deals-1", existing))

	require.Equal(t, 0, dest.opCount("create"))
	require.Equal(t, 0, dest.opCount("update"))
	require.Equal(t, 0, dest.opCount("associate"))
	require.Equal(t, 1, dest.count(hubspot.ObjectContacts))
}
