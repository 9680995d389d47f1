package clover

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/peteski22/cloverbridge/internal/entity"
	"github.com/peteski22/cloverbridge/internal/upstream"
)

func TestResource(t *testing.T) {
	t.Parallel()

	for _, typ := range entity.All() {
		resource, err := Resource(typ)
		require.NoError(t, err, typ)
		require.NotEmpty(t, resource)
	}

	_, err := Resource(entity.Type("refunds"))
	require.Error(t, err)
}

func TestCursorField(t *testing.T) {
	t.Parallel()

	require.Equal(t, "customerSince", CursorField(entity.Customers))
	require.Equal(t, "createdTime", CursorField(entity.Orders))
	require.Equal(t, "createdTime", CursorField(entity.Payments))
	require.Empty(t, CursorField(entity.Inventory))
}

func TestNewRecord(t *testing.T) {
	t.Parallel()

	_, err := NewRecord(`{"id":"x"}`)
	require.NoError(t, err)

	var decodeErr *upstream.DecodeError
	_, err = NewRecord(`nope`)
	require.True(t, errors.As(err, &decodeErr))

	_, err = NewRecord(`"string"`)
	require.True(t, errors.As(err, &decodeErr))
	require.Equal(t, "element is not an object", decodeErr.Reason)
}

func TestRecord_accessors(t *testing.T) {
	t.Parallel()

	r := MustRecord(`{"id":"A","name":null,"price":450,"hidden":false}`)

	_, ok := r.StringForPath("name")
	require.False(t, ok)
	_, ok = r.StringForPath("missing")
	require.False(t, ok)

	price, ok := r.IntForPath("price")
	require.True(t, ok)
	require.Equal(t, int64(450), price)

	hidden, ok := r.BoolForPath("hidden")
	require.True(t, ok)
	require.False(t, hidden)
}

func TestLatestCursor(t *testing.T) {
	t.Parallel()

	t.Run("takes the greatest token regardless of order", func(t *testing.T) {
		t.Parallel()

		records := []Record{
			MustRecord(`{"id":"1","createdTime":900}`),
			MustRecord(`{"id":"2","createdTime":10000}`),
			MustRecord(`{"id":"3","createdTime":2000}`),
		}
		latest, ok := LatestCursor(entity.Orders, records)
		require.True(t, ok)
		require.Equal(t, "10000", latest)
	})

	t.Run("empty page has no cursor", func(t *testing.T) {
		t.Parallel()

		_, ok := LatestCursor(entity.Customers, nil)
		require.False(t, ok)
	})

	t.Run("inventory has no cursor", func(t *testing.T) {
		t.Parallel()

		_, ok := LatestCursor(entity.Inventory, []Record{MustRecord(`{"id":"I1","modifiedTime":5}`)})
		require.False(t, ok)
	})
}
