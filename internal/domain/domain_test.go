package domain

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeRatingStats(t *testing.T) {
	tests := []struct {
		name    string
		ratings []int
		total   int
		average float64
		counts  map[int]int
	}{
		{
			name:    "no reviews",
			ratings: nil,
			total:   0,
			average: 0,
			counts:  map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0},
		},
		{
			name:    "half rounds away from zero",
			ratings: []int{5, 5, 4, 3},
			total:   4,
			average: 4.3,
			counts:  map[int]int{1: 0, 2: 0, 3: 1, 4: 1, 5: 2},
		},
		{
			name:    "repeating decimal",
			ratings: []int{4, 4, 5},
			total:   3,
			average: 4.3,
			counts:  map[int]int{1: 0, 2: 0, 3: 0, 4: 2, 5: 1},
		},
		{
			name:    "exact",
			ratings: []int{1, 2},
			total:   2,
			average: 1.5,
			counts:  map[int]int{1: 1, 2: 1, 3: 0, 4: 0, 5: 0},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeRatingStats(tt.ratings)
			assert.Equal(t, tt.total, got.Total)
			assert.InDelta(t, tt.average, got.Average, 1e-9)
			assert.Equal(t, tt.counts, got.RatingCounts)
		})
	}
}

func TestRatingStatsJSONAlwaysHasFiveBuckets(t *testing.T) {
	raw, err := json.Marshal(ComputeRatingStats(nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"total":0,"average":0,"ratingCounts":{"1":0,"2":0,"3":0,"4":0,"5":0}}`, string(raw))
}

func TestParseOrderStatus(t *testing.T) {
	st, err := ParseOrderStatus(" shipped ")
	require.NoError(t, err)
	assert.Equal(t, OrderStatusShipped, st)

	_, err = ParseOrderStatus("LOST")
	assert.Error(t, err)
	_, err = ParseOrderStatus("")
	assert.Error(t, err)
}

func TestShippingInfoAcceptsNameAlias(t *testing.T) {
	var info ShippingInfo
	require.NoError(t, json.Unmarshal([]byte(`{"name":"Jane Roe","phone":"0901234567","extra":"x"}`), &info))
	assert.Equal(t, "Jane Roe", info.FullName)
	assert.Equal(t, "0901234567", info.Phone)

	require.NoError(t, json.Unmarshal([]byte(`{"fullName":"A B","name":"ignored"}`), &info))
	assert.Equal(t, "A B", info.FullName)
}

func TestOrderItemSubtotalAndJSONNumbers(t *testing.T) {
	item := OrderItem{Price: decimal.RequireFromString("19.99"), Quantity: 3}
	assert.True(t, item.Subtotal().Equal(decimal.RequireFromString("59.97")))

	raw, err := json.Marshal(item)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"price":19.99`)
}

func TestCustomerFallsBackToAccount(t *testing.T) {
	o := Order{User: &User{Name: "Account", Email: "acc@example.com"}}
	assert.Equal(t, "Account", o.CustomerName())
	assert.Equal(t, "acc@example.com", o.CustomerEmail())

	o.ShippingInfo = ShippingInfo{FullName: "Checkout", Email: "co@example.com"}
	assert.Equal(t, "Checkout", o.CustomerName())
	assert.Equal(t, "co@example.com", o.CustomerEmail())
}
