package exposures

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

func TestAggregateMaturityBucketsSplitsPayablesReceivables(t *testing.T) {
	rows := []BucketedExposure{
		{BusinessUnit: "BU1", Currency: "USD", ExposureType: "PO", Buckets: map[string]decimal.Decimal{"month_1": dec(1000)}},
		{BusinessUnit: "BU1", Currency: "USD", ExposureType: "SO", Buckets: map[string]decimal.Decimal{"month_1": dec(400)}},
		{BusinessUnit: "BU1", Currency: "USD", ExposureType: "creditors", Buckets: map[string]decimal.Decimal{"month_1": dec(250)}},
	}
	out := AggregateMaturityBuckets(rows)
	require.Len(t, out, 1)
	assert.Equal(t, "1 Month", out[0].Bucket)
	assert.True(t, out[0].Payables.Equal(dec(1250)), "payables %s", out[0].Payables)
	assert.True(t, out[0].Receivables.Equal(dec(400)), "receivables %s", out[0].Receivables)
}

func TestAggregateMaturityBucketsNegativesCountAsMagnitude(t *testing.T) {
	rows := []BucketedExposure{
		{BusinessUnit: "BU1", Currency: "USD", ExposureType: "PO", Buckets: map[string]decimal.Decimal{"month_2": dec(-500)}},
	}
	out := AggregateMaturityBuckets(rows)
	require.Len(t, out, 1)
	assert.True(t, out[0].Payables.Equal(dec(500)))
}

func TestAggregateMaturityBucketsGroupsByBuAndCurrency(t *testing.T) {
	rows := []BucketedExposure{
		{BusinessUnit: "BU1", Currency: "usd", ExposureType: "PO", Buckets: map[string]decimal.Decimal{"month_1": dec(100)}},
		{BusinessUnit: "BU1", Currency: "USD", ExposureType: "PO", Buckets: map[string]decimal.Decimal{"month_1": dec(100)}},
		{BusinessUnit: "BU2", Currency: "USD", ExposureType: "PO", Buckets: map[string]decimal.Decimal{"month_1": dec(100)}},
		{BusinessUnit: "BU1", Currency: "EUR", ExposureType: "PO", Buckets: map[string]decimal.Decimal{"month_1": dec(100)}},
	}
	out := AggregateMaturityBuckets(rows)
	require.Len(t, out, 3)
	// Case-folded currencies merge.
	assert.Equal(t, "EUR", out[0].Currency)
	assert.Equal(t, "USD", out[1].Currency)
	assert.True(t, out[1].Payables.Equal(dec(200)))
	assert.Equal(t, "BU2", out[2].BusinessUnit)
}

func TestAggregateMaturityBucketsCaseInsensitiveTypes(t *testing.T) {
	// Creditors/debitors classify regardless of casing.
	rows := []BucketedExposure{
		{BusinessUnit: "BU1", Currency: "USD", ExposureType: "Creditors", Buckets: map[string]decimal.Decimal{"month_1": dec(100)}},
		{BusinessUnit: "BU1", Currency: "USD", ExposureType: "DEBITORS", Buckets: map[string]decimal.Decimal{"month_1": dec(60)}},
	}
	out := AggregateMaturityBuckets(rows)
	require.Len(t, out, 1)
	assert.True(t, out[0].Payables.Equal(dec(100)))
	assert.True(t, out[0].Receivables.Equal(dec(60)))
}

func TestAggregateMaturityBucketsDropsUnknownAndZero(t *testing.T) {
	rows := []BucketedExposure{
		{BusinessUnit: "BU1", Currency: "USD", ExposureType: "mystery", Buckets: map[string]decimal.Decimal{"month_1": dec(100)}},
		{BusinessUnit: "BU1", Currency: "USD", ExposureType: "PO", Buckets: map[string]decimal.Decimal{"month_1": decimal.Zero}},
	}
	assert.Empty(t, AggregateMaturityBuckets(rows))
}

func TestAggregateMaturityBucketsEmptyCurrencyDefaults(t *testing.T) {
	rows := []BucketedExposure{
		{BusinessUnit: "BU1", Currency: "  ", ExposureType: "SO", Buckets: map[string]decimal.Decimal{"month_6plus": dec(75)}},
	}
	out := AggregateMaturityBuckets(rows)
	require.Len(t, out, 1)
	assert.Equal(t, "Unknown", out[0].Currency)
	assert.Equal(t, "6 Month +", out[0].Bucket)
}

func TestAggregateMaturityBucketsDeterministic(t *testing.T) {
	rows := []BucketedExposure{
		{BusinessUnit: "BU2", Currency: "EUR", ExposureType: "PO", Buckets: map[string]decimal.Decimal{"month_3": dec(10)}},
		{BusinessUnit: "BU1", Currency: "USD", ExposureType: "SO", Buckets: map[string]decimal.Decimal{"month_1": dec(20)}},
	}
	first := AggregateMaturityBuckets(rows)
	second := AggregateMaturityBuckets(rows)
	assert.Equal(t, first, second)
}
