package forwards

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

func TestApplyUtilizationFirstLink(t *testing.T) {
	// 10000 booked, nothing consumed yet, 3000 linked now.
	open := ApplyUtilization(d(10000), d(3000))
	assert.True(t, open.Equal(d(7000)), "got %s", open)
}

func TestApplyUtilizationSignAgnostic(t *testing.T) {
	// Magnitudes drive the math regardless of how the caller signs them.
	open := ApplyUtilization(d(-10000), d(-3000))
	assert.True(t, open.Equal(d(7000)), "got %s", open)
}

func TestApplyUtilizationClampsAtZero(t *testing.T) {
	open := ApplyUtilization(d(1500), d(2000))
	assert.True(t, open.IsZero(), "got %s", open)
}

func TestOpenAmountAfterCancellationBetweenUtilizations(t *testing.T) {
	// 10000 booked: link 3000, partially cancel 2000, then link 1000 more.
	// Each step starts from the previous running open amount.
	open := ApplyUtilization(d(10000), d(3000))
	require.True(t, open.Equal(d(7000)), "got %s", open)

	open, full := ApplyCancellation(open, d(2000))
	require.False(t, full)
	require.True(t, open.Equal(d(5000)), "got %s", open)

	open = ApplyUtilization(open, d(1000))
	assert.True(t, open.Equal(d(4000)), "got %s", open)
}

func TestApplyCancellationPartial(t *testing.T) {
	remaining, full := ApplyCancellation(d(10000), d(4000))
	require.False(t, full)
	assert.True(t, remaining.Equal(d(6000)), "got %s", remaining)
}

func TestApplyCancellationExact(t *testing.T) {
	remaining, full := ApplyCancellation(d(10000), d(10000))
	require.True(t, full)
	assert.True(t, remaining.IsZero())
}

func TestApplyCancellationResidualWithinEpsilon(t *testing.T) {
	remaining, full := ApplyCancellation(d(10000), d(9999.99995))
	require.True(t, full)
	assert.True(t, remaining.IsZero(), "got %s", remaining)
}

func TestApplyCancellationResidualAboveEpsilon(t *testing.T) {
	remaining, full := ApplyCancellation(d(10000), d(9999.9))
	require.False(t, full)
	assert.True(t, remaining.Equal(d(0.1)), "got %s", remaining)
}
