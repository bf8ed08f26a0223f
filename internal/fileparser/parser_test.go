package fileparser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExt(t *testing.T) {
	assert.Equal(t, ".csv", Ext("bookings.CSV"))
	assert.Equal(t, ".xlsx", Ext("q2/mtm_rates.xlsx"))
	assert.Equal(t, "", Ext("noextension"))
}

func TestParseRowsCSV(t *testing.T) {
	data := []byte("reference_no,amount,currency\nPO-1, 1000,USD\nPO-2,2000,\"EUR\"\n")
	rows, err := ParseRows(data, ".csv")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"reference_no", "amount", "currency"}, rows[0])
	assert.Equal(t, []string{"PO-1", "1000", "USD"}, rows[1])
	assert.Equal(t, []string{"PO-2", "2000", "EUR"}, rows[2])
}

func TestParseRowsCSVRaggedRows(t *testing.T) {
	data := []byte("a,b,c\n1,2\n")
	rows, err := ParseRows(data, ".csv")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Len(t, rows[1], 2)
}

func TestParseRowsXLSRejectsCorruptData(t *testing.T) {
	_, err := ParseRows([]byte("not a compound document"), ".xls")
	assert.Error(t, err)
}

func TestParseRowsUnsupported(t *testing.T) {
	_, err := ParseRows([]byte("x"), ".pdf")
	assert.Error(t, err)
}

func TestPadRows(t *testing.T) {
	rows := padRows([][]string{
		{"a", "b", "c"},
		{"1"},
		{"1", "2", "3"},
	})
	assert.Equal(t, []string{"1", "", ""}, rows[1])
	assert.Empty(t, padRows([][]string{}))
}

func TestHeaderIndex(t *testing.T) {
	idx := HeaderIndex([]string{" Reference_No ", "AMOUNT", "", "amount"})
	assert.Equal(t, 0, idx["reference_no"])
	assert.Equal(t, 1, idx["amount"], "first occurrence wins")
	assert.NotContains(t, idx, "")
}
