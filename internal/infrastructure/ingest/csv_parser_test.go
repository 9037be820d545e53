package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCSVParser(t *testing.T) {
	t.Run("strips BOM and collapses header whitespace", func(t *testing.T) {
		p, err := NewCSVParser(strings.NewReader("\xEF\xBB\xBFORDER_ID,  ORDER_TIME  (PST) \nA-1,93000\n"),
			WithHeaderAliases(map[string]string{"ORDER_TIME (PST)": "ORDER_TIME_PST"}))
		require.NoError(t, err)
		assert.Equal(t, []string{"ORDER_ID", "ORDER_TIME_PST"}, p.Headers())

		rows, err := p.ReadAllRows()
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "93000", rows[0].Get("ORDER_TIME_PST"))
		assert.Equal(t, 2, rows[0].LineNumber)
	})

	t.Run("empty input", func(t *testing.T) {
		_, err := NewCSVParser(strings.NewReader(""))
		assert.ErrorIs(t, err, ErrEmptyFile)
	})

	t.Run("invalid encoding", func(t *testing.T) {
		_, err := NewCSVParser(strings.NewReader("ORDER_ID\n\xff\xfe\n"))
		assert.ErrorIs(t, err, ErrInvalidEncoding)
	})

	t.Run("short rows", func(t *testing.T) {
		p, err := NewCSVParser(strings.NewReader("a,b,c\n1,2\n\n,,\n"))
		require.NoError(t, err)
		rows, err := p.ReadAllRows()
		require.NoError(t, err)
		require.Len(t, rows, 1, "blank rows are skipped")
		assert.Equal(t, "", rows[0].Get("c"))
	})

	t.Run("missing headers", func(t *testing.T) {
		p, err := NewCSVParser(strings.NewReader("ORDER_ID\n1\n"))
		require.NoError(t, err)
		assert.Equal(t, []string{"RPTG_AMT"}, p.MissingHeaders([]string{"ORDER_ID", "RPTG_AMT"}))
	})
}

func TestErrorCollection(t *testing.T) {
	ec := NewErrorCollection(2)
	assert.False(t, ec.HasErrors())
	assert.Equal(t, "no errors", ec.String())

	ec.AddInvalid(2, "ORDER_QTY", "x", "integer")
	ec.AddInvalid(3, "ORDER_QTY", "y", "integer")
	ec.AddInvalid(4, "RPTG_AMT", "z", "decimal")

	assert.Equal(t, 3, ec.TotalCount())
	assert.Len(t, ec.Errors(), 2)
	assert.True(t, ec.IsTruncated())
	assert.Equal(t, map[string]int{"ORDER_QTY": 2}, ec.ByColumn())
	assert.Contains(t, ec.String(), "line 2, column 'ORDER_QTY': not a valid integer")
}
