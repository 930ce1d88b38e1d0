package ingest

import (
	"testing"

	"github.com/AdonayRH/wahisper-sub000/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWithHeader(t *testing.T) {
	data := []byte("code,description,price,stock\nA,alpha widget,2.50,3\nB,beta gadget,1,0\n")
	products, err := NewCSVParser().Parse(data)
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, core.Product{Code: "A", Description: "alpha widget", Price: 2.5, Stock: 3}, products[0])
	assert.Equal(t, 0, products[1].Stock)
}

func TestParseWithoutHeader(t *testing.T) {
	products, err := NewCSVParser().Parse([]byte("A,alpha widget,2.50,3\n"))
	require.NoError(t, err)
	require.Len(t, products, 1)
}

func TestParseMalformedPriceCoercedToZero(t *testing.T) {
	products, err := NewCSVParser().Parse([]byte("A,alpha,not-a-price,3\n"))
	require.NoError(t, err)
	assert.Equal(t, 0.0, products[0].Price)
}

func TestParseInvalidStockRejected(t *testing.T) {
	_, err := NewCSVParser().Parse([]byte("A,alpha,2,many\n"))
	var verr *core.ValidationError
	assert.ErrorAs(t, err, &verr)

	_, err = NewCSVParser().Parse([]byte("A,alpha,2,-1\n"))
	assert.ErrorAs(t, err, &verr)
}

func TestParseEmptyFileRejected(t *testing.T) {
	_, err := NewCSVParser().Parse([]byte("code,description,price,stock\n"))
	var verr *core.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestParseShortRowRejected(t *testing.T) {
	_, err := NewCSVParser().Parse([]byte("A,alpha,2\n"))
	var verr *core.ValidationError
	assert.ErrorAs(t, err, &verr)
}
