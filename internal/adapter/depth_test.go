package adapter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDepthRow(t *testing.T) {
	row, err := NewDepthRow("100.50", "2.25")
	require.NoError(t, err)
	assert.Equal(t, "100.5", row.Price.String())
	assert.Equal(t, "2.25", row.Quantity.String())

	_, err = NewDepthRow("abc", "1")
	require.Error(t, err)

	_, err = NewDepthRow("1", "")
	require.Error(t, err)
}

func TestDepthDebug(t *testing.T) {
	d := Depth{Symbol: "BNBUSDT", EventTsNano: 7, RecvTsNano: 9}
	for i := 0; i < 7; i++ {
		row, err := NewDepthRow("100", "1")
		require.NoError(t, err)
		d.Asks = append(d.Asks, row)
	}

	s := d.Debug()
	assert.True(t, strings.HasPrefix(s, "Depth{symbol=BNBUSDT event_ts=7 recv_ts=9 bids=[]"), s)
	assert.Contains(t, s, ",...]")
	assert.Equal(t, 5, strings.Count(s, "(100,1)"))
}

func TestTokenString(t *testing.T) {
	tok := NewToken("abcdefgh", "secret")
	assert.False(t, tok.IsEmpty())
	assert.Equal(t, "Token{key=abcd****}", tok.String())
	assert.NotContains(t, tok.String(), "secret")

	assert.True(t, NewToken("", "x").IsEmpty())
	assert.Equal(t, "Token{key=****}", NewToken("ab", "").String())
}

func TestOrderHandleString(t *testing.T) {
	assert.Equal(t, "42", OrderHandle{OrderID: 42}.String())
	assert.Equal(t, "42/qb-1", OrderHandle{OrderID: 42, ClientOrderID: "qb-1"}.String())
}
