package valueobject

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoney_RoundsToMinorUnits(t *testing.T) {
	m, err := NewMoney(decimal.NewFromFloat(10.999), DZD)
	require.NoError(t, err)
	assert.Equal(t, "11.00 DZD", m.String())

	m, err = NewMoney(decimal.NewFromFloat(10.004), DZD)
	require.NoError(t, err)
	assert.Equal(t, "10.00 DZD", m.String())
}

func TestNewMoney_EmptyCurrencyFails(t *testing.T) {
	_, err := NewMoney(decimal.NewFromInt(1), Currency(""))
	assert.Error(t, err)
}

func TestNewMoneyFromString(t *testing.T) {
	m, err := NewMoneyFromString("1500.50", DZD)
	require.NoError(t, err)
	assert.True(t, m.Amount().Equal(decimal.NewFromFloat(1500.50)))

	_, err = NewMoneyFromString("abc", DZD)
	assert.Error(t, err)
}

func TestMoney_Arithmetic(t *testing.T) {
	a := NewMoneyDZDFromFloat(100)
	b := NewMoneyDZDFromFloat(40)

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.True(t, sum.Amount().Equal(decimal.NewFromInt(140)))

	diff, err := a.Subtract(b)
	require.NoError(t, err)
	assert.True(t, diff.Amount().Equal(decimal.NewFromInt(60)))

	assert.True(t, a.MultiplyByInt(3).Amount().Equal(decimal.NewFromInt(300)))
	assert.True(t, b.Negate().IsNegative())
}

func TestMoney_CurrencyMismatch(t *testing.T) {
	dzd := NewMoneyDZDFromFloat(100)
	eur, err := NewMoney(decimal.NewFromInt(100), EUR)
	require.NoError(t, err)

	_, err = dzd.Add(eur)
	assert.Error(t, err)

	_, err = dzd.Subtract(eur)
	assert.Error(t, err)
}

func TestMoney_Comparisons(t *testing.T) {
	a := NewMoneyDZDFromFloat(100)
	b := NewMoneyDZDFromFloat(200)

	assert.True(t, a.LessThan(b))
	assert.True(t, b.GreaterThan(a))
	assert.True(t, a.Equals(NewMoneyDZDFromFloat(100)))
	assert.False(t, a.Equals(b))

	assert.True(t, ZeroDZD().IsZero())
	assert.True(t, a.IsPositive())
	assert.True(t, a.Negate().IsNegative())
}

func TestMoney_JSONRoundTrip(t *testing.T) {
	m := NewMoneyDZDFromFloat(1234.56)

	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":"1234.56","currency":"DZD"}`, string(data))

	var restored Money
	require.NoError(t, json.Unmarshal(data, &restored))
	assert.True(t, m.Equals(restored))
}
