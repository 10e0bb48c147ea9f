package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoneyJSON(t *testing.T) {
	var m Money
	require.NoError(t, json.Unmarshal([]byte(`994.5`), &m))
	assert.Equal(t, Money(99450), m)

	require.NoError(t, json.Unmarshal([]byte(`"5.50"`), &m))
	assert.Equal(t, Money(550), m)

	bs, err := json.Marshal(Money(-550))
	require.NoError(t, err)
	assert.Equal(t, `-5.5`, string(bs))

	bs, err = json.Marshal(Money(4000))
	require.NoError(t, err)
	assert.Equal(t, `40`, string(bs))
}

func TestMoneyRejectsSubCent(t *testing.T) {
	var m Money
	assert.ErrorIs(t, json.Unmarshal([]byte(`1.005`), &m), ErrInvalidMoney)
	assert.ErrorIs(t, json.Unmarshal([]byte(`"abc"`), &m), ErrInvalidMoney)
	_, err := ParseMoney("1e30")
	assert.ErrorIs(t, err, ErrInvalidMoney)
}

func TestMoneyUnmarshalText(t *testing.T) {
	var m Money
	require.NoError(t, m.UnmarshalText([]byte("40")))
	assert.Equal(t, Money(4000), m)
	assert.Equal(t, "40", m.String())
}

func TestSessionEnd(t *testing.T) {
	start := time.Date(2025, 5, 23, 18, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 5, 23, 21, 8, 0, 0, time.UTC), SessionEnd(start, 128))
}

func TestRoleValid(t *testing.T) {
	assert.True(t, RoleSuperAdmin.Valid())
	assert.False(t, Role("OWNER").Valid())
	assert.False(t, Role("").Valid())
}
