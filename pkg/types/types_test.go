package types

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoneyJSON(t *testing.T) {
	var m Money
	require.NoError(t, json.Unmarshal([]byte(`"19.5"`), &m))
	assert.Equal(t, "19.50", m.String())

	require.NoError(t, json.Unmarshal([]byte(`12`), &m))
	out, err := json.Marshal(struct {
		Price Money `json:"price"`
	}{m})
	require.NoError(t, err)
	assert.JSONEq(t, `{"price":12.00}`, string(out))

	assert.True(t, NewMoney(-1).IsNegative())
	assert.True(t, Money{}.IsZero())
	assert.True(t, NewMoney(12).Equal(m))
}

func TestRoleValid(t *testing.T) {
	assert.True(t, RoleStudent.Valid())
	assert.True(t, RoleInstructor.Valid())
	assert.False(t, Role("admin").Valid())
}

func TestBaseModelAssignsID(t *testing.T) {
	var m BaseModel
	require.NoError(t, m.BeforeCreate(nil))
	assert.NotEqual(t, uuid.Nil, m.ID)

	fixed := uuid.New()
	m = BaseModel{ID: fixed}
	require.NoError(t, m.BeforeCreate(nil))
	assert.Equal(t, fixed, m.ID)
}
