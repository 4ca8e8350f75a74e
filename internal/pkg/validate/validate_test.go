package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Quantity *int   `json:"quantity" validate:"omitnil,min=1"`
	Action   string `json:"action,omitempty" validate:"omitempty,oneof=reserve cancel"`
	Token    string `validate:"required"`
}

func intp(n int) *int { return &n }

func TestStruct_ReportsJSONNames(t *testing.T) {
	err := Struct(&sample{Quantity: intp(0), Action: "steal"})
	require.Error(t, err)
	assert.Equal(t,
		"field 'quantity' failed 'min=1'; field 'action' failed 'oneof=reserve cancel'; field 'Token' failed 'required'",
		err.Error())
}

func TestStruct_Valid(t *testing.T) {
	assert.NoError(t, Struct(&sample{Token: "x"}))
	assert.NoError(t, Struct(&sample{Quantity: intp(2), Action: "cancel", Token: "x"}))
}
