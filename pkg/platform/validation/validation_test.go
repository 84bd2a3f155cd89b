package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	dErrors "trustdash/pkg/domain-errors"
)

type transfer struct {
	Recipient string  `json:"recipient" validate:"required,eth_addr"`
	Amount    float64 `json:"amount" validate:"gt=0"`
}

func TestStruct(t *testing.T) {
	valid := "0x" + strings.Repeat("a", 40)

	t.Run("valid body", func(t *testing.T) {
		assert.NoError(t, Struct(transfer{Recipient: valid, Amount: 1}))
	})

	t.Run("missing recipient", func(t *testing.T) {
		err := Struct(transfer{Amount: 1})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		assert.Equal(t, "recipient is required", dErrors.Message(err))
	})

	t.Run("bad address and amount are both reported", func(t *testing.T) {
		err := Struct(transfer{Recipient: "0x12", Amount: 0})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		assert.Equal(t, "recipient must be a hex account address; amount must be greater than 0", dErrors.Message(err))
	})
}
