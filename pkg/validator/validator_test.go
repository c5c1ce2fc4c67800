package validator

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type samplePayload struct {
	Email  string `json:"email" validate:"required,email"`
	Amount int64  `json:"amount" validate:"required,gt=0"`
}

func TestValidateStructPasses(t *testing.T) {
	err := ValidateStruct(samplePayload{Email: "a@example.com", Amount: 500})
	require.NoError(t, err)
}

func TestValidateStructReportsJSONNames(t *testing.T) {
	err := ValidateStruct(samplePayload{Email: "nope", Amount: -1})
	require.Error(t, err)

	failures, ok := err.(ValidationErrors)
	require.True(t, ok)
	require.Len(t, failures, 2)
	require.Equal(t, "email", failures[0].Field)
	require.Contains(t, err.Error(), "amount failed on gt=0")
}
