package utils

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	clovererrors "github.com/Ramsey-B/clover/pkg/errors"
)

type sample struct {
	Entity string `json:"entity" validate:"omitempty,oneof=deal person"`
	Name   string `json:"name" validate:"required"`
	Count  int    `json:"count" validate:"omitempty,min=1"`
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name    string
		value   sample
		field   string
		message string
	}{
		{name: "valid", value: sample{Name: "x"}},
		{name: "required uses json name", value: sample{}, field: "name", message: "'name' is required"},
		{name: "oneof lists the choices", value: sample{Entity: "org", Name: "x"}, field: "entity", message: "'entity' must be one of [deal person], got 'org'"},
		{name: "other rules", value: sample{Name: "x", Count: -1}, field: "count", message: "'count' failed rule 'min' (expected '1', got '-1')"},
		{name: "all failures are joined", value: sample{Entity: "org"}, field: "entity", message: "'entity' must be one of [deal person], got 'org'; 'name' is required"},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			_, err := Validate(testCase.value)
			if testCase.field == "" {
				assert.NoError(t, err)
				return
			}

			var validationErr *clovererrors.ValidationError
			require.True(t, errors.As(err, &validationErr))
			assert.Equal(t, testCase.field, validationErr.Field)
			assert.Equal(t, testCase.message, validationErr.Message)
		})
	}
}
