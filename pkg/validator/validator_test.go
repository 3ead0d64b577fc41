package validator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type contractInput struct {
	ProviderID string `json:"provider_id" validate:"required,uuid"`
	Title      string `json:"title" validate:"required"`
	Currency   string `json:"currency" validate:"omitempty,len=3"`
	Email      string `json:"email" validate:"omitempty,email"`
}

func TestValidateStructValid(t *testing.T) {
	in := contractInput{
		ProviderID: "0b6f2c1e-7a43-4c55-9a8e-0d3d1c1b2a10",
		Title:      "Site Works",
		Currency:   "SAR",
	}
	assert.Nil(t, ValidateStruct(in))
}

func TestValidateStructReportsJSONFieldNames(t *testing.T) {
	errs := ValidateStruct(contractInput{ProviderID: "7", Currency: "RIYAL", Email: "nope"})

	assert.Equal(t, "Provider Id must be a valid UUID", errs["provider_id"])
	assert.Equal(t, "Title is required", errs["title"])
	assert.Equal(t, "Currency must be exactly 3 characters long", errs["currency"])
	assert.Equal(t, "Email must be a valid email address", errs["email"])
	assert.Len(t, errs, 4)
}

func TestTranslateIgnoresForeignErrors(t *testing.T) {
	assert.Nil(t, Translate(errors.New("unexpected EOF")))
}

func TestPrettifyFieldName(t *testing.T) {
	assert.Equal(t, "Provider Id", prettifyFieldName("provider_id"))
	assert.Equal(t, "New Password", prettifyFieldName("NewPassword"))
	assert.Equal(t, "Title", prettifyFieldName("title"))
}

func TestSnakeCase(t *testing.T) {
	assert.Equal(t, "provider_id", snakeCase("ProviderID"))
	assert.Equal(t, "new_password", snakeCase("NewPassword"))
	assert.Equal(t, "change_notes", snakeCase("change_notes"))
}
