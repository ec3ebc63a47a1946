package validation

import (
	"testing"

	"github.com/aarondl/null/v8"
	"github.com/stretchr/testify/assert"
)

func TestIsResidentPhone(t *testing.T) {
	assert.True(t, IsResidentPhone("13812345678"))
	assert.True(t, IsResidentPhone("19912345678"))
	assert.False(t, IsResidentPhone("2381234567"))
	assert.False(t, IsResidentPhone("12812345678"))
	assert.False(t, IsResidentPhone("1381234567"))
	assert.False(t, IsResidentPhone("138123456789"))
}

func TestIsResidentName(t *testing.T) {
	assert.True(t, IsResidentName("张三"))
	assert.True(t, IsResidentName("John"))
	assert.True(t, IsResidentName("李Lee"))
	assert.False(t, IsResidentName("A"))
	assert.False(t, IsResidentName("John Doe123"))
	assert.False(t, IsResidentName("张三丰张三丰张三丰张三"))
}

type residentPayload struct {
	Name  null.String `validate:"omitempty,resident_name"`
	Phone null.String `validate:"omitempty,resident_phone"`
}

func TestValidatorNullTypes(t *testing.T) {
	v := New()

	assert.NoError(t, v.Validate(&residentPayload{}))
	assert.NoError(t, v.Validate(&residentPayload{Name: null.StringFrom("王五"), Phone: null.StringFrom("13900000000")}))
	assert.Error(t, v.Validate(&residentPayload{Phone: null.StringFrom("2381234567")}))
	assert.Error(t, v.Validate(&residentPayload{Name: null.StringFrom("A")}))
}
