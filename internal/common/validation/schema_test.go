// internal/common/validation/schema_test.go
package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSchema = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"applicantId", "status"},
	"properties": map[string]interface{}{
		"applicantId": map[string]interface{}{"type": "string", "minLength": 1},
		"status":      map[string]interface{}{"type": "string"},
	},
}

func TestValidateBytes(t *testing.T) {
	s, err := Compile(testSchema)
	require.NoError(t, err)

	assert.NoError(t, s.ValidateBytes([]byte(`{"applicantId":"app-1","status":"Hired"}`)))

	err = s.ValidateBytes([]byte(`{"status":"Hired"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "applicantId")
}

func TestValidateBytes_JoinsAllViolations(t *testing.T) {
	s := MustCompile(testSchema)

	err := s.ValidateBytes([]byte(`{}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "applicantId")
	assert.Contains(t, err.Error(), "status")
}

func TestValidateMap(t *testing.T) {
	s := MustCompile(testSchema)

	assert.NoError(t, s.ValidateMap(map[string]interface{}{
		"applicantId": "app-1",
		"status":      "Rejected",
	}))
	assert.Error(t, s.ValidateMap(map[string]interface{}{"applicantId": ""}))
}

func TestValidateEmail(t *testing.T) {
	assert.True(t, ValidateEmail("jane@example.com"))
	assert.False(t, ValidateEmail("jane@"))
	assert.False(t, ValidateEmail("not-an-email"))
}

func TestValidatePhone(t *testing.T) {
	assert.True(t, ValidatePhone("+4915123456789"))
	assert.True(t, ValidatePhone("(030) 1234-5678"))
	assert.False(t, ValidatePhone("12345"))
	assert.False(t, ValidatePhone("call me"))
}
