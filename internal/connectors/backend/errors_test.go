package backend

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractMessage(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"bare string", `"file too large"`, "file too large"},
		{"string detail", `{"detail":"Template not found"}`, "Template not found"},
		{"empty string detail", `{"detail":"","message":"ignored"}`, ""},
		{"detail with message", `{"detail":{"message":"bad sheet","code":7}}`, "bad sheet"},
		{"detail without message", `{"detail":{"code":7,"sheet":"A"}}`, "{\n  \"code\": 7,\n  \"sheet\": \"A\"\n}"},
		{"detail with non-string message", `{"detail":{"message":3}}`, "{\n  \"message\": 3\n}"},
		{"detail list", `{"detail":[{"loc":["body","file"],"msg":"field required"}]}`,
			"[\n  {\n    \"loc\": [\n      \"body\",\n      \"file\"\n    ],\n    \"msg\": \"field required\"\n  }\n]"},
		{"null detail falls through to message", `{"detail":null,"message":"boom"}`, "boom"},
		{"numeric detail falls through to message", `{"detail":5,"message":"boom"}`, "boom"},
		{"top-level message", `{"message":"upstream unavailable"}`, "upstream unavailable"},
		{"non-string message", `{"message":{"text":"x"}}`, "{\n  \"message\": {\n    \"text\": \"x\"\n  }\n}"},
		{"arbitrary object keeps key order", `{"zeta":1,"alpha":2}`, "{\n  \"zeta\": 1,\n  \"alpha\": 2\n}"},
		{"array payload", `[1,2]`, "[\n  1,\n  2\n]"},
		{"null payload", `null`, fallbackMessage},
		{"number payload", `42`, fallbackMessage},
		{"boolean payload", `true`, fallbackMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractMessage([]byte(tt.body)))
		})
	}
}

func TestNewAPIError_TextBodyIsVerbatim(t *testing.T) {
	err := newAPIError(502, &Payload{JSON: false, Body: []byte("Bad Gateway\n")})
	assert.Equal(t, "Bad Gateway\n", err.Message)
	assert.Equal(t, 502, err.StatusCode)
}

func TestMessage(t *testing.T) {
	apiErr := newAPIError(404, &Payload{JSON: true, Body: []byte(`{"detail":"Template not found"}`)})

	assert.Equal(t, "", Message(nil))
	assert.Equal(t, "Template not found", Message(apiErr))
	assert.Equal(t, "Template not found", Message(fmt.Errorf("load: %w", apiErr)))
	assert.Equal(t, "connection refused", Message(errors.New("connection refused")))
	assert.True(t, IsStatus(apiErr, 404))
	assert.False(t, IsStatus(errors.New("x"), 404))
}
