package validator

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type loginForm struct {
	Username string `validate:"required,min=3"`
	Password string `validate:"required"`
	Language string `validate:"omitempty,oneof=uz ru en"`
}

func TestValidate_Success(t *testing.T) {
	f := loginForm{Username: "alice", Password: "secret", Language: "uz"}
	assert.NoError(t, Validate(f))
}

func TestValidate_MissingRequired(t *testing.T) {
	f := loginForm{Password: "secret"}
	err := Validate(f)
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	fields := valErr.Fields()
	assert.Equal(t, "is required", fields["Username"])
}

func TestValidate_MinLength(t *testing.T) {
	f := loginForm{Username: "ab", Password: "secret"}
	err := Validate(f)
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Contains(t, valErr.Fields()["Username"], "at least 3")
}

func TestValidate_OneOf(t *testing.T) {
	f := loginForm{Username: "alice", Password: "secret", Language: "de"}
	err := Validate(f)
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Contains(t, valErr.Fields()["Language"], "one of")
}

func TestValidate_MultipleErrors(t *testing.T) {
	f := loginForm{}
	err := Validate(f)
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	fields := valErr.Fields()
	assert.Contains(t, fields, "Username")
	assert.Contains(t, fields, "Password")
	assert.Contains(t, err.Error(), "field 'Username'")
}

func TestDecodeAndValidate_Success(t *testing.T) {
	body := `{"Username":"alice","Password":"secret"}`
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))

	var f loginForm
	err := DecodeAndValidate(req, &f)

	require.NoError(t, err)
	assert.Equal(t, "alice", f.Username)
}

func TestDecodeAndValidate_InvalidJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{invalid"))

	var f loginForm
	err := DecodeAndValidate(req, &f)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode request body")
}

func TestDecodeAndValidate_ValidationFails(t *testing.T) {
	body := `{"Username":"","Password":""}`
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))

	var f loginForm
	err := DecodeAndValidate(req, &f)

	require.Error(t, err)
	var valErr *ValidationError
	assert.ErrorAs(t, err, &valErr)
}
