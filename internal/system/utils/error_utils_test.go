package utils

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	customerrors "github.com/bda-portal/identity-reconciliation-service/internal/system/errors"
	"github.com/bda-portal/identity-reconciliation-service/internal/system/log"
	"github.com/stretchr/testify/assert"
)

type signupForm struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func decodeStrict(body string) error {
	decoder := json.NewDecoder(bytes.NewBufferString(body))
	decoder.DisallowUnknownFields()
	var form signupForm
	return decoder.Decode(&form)
}

func TestHandleDecodeErrorEmptyBody(t *testing.T) {
	msg := HandleDecodeError(io.EOF, "signup")
	assert.Equal(t, "Request body for signup is empty.", msg)
}

func TestHandleDecodeErrorUnknownField(t *testing.T) {
	err := decodeStrict(`{"email": "a@b.com", "extra": 1}`)
	msg := HandleDecodeError(err, "signup")
	assert.Contains(t, msg, "Unknown field")
	assert.Contains(t, msg, "signup")
}

func TestHandleDecodeErrorMalformedJSON(t *testing.T) {
	err := decodeStrict(`{"email": `)
	msg := HandleDecodeError(err, "signup")
	assert.Contains(t, msg, "signup")
	assert.NotEmpty(t, msg)
}

func TestHandleDecodeErrorWrongFieldType(t *testing.T) {
	err := decodeStrict(`{"email": 42}`)
	msg := HandleDecodeError(err, "signup")
	assert.Contains(t, msg, "email")
}

func TestHandleDecodeErrorNilError(t *testing.T) {
	assert.Empty(t, HandleDecodeError(nil, "signup"))
}

func TestHandleErrorWritesClientErrorStatusAndBody(t *testing.T) {
	log.Init("DEBUG")
	w := httptest.NewRecorder()

	HandleError(w, customerrors.NewClientError(customerrors.INVALID_CREDENTIALS, http.StatusUnauthorized))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var body map[string]string
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, customerrors.INVALID_CREDENTIALS.Code, body["code"])
}

func TestHandleErrorHidesServerErrorDetails(t *testing.T) {
	log.Init("DEBUG")
	w := httptest.NewRecorder()

	HandleError(w, customerrors.NewServerError(customerrors.STORE_UNAVAILABLE, io.ErrUnexpectedEOF))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), io.ErrUnexpectedEOF.Error())
	assert.Contains(t, w.Body.String(), "Internal server error")
}

func TestWriteJSONResponse(t *testing.T) {
	w := httptest.NewRecorder()

	WriteJSONResponse(w, http.StatusOK, map[string]string{"status": "alive"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status": "alive"}`, w.Body.String())
}
