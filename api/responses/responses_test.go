package responses

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/praco-io/praco-backend/pkg/errors"
	"github.com/praco-io/praco-backend/pkg/types"
)

func TestWriteSuccessWrapsDataEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteSuccess(rec, map[string]string{"status": "ok"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var envelope types.SuccessEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	data, ok := envelope.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "ok", data["status"])
}

func TestWriteErrorMapsCodeToStatus(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{
			name:   "validation",
			err:    pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive"),
			status: http.StatusBadRequest,
			code:   string(pkgerrors.CodeValidation),
		},
		{
			name:   "missing pricing data",
			err:    pkgerrors.New(pkgerrors.CodeMissingPricingData, "no price row for tier"),
			status: http.StatusUnprocessableEntity,
			code:   string(pkgerrors.CodeMissingPricingData),
		},
		{
			name:   "not found",
			err:    pkgerrors.New(pkgerrors.CodeNotFound, "order not found"),
			status: http.StatusNotFound,
			code:   string(pkgerrors.CodeNotFound),
		},
		{
			name:   "untyped falls back to internal",
			err:    errors.New("boom"),
			status: http.StatusInternalServerError,
			code:   string(pkgerrors.CodeInternal),
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteError(context.Background(), nil, rec, tc.err)

			assert.Equal(t, tc.status, rec.Code)
			var envelope types.ErrorEnvelope
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
			assert.Equal(t, tc.code, envelope.Error.Code)
		})
	}
}

func TestWriteErrorHidesInternalMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(context.Background(), nil, rec, pkgerrors.New(pkgerrors.CodeInternal, "db password leaked here"))

	var envelope types.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "internal server error", envelope.Error.Message)
}

func TestWriteErrorIncludesFieldDetails(t *testing.T) {
	fields := pkgerrors.FieldErrors{}
	fields.Add("email", "is required")
	rec := httptest.NewRecorder()
	WriteError(context.Background(), nil, rec, pkgerrors.NewFieldErrors(pkgerrors.CodeValidation, fields))

	var envelope types.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	details, ok := envelope.Error.Details.(map[string]any)
	require.True(t, ok)
	assert.Contains(t, details, "email")
}
