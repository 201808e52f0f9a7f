package response

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"ftf-gateway/internal/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
		wantCode   string
	}{
		{fmt.Errorf("wrapped: %w", auth.ErrUnauthenticated), http.StatusUnauthorized, CodeUnauthenticated},
		{auth.ErrForbidden, http.StatusForbidden, CodeForbidden},
		{auth.ErrNotFound, http.StatusNotFound, CodeNotFound},
		{auth.ErrExchange, http.StatusBadRequest, CodeInvalidGrant},
		{auth.ErrProfileFetch, http.StatusBadGateway, CodeProviderUnreachable},
		{auth.ErrProviderDown, http.StatusBadGateway, CodeProviderUnreachable},
		{fmt.Errorf("%w: %w", auth.ErrTimeout, context.DeadlineExceeded), http.StatusGatewayTimeout, CodeProviderUnreachable},
		{auth.ErrAccountConflict, http.StatusInternalServerError, CodeInternal},
		{auth.ErrStoreUnavailable, http.StatusInternalServerError, CodeInternal},
		{errors.New("boom"), http.StatusInternalServerError, CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			status, code, _ := Classify(tt.err)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantCode, code)
		})
	}
}

func TestFromErrorHidesInternalText(t *testing.T) {
	rec := httptest.NewRecorder()
	FromError(rec, errors.New("pq: password authentication failed"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, CodeInternal, body.Error)
	assert.NotContains(t, rec.Body.String(), "pq:")
}
