package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/useradmin/internal/shared"
)

type fieldErrs map[string]string

func (f fieldErrs) Error() string          { return "invalid fields" }
func (f fieldErrs) Map() map[string]string { return f }

func TestRespondErrorStatuses(t *testing.T) {
	cases := []struct {
		err    error
		status int
		title  string
	}{
		{fmt.Errorf("get: %w", shared.ErrNotFound), http.StatusNotFound, "Not Found"},
		{shared.ErrDuplicate, http.StatusConflict, "Duplicate"},
		{shared.ErrValidation, http.StatusBadRequest, "Validation Failed"},
		{ErrUnauthorized, http.StatusUnauthorized, "Unauthorized"},
		{shared.Unavailable("list", errors.New("dial")), http.StatusBadGateway, "Backend Unavailable"},
		{errors.New("boom"), http.StatusInternalServerError, "Internal Error"},
	}
	for _, tc := range cases {
		t.Run(tc.title, func(t *testing.T) {
			rr := httptest.NewRecorder()
			RespondError(rr, tc.err)
			assert.Equal(t, tc.status, rr.Code)
			assert.Equal(t, "application/problem+json", rr.Header().Get("Content-Type"))

			var problem ProblemDetail
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &problem))
			assert.Equal(t, tc.title, problem.Title)
			assert.Equal(t, tc.status, problem.Status)
		})
	}
}

func TestRespondErrorFieldErrors(t *testing.T) {
	rr := httptest.NewRecorder()
	RespondError(rr, fmt.Errorf("create: %w", fieldErrs{"email": "Invalid email format"}))
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	var problem ProblemDetail
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &problem))
	assert.Equal(t, map[string]string{"email": "Invalid email format"}, problem.Errors)
}

func TestDecodeJSON(t *testing.T) {
	var target struct{ Name string }
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"Name":"x"}`))
	require.NoError(t, DecodeJSON(req, &target))
	assert.Equal(t, "x", target.Name)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`))
	assert.Error(t, DecodeJSON(req, &target))
}
