package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopeJSON(t *testing.T) {
	tests := []struct {
		name string
		resp *Response
		want string
	}{
		{
			name: "success omits error",
			resp: Success(map[string]string{"slug": "points"}),
			want: `{"success":true,"data":{"slug":"points"}}`,
		},
		{
			name: "error omits data and details",
			resp: Error(ErrCodeNotFound, "Invalid prize type ID"),
			want: `{"success":false,"error":{"code":"NOT_FOUND","message":"Invalid prize type ID"}}`,
		},
		{
			name: "validation keeps details",
			resp: ValidationFailed(map[string]string{"name": "is required"}),
			want: `{"success":false,"error":{"code":"VALIDATION_FAILED","message":"Validation failed","details":{"name":"is required"}}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, err := json.Marshal(tt.resp)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(body))
		})
	}
}

func TestBinding(t *testing.T) {
	type createPrizeType struct {
		Name     string `json:"name" binding:"required"`
		Strategy string `json:"strategy" binding:"required,oneof=webhook manual"`
		Limit    int    `json:"limit" binding:"omitempty,max=100"`
	}

	t.Run("validation errors become field details", func(t *testing.T) {
		err := binding.Validator.ValidateStruct(&createPrizeType{Strategy: "email", Limit: 500})
		require.Error(t, err)

		resp := Binding(err)
		require.Equal(t, ErrCodeValidationFailed, resp.Error.Code)
		assert.Equal(t, map[string]string{
			"name":     "is required",
			"strategy": "must be one of [webhook manual]",
			"limit":    "must be at most 100",
		}, resp.Error.Details)
	})

	t.Run("other errors are bad requests", func(t *testing.T) {
		resp := Binding(errors.New("unexpected EOF"))
		assert.Equal(t, ErrCodeBadRequest, resp.Error.Code)
		assert.Equal(t, "unexpected EOF", resp.Error.Message)
	})
}

func TestGetHTTPStatus(t *testing.T) {
	cases := map[string]int{
		ErrCodeBadRequest:          http.StatusBadRequest,
		ErrCodeUnauthorized:        http.StatusUnauthorized,
		ErrCodeForbidden:           http.StatusForbidden,
		ErrCodeNotFound:            http.StatusNotFound,
		ErrCodeConflict:            http.StatusConflict,
		ErrCodeInvalidTransition:   http.StatusUnprocessableEntity,
		ErrCodeInvalidSignature:    http.StatusUnauthorized,
		ErrCodeRequestExpired:      http.StatusUnauthorized,
		ErrCodeSystemRoleProtected: http.StatusForbidden,
		ErrCodeEmailNotVerified:    http.StatusUnauthorized,
		ErrCodeDuplicateEntry:      http.StatusConflict,
		ErrCodeValidationFailed:    http.StatusBadRequest,
		"UNKNOWN_CODE":             http.StatusInternalServerError,
	}

	for code, status := range cases {
		assert.Equal(t, status, GetHTTPStatus(code), code)
	}
}

func TestDefaultMessages(t *testing.T) {
	builders := map[string]func(string) *Response{
		ErrCodeUnauthorized:  Unauthorized,
		ErrCodeForbidden:     Forbidden,
		ErrCodeInternalError: InternalError,
	}

	for code, build := range builders {
		resp := build("")
		require.NotNil(t, resp.Error, code)
		assert.Equal(t, code, resp.Error.Code)
		assert.NotEmpty(t, resp.Error.Message, code)
	}
	assert.Equal(t, "custom", Forbidden("custom").Error.Message)
}

func TestAbort(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Abort(c, ErrCodeRequestExpired, "Request expired")

	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, "Request expired", resp.Error.Message)
	assert.False(t, resp.Success)
}
