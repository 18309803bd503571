package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestOK_Envelope(t *testing.T) {
	r := gin.New()
	r.GET("/", func(c *gin.Context) {
		OK(c, gin.H{"value": 42})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "SUCCESS", body["status"])
	require.Equal(t, "S000", body["code"])
	require.NotEmpty(t, body["timestamp"])
	data, ok := body["data"].(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, float64(42), data["value"])
}

func TestFail_CodeTable(t *testing.T) {
	cases := []struct {
		code       Code
		wantCode   string
		wantStatus int
	}{
		{Unauthorized, "A001", http.StatusUnauthorized},
		{Forbidden, "A002", http.StatusForbidden},
		{TokenExpired, "A003", http.StatusUnauthorized},
		{LoginRequired, "A004", http.StatusUnauthorized},
		{ValidationError, "C003", http.StatusBadRequest},
		{Error, "S001", http.StatusInternalServerError},
	}

	for _, tc := range cases {
		r := gin.New()
		r.GET("/", func(c *gin.Context) {
			Fail(c, tc.code, "detail")
		})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		require.Equal(t, tc.wantStatus, w.Code)
		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		require.Equal(t, "FAIL", body["status"])
		require.Equal(t, tc.wantCode, body["code"])
		require.Nil(t, body["data"])
		require.Equal(t, "detail", body["description"])
	}
}

func TestAbortFail_StopsChain(t *testing.T) {
	r := gin.New()
	reached := false
	r.GET("/", func(c *gin.Context) {
		AbortFail(c, Unauthorized, "")
	}, func(c *gin.Context) {
		reached = true
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.False(t, reached)
}
