package requestid

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestMiddlewareAssignsAndKeepsIDs(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var seen string
	router := gin.New()
	router.Use(Middleware())
	router.GET("/", func(c *gin.Context) {
		seen = Value(c)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, seen, 36)
	assert.Equal(t, seen, w.Header().Get(headerKey))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(headerKey, "upstream-42")
	router.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "upstream-42", seen)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(headerKey, strings.Repeat("x", 500))
	router.ServeHTTP(httptest.NewRecorder(), req)
	assert.Len(t, seen, 36)
}
