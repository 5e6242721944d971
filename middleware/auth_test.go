package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(CallerIdentity())
	router.PUT("/flags/:id/status", RequireRoles("regulator", "admin"), func(c *gin.Context) {
		id := GetIdentity(c)
		c.JSON(http.StatusOK, gin.H{"resolved_by": id.Email})
	})
	return router
}

func TestRequireRoles(t *testing.T) {
	tests := []struct {
		name       string
		role       string
		wantStatus int
	}{
		{"Regulator allowed", "regulator", http.StatusOK},
		{"Admin allowed", "admin", http.StatusOK},
		{"Compliance officer denied", "compliance_officer", http.StatusForbidden},
		{"Missing role denied", "", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPut, "/flags/f1/status", nil)
			if tt.role != "" {
				req.Header.Set("X-Caller-Role", tt.role)
			}
			req.Header.Set("X-Caller-Email", "person@osfi.ca")
			w := httptest.NewRecorder()
			newTestRouter().ServeHTTP(w, req)
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestCallerIdentityHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(CallerIdentity())
	var got Identity
	router.GET("/whoami", func(c *gin.Context) {
		got = GetIdentity(c)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("X-Caller-Role", "compliance_officer")
	req.Header.Set("X-Caller-Email", "officer@bank.ca")
	req.Header.Set("X-Caller-Entity", "entity-1")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "compliance_officer", got.Role)
	assert.Equal(t, "officer@bank.ca", got.Email)
	assert.Equal(t, "entity-1", got.EntityID)
}
