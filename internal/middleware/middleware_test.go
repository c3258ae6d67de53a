// internal/middleware/middleware_test.go
package middleware

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/artmarket-backend/internal/i18n"
	"github.com/javajoker/artmarket-backend/internal/models"
	"github.com/javajoker/artmarket-backend/internal/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubVerifier struct {
	claims *utils.JWTClaims
}

func (v stubVerifier) VerifyToken(token string) (*utils.JWTClaims, error) {
	if token != "good" {
		return nil, utils.ErrInvalidToken
	}
	return v.claims, nil
}

type recordingAuditor struct {
	entries []*models.AuditLog
	err     error
}

func (r *recordingAuditor) Record(ctx context.Context, entry *models.AuditLog) error {
	r.entries = append(r.entries, entry)
	return r.err
}

func identityRouter(mw gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.GET("/whoami", mw, func(c *gin.Context) {
		userID, ok := utils.GetUserIDFromContext(c)
		if !ok {
			c.String(http.StatusOK, "anonymous")
			return
		}
		c.String(http.StatusOK, userID.String()+" "+utils.GetUsernameFromContext(c))
	})
	return r
}

func get(r *gin.Engine, path, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthRequired(t *testing.T) {
	userID := uuid.New()
	verifier := stubVerifier{claims: &utils.JWTClaims{UserID: userID.String(), Username: "alice"}}
	r := identityRouter(AuthRequired(verifier))

	tests := []struct {
		name          string
		authorization string
		status        int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic Zm9vOmJhcg==", http.StatusForbidden},
		{"empty bearer", "Bearer ", http.StatusForbidden},
		{"invalid token", "Bearer bad", http.StatusForbidden},
		{"valid token", "Bearer good", http.StatusOK},
		{"scheme is case insensitive", "bearer good", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(r, "/whoami", tt.authorization)
			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, userID.String()+" alice", w.Body.String())
			}
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	userID := uuid.New()
	verifier := stubVerifier{claims: &utils.JWTClaims{UserID: userID.String(), Username: "alice"}}
	r := identityRouter(OptionalAuth(verifier))

	assert.Equal(t, "anonymous", get(r, "/whoami", "").Body.String())
	assert.Equal(t, "anonymous", get(r, "/whoami", "Bearer bad").Body.String())
	assert.Equal(t, userID.String()+" alice", get(r, "/whoami", "Bearer good").Body.String())
}

func TestBearerToken(t *testing.T) {
	token, ok := BearerToken("Bearer abc.def")
	assert.True(t, ok)
	assert.Equal(t, "abc.def", token)

	_, ok = BearerToken("abc.def")
	assert.False(t, ok)
}

func TestI18nMiddleware(t *testing.T) {
	require.NoError(t, i18n.Initialize())

	r := gin.New()
	r.Use(I18nMiddleware("en"))
	r.GET("/lang", func(c *gin.Context) {
		c.String(http.StatusOK, utils.GetLangFromContext(c))
	})

	cases := map[string]string{
		"":                        "en",
		"zh-TW,zh;q=0.9,en;q=0.8": "zh_TW",
		"en-US,en;q=0.9":          "en",
		"fr-FR,fr;q=0.9":          "en",
	}
	for header, want := range cases {
		req := httptest.NewRequest(http.MethodGet, "/lang", nil)
		if header != "" {
			req.Header.Set("Accept-Language", header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, want, w.Body.String(), header)
	}
}

func TestAuditLogMiddlewareRedactsPasswords(t *testing.T) {
	auditor := &recordingAuditor{}
	r := gin.New()
	r.Use(AuditLogMiddleware(auditor))
	r.POST("/auth/register", func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})

	body := `{"username":"alice","password":"secret123","profile":{"old_password":"x"}}`
	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(httptest.NewRecorder(), req)

	require.Len(t, auditor.entries, 1)
	entry := auditor.entries[0]
	assert.Equal(t, "POST /auth/register", entry.Action)
	assert.Equal(t, "auth", entry.ResourceType)
	assert.Equal(t, http.StatusCreated, entry.StatusCode)
	assert.Nil(t, entry.UserID)
	assert.Equal(t, "alice", entry.NewValues["username"])
	assert.Equal(t, "[REDACTED]", entry.NewValues["password"])
	assert.Equal(t, "[REDACTED]", entry.NewValues["profile"].(map[string]interface{})["old_password"])
}

func TestAuditLogMiddlewareRecordsResource(t *testing.T) {
	auditor := &recordingAuditor{err: errors.New("db down")}
	userID := uuid.New()
	offerID := uuid.New()

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("user_id", userID.String())
		c.Next()
	})
	r.Use(AuditLogMiddleware(auditor))
	r.PUT("/api/bids/:id/accept", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	r.GET("/api/bids/received", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPut, "/api/bids/"+offerID.String()+"/accept", bytes.NewReader(nil))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	// a failing recorder does not change the response
	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, auditor.entries, 1)
	entry := auditor.entries[0]
	assert.Equal(t, "bids", entry.ResourceType)
	require.NotNil(t, entry.UserID)
	assert.Equal(t, userID, *entry.UserID)
	require.NotNil(t, entry.ResourceID)
	assert.Equal(t, offerID, *entry.ResourceID)

	// reads are not audited
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/bids/received", nil))
	assert.Len(t, auditor.entries, 1)
}

func TestRateLimiter(t *testing.T) {
	require.NoError(t, i18n.Initialize())

	limiter := NewRateLimiter(0, 2)
	r := gin.New()
	r.Use(limiter.Middleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		codes = append(codes, get(r, "/", "").Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}
