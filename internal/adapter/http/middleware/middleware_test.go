package middleware_test

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"marketplace-wallet/internal/adapter/http/middleware"
	"marketplace-wallet/internal/core/domain"
	"marketplace-wallet/internal/core/ports"
	"marketplace-wallet/internal/core/ports/mocks"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestJWTAuth_MissingHeader(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	tokenSvc := mocks.NewMockTokenService(ctrl)

	router := gin.New()
	router.GET("/test", middleware.JWTAuth(tokenSvc, zerolog.Nop()), func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTAuth_InvalidToken(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	tokenSvc := mocks.NewMockTokenService(ctrl)
	tokenSvc.EXPECT().Validate("garbage").Return(nil, errors.New("bad token"))

	router := gin.New()
	router.GET("/test", middleware.JWTAuth(tokenSvc, zerolog.Nop()), func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTAuth_SetsActor(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	userID := uuid.New()
	tokenSvc := mocks.NewMockTokenService(ctrl)
	tokenSvc.EXPECT().Validate("good-token").Return(&ports.TokenClaims{
		UserID: userID,
		Role:   domain.RoleShopOwner,
	}, nil)

	var gotActor domain.Actor
	router := gin.New()
	router.GET("/test", middleware.JWTAuth(tokenSvc, zerolog.Nop()), func(c *gin.Context) {
		actor, ok := middleware.ActorFrom(c)
		require.True(t, ok)
		gotActor = actor
		c.JSON(200, gin.H{"ok": true})
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, userID, gotActor.UserID)
	assert.Equal(t, domain.RoleShopOwner, gotActor.Role)
}

func signCallback(secret, method, path string, timestamp int64, body string) string {
	canonical := fmt.Sprintf("%s|%s|%d|%s", method, path, timestamp, body)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(canonical))
	return hex.EncodeToString(mac.Sum(nil))
}

func setupCallbackRouter(sigSvc ports.SignatureService, secret string) *gin.Engine {
	router := gin.New()
	router.POST("/callback", middleware.CallbackAuth(sigSvc, secret, zerolog.Nop()), func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})
	return router
}

func TestCallbackAuth_ValidSignature(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	const secret = "processor-secret"
	body := `{"transaction_id":"tx-1","status":"completed"}`
	ts := time.Now().Unix()
	sig := signCallback(secret, http.MethodPost, "/callback", ts, body)

	sigSvc := mocks.NewMockSignatureService(ctrl)
	sigSvc.EXPECT().
		Verify(secret, fmt.Sprintf("POST|/callback|%d|%s", ts, body), sig).
		Return(true)

	router := setupCallbackRouter(sigSvc, secret)

	req := httptest.NewRequest(http.MethodPost, "/callback", bytes.NewBufferString(body))
	req.Header.Set(middleware.HeaderTimestamp, strconv.FormatInt(ts, 10))
	req.Header.Set(middleware.HeaderSignature, sig)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCallbackAuth_BadSignature(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sigSvc := mocks.NewMockSignatureService(ctrl)
	sigSvc.EXPECT().Verify(gomock.Any(), gomock.Any(), gomock.Any()).Return(false)

	router := setupCallbackRouter(sigSvc, "processor-secret")

	req := httptest.NewRequest(http.MethodPost, "/callback", bytes.NewBufferString("{}"))
	req.Header.Set(middleware.HeaderTimestamp, strconv.FormatInt(time.Now().Unix(), 10))
	req.Header.Set(middleware.HeaderSignature, "deadbeef")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCallbackAuth_ExpiredTimestamp(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sigSvc := mocks.NewMockSignatureService(ctrl)

	router := setupCallbackRouter(sigSvc, "processor-secret")

	stale := time.Now().Add(-5 * time.Minute).Unix()
	req := httptest.NewRequest(http.MethodPost, "/callback", bytes.NewBufferString("{}"))
	req.Header.Set(middleware.HeaderTimestamp, strconv.FormatInt(stale, 10))
	req.Header.Set(middleware.HeaderSignature, "deadbeef")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCallbackAuth_MissingHeaders(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sigSvc := mocks.NewMockSignatureService(ctrl)

	router := setupCallbackRouter(sigSvc, "processor-secret")

	req := httptest.NewRequest(http.MethodPost, "/callback", bytes.NewBufferString("{}"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCallbackAuth_EmptySecretSkipsVerification(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sigSvc := mocks.NewMockSignatureService(ctrl)

	router := setupCallbackRouter(sigSvc, "")

	req := httptest.NewRequest(http.MethodPost, "/callback", bytes.NewBufferString("{}"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRecovery_CatchesPanic(t *testing.T) {
	router := gin.New()
	router.Use(middleware.Recovery(zerolog.Nop()))
	router.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})

	req := httptest.NewRequest(http.MethodGet, "/panic", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "SYS_001")
}

func TestMaxBodySize_RejectsOversizedBody(t *testing.T) {
	router := gin.New()
	router.Use(middleware.MaxBodySize(16))
	router.POST("/test", func(c *gin.Context) {
		var payload map[string]interface{}
		if err := c.ShouldBindJSON(&payload); err != nil {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "body too large"})
			return
		}
		c.JSON(200, gin.H{"ok": true})
	})

	body := bytes.NewBufferString(`{"field":"` + string(make([]byte, 64)) + `"}`)
	req := httptest.NewRequest(http.MethodPost, "/test", body)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}
