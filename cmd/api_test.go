package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRouter(svc *ServiceContext) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/version", svc.getVersion)
	router.GET("/batches/:name/manifest", svc.getBatchManifest)
	router.GET("/batches/:name/events", svc.getBatchEvents)
	auth := router.Group("", svc.authMiddleware)
	auth.POST("/titles/index", svc.startTitlesIndex)
	return router
}

func TestGetVersion(t *testing.T) {
	svc, _ := testService(t)
	router := testRouter(svc)

	rw := httptest.NewRecorder()
	router.ServeHTTP(rw, httptest.NewRequest("GET", "/version", nil))
	assert.Equal(t, http.StatusOK, rw.Code)
	assert.Contains(t, rw.Body.String(), `"version":"test"`)
}

func TestGetBatchManifest(t *testing.T) {
	svc, _ := testService(t)
	router := testRouter(svc)

	rw := httptest.NewRecorder()
	router.ServeHTTP(rw, httptest.NewRequest("GET", "/batches/batch_uuml_thys_ver01/manifest", nil))
	assert.Equal(t, http.StatusOK, rw.Code)
	assert.Contains(t, rw.Body.String(), "ndnp:batch")
	assert.Contains(t, rw.Body.String(), "sn83045396/1901010101.xml")

	rw = httptest.NewRecorder()
	router.ServeHTTP(rw, httptest.NewRequest("GET", "/batches/batch_uuml_ghost_ver01/manifest", nil))
	assert.Equal(t, http.StatusNotFound, rw.Code)

	rw = httptest.NewRecorder()
	router.ServeHTTP(rw, httptest.NewRequest("GET", "/batches/bogus/manifest", nil))
	assert.Equal(t, http.StatusBadRequest, rw.Code)
}

func TestGetBatchEvents(t *testing.T) {
	svc, _ := testService(t)
	router := testRouter(svc)

	_, err := svc.loadBatch("batch_uuml_thys_ver01", loadOptions{strict: true})
	require.NoError(t, err)

	rw := httptest.NewRecorder()
	router.ServeHTTP(rw, httptest.NewRequest("GET", "/batches/batch_uuml_thys_ver01/events", nil))
	assert.Equal(t, http.StatusOK, rw.Code)
	assert.Contains(t, rw.Body.String(), "starting load")
	assert.Contains(t, rw.Body.String(), "processed 2 issues")

	rw = httptest.NewRecorder()
	router.ServeHTTP(rw, httptest.NewRequest("GET", "/batches/bogus/events", nil))
	assert.Equal(t, http.StatusBadRequest, rw.Code)
}

func TestAuthMiddleware(t *testing.T) {
	svc, _ := testService(t)
	svc.JWTKey = "test-signing-key"
	router := testRouter(svc)

	// no token
	rw := httptest.NewRecorder()
	router.ServeHTTP(rw, httptest.NewRequest("POST", "/titles/index", nil))
	assert.Equal(t, http.StatusUnauthorized, rw.Code)

	// token signed with the wrong key
	badToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("wrong-key"))
	require.NoError(t, err)
	rw = httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/titles/index", nil)
	req.Header.Set("Authorization", "Bearer "+badToken)
	router.ServeHTTP(rw, req)
	assert.Equal(t, http.StatusUnauthorized, rw.Code)

	// valid token
	goodToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(svc.JWTKey))
	require.NoError(t, err)
	rw = httptest.NewRecorder()
	req = httptest.NewRequest("POST", "/titles/index", nil)
	req.Header.Set("Authorization", "Bearer "+goodToken)
	router.ServeHTTP(rw, req)
	assert.Equal(t, http.StatusOK, rw.Code)
}

func TestAuthDisabledWithoutKey(t *testing.T) {
	svc, _ := testService(t)
	router := testRouter(svc)

	rw := httptest.NewRecorder()
	router.ServeHTTP(rw, httptest.NewRequest("POST", "/titles/index", nil))
	assert.Equal(t, http.StatusOK, rw.Code)
}
