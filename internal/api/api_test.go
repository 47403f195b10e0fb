package api_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mautops/notary-gin/internal/api"
	"github.com/mautops/notary-gin/internal/auth"
	"github.com/mautops/notary-gin/internal/config"
	"github.com/mautops/notary-gin/internal/container"
	"github.com/mautops/notary-gin/internal/database"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const testOfficeID = "office-1"

// testServer 完整路由和内存数据库
type testServer struct {
	router *gin.Engine
	db     *gorm.DB
	cfg    *config.Config
}

func setupTestServer(t *testing.T, configure ...func(*config.Config)) *testServer {
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	api.SetLogger(logger)

	cfg := config.Default()
	cfg.Auth.Enabled = false
	cfg.Engine.Timezone = "UTC"
	for _, fn := range configure {
		fn(cfg)
	}

	ctr, err := container.NewContainerWithDB(cfg, db, logger)
	require.NoError(t, err)

	return &testServer{router: api.SetupRoutes(ctr.RouterDeps(cfg)), db: db, cfg: cfg}
}

// do 以 office-1 的身份发请求
func (s *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	return s.doAs(t, testOfficeID, method, path, body)
}

func (s *testServer) doAs(t *testing.T, officeID, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if officeID != "" {
		req.Header.Set(auth.HeaderUserID, "user-1")
		req.Header.Set(auth.HeaderUserName, "الموثق")
		req.Header.Set(auth.HeaderOfficeID, officeID)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// decodeData 解析统一响应中的 data
func decodeData(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	var resp struct {
		Code int             `json:"code"`
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	require.Equal(t, 0, resp.Code, w.Body.String())
	if out != nil {
		require.NoError(t, json.Unmarshal(resp.Data, out))
	}
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) api.ErrorResponse {
	var resp api.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

func TestHealth(t *testing.T) {
	s := setupTestServer(t)

	w := s.doAs(t, "", http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "healthy", body.Checks["database"])
	assert.Equal(t, "not configured", body.Checks["storage"])
}

func TestMetricsEndpoint(t *testing.T) {
	s := setupTestServer(t)

	s.do(t, http.MethodGet, "/api/v1/templates/tpl-404", nil)

	w := s.doAs(t, "", http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "contract_generations_total")
	// 按路由模板聚合,路径中的 ID 不进入标签
	assert.Contains(t, w.Body.String(), `path="/api/v1/templates/:id"`)
	assert.NotContains(t, w.Body.String(), "tpl-404")
}

func TestNoRoute(t *testing.T) {
	s := setupTestServer(t)

	w := s.do(t, http.MethodGet, "/api/v2/templates", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, "/api/v2/templates", resp.Detail)
}

func TestIdentityRequired(t *testing.T) {
	s := setupTestServer(t)

	w := s.doAs(t, "", http.MethodGet, "/api/v1/templates", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthEnabled(t *testing.T) {
	s := setupTestServer(t, func(cfg *config.Config) {
		cfg.Auth.Enabled = true
		cfg.Auth.JWTSecret = "test-secret"
		cfg.Auth.Issuer = "notary-test"
	})

	// 请求头身份在启用认证后不生效
	w := s.do(t, http.MethodGet, "/api/v1/office", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, _, err := auth.NewTokenValidator("test-secret", "notary-test").GenerateToken("user-7", "الموثق", "office-7", time.Hour)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/office", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var office struct {
		ID string `json:"id"`
	}
	decodeData(t, w, &office)
	assert.Equal(t, "office-7", office.ID)
}

func jsonUnmarshal(w *httptest.ResponseRecorder, out interface{}) error {
	return json.Unmarshal(w.Body.Bytes(), out)
}
