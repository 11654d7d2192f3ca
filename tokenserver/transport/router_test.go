package transport

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomock "go.uber.org/mock/gomock"

	interrors "github.com/imtaco/rtc-token-server/internal/errors"
	"github.com/imtaco/rtc-token-server/internal/log"
	"github.com/imtaco/rtc-token-server/internal/ratelimit"
	"github.com/imtaco/rtc-token-server/internal/rtctoken"
	rtcmocks "github.com/imtaco/rtc-token-server/internal/rtctoken/mocks"
	"github.com/imtaco/rtc-token-server/tokenserver"
	"github.com/imtaco/rtc-token-server/tokenserver/issuer"
	"github.com/imtaco/rtc-token-server/tokenserver/mocks"
)

const (
	testAppID = "0123456789abcdef0123456789abcdef"
	testCert  = "fedcba9876543210fedcba9876543210"
)

func setupRouter(t *testing.T) (*Router, *mocks.MockTokenIssuer) {
	gin.SetMode(gin.TestMode)

	ctrl := gomock.NewController(t)
	mockIssuer := mocks.NewMockTokenIssuer(ctrl)
	router := NewRouter(mockIssuer, Options{}, log.NewTest(t))
	return router, mockIssuer
}

func postToken(router *Router, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/rtc-token", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.Handler().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return response
}

func TestRootStatus(t *testing.T) {
	router, _ := setupRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/", nil)
	router.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "RTC Token Server Running", decode(t, w)["status"])
}

func TestRootStatusWithoutCredentials(t *testing.T) {
	ctrl := gomock.NewController(t)
	iss := issuer.New(issuer.Credentials{}, rtcmocks.NewMockBuilder(ctrl), log.NewTest(t))
	router := NewRouter(iss, Options{}, log.NewTest(t))

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/", nil)
	router.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "RTC Token Server Running", decode(t, w)["status"])
}

func TestHealthCheck(t *testing.T) {
	router, _ := setupRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/health", nil)
	router.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	response := decode(t, w)
	assert.Equal(t, "ok", response["status"])
	assert.NotZero(t, response["timestamp"])
}

func TestIssueToken(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		router, mockIssuer := setupRouter(t)

		uid := uint32(42)
		mockIssuer.EXPECT().
			Issue(gomock.Any(), tokenserver.IssueRequest{ChannelName: "room1", UID: &uid, Role: "subscriber"}).
			Return(&tokenserver.IssueResult{
				Token:       "tok",
				AppID:       testAppID,
				ChannelName: "room1",
				UID:         42,
				ExpiresIn:   tokenserver.ExpiresIn,
			}, nil)

		w := postToken(router, `{"channelName":"room1","uid":42,"role":"subscriber"}`)
		assert.Equal(t, http.StatusOK, w.Code)

		response := decode(t, w)
		assert.Equal(t, "tok", response["token"])
		assert.Equal(t, testAppID, response["appId"])
		assert.Equal(t, "room1", response["channelName"])
		assert.Equal(t, float64(42), response["uid"])
		assert.Equal(t, float64(86400), response["expiresIn"])
	})

	t.Run("OptionalFieldsAbsent", func(t *testing.T) {
		router, mockIssuer := setupRouter(t)

		mockIssuer.EXPECT().
			Issue(gomock.Any(), tokenserver.IssueRequest{ChannelName: "room1"}).
			Return(&tokenserver.IssueResult{ChannelName: "room1", ExpiresIn: tokenserver.ExpiresIn}, nil)

		w := postToken(router, `{"channelName":"room1"}`)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, float64(0), decode(t, w)["uid"])
	})

	t.Run("MissingChannelName", func(t *testing.T) {
		cases := map[string]string{
			"no field":    `{"uid":5}`,
			"empty field": `{"channelName":""}`,
			"empty body":  ``,
			"null body":   `null`,
		}
		for name, body := range cases {
			t.Run(name, func(t *testing.T) {
				router, _ := setupRouter(t)

				w := postToken(router, body)
				assert.Equal(t, http.StatusBadRequest, w.Code)
				assert.Equal(t, "channelName is required", decode(t, w)["error"])
			})
		}
	})

	t.Run("InvalidBody", func(t *testing.T) {
		cases := map[string]string{
			"malformed json": `{"channelName":`,
			"negative uid":   `{"channelName":"room1","uid":-1}`,
			"uid overflow":   `{"channelName":"room1","uid":4294967296}`,
			"string uid":     `{"channelName":"room1","uid":"7"}`,
			"array":          `[]`,
		}
		for name, body := range cases {
			t.Run(name, func(t *testing.T) {
				router, _ := setupRouter(t)

				w := postToken(router, body)
				assert.Equal(t, http.StatusBadRequest, w.Code)
				assert.Equal(t, "Invalid request body", decode(t, w)["error"])
			})
		}
	})

	t.Run("ConfigurationError", func(t *testing.T) {
		router, mockIssuer := setupRouter(t)

		mockIssuer.EXPECT().Issue(gomock.Any(), gomock.Any()).
			Return(nil, interrors.New(tokenserver.ErrConfiguration, "app certificate missing"))

		w := postToken(router, `{"channelName":"room1"}`)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "Server configuration error", decode(t, w)["error"])
		assert.NotContains(t, w.Body.String(), "certificate")
	})

	t.Run("TokenGenerationError", func(t *testing.T) {
		router, mockIssuer := setupRouter(t)

		mockIssuer.EXPECT().Issue(gomock.Any(), gomock.Any()).
			Return(nil, interrors.Wrap(tokenserver.ErrTokenGeneration, errors.New("hsm offline"), "signer failed"))

		w := postToken(router, `{"channelName":"room1"}`)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "Failed to generate token", decode(t, w)["error"])
		assert.NotContains(t, w.Body.String(), "hsm offline")
	})

	t.Run("UncodedError", func(t *testing.T) {
		router, mockIssuer := setupRouter(t)

		mockIssuer.EXPECT().Issue(gomock.Any(), gomock.Any()).Return(nil, errors.New("boom"))

		w := postToken(router, `{"channelName":"room1"}`)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "Failed to generate token", decode(t, w)["error"])
	})
}

func TestIssueTokenWithIssuer(t *testing.T) {
	newRouter := func(t *testing.T, creds issuer.Credentials, builder rtctoken.Builder) *Router {
		return NewRouter(issuer.New(creds, builder, log.NewTest(t)), Options{}, log.NewTest(t))
	}

	t.Run("SignedTokenVerifies", func(t *testing.T) {
		router := newRouter(t, issuer.Credentials{AppID: testAppID, AppCertificate: testCert}, rtctoken.NewBuilder())

		w := postToken(router, `{"channelName":"room1","uid":7,"role":"subscriber"}`)
		require.Equal(t, http.StatusOK, w.Code)

		response := decode(t, w)
		claims, err := rtctoken.NewVerifier(testCert).Verify(response["token"].(string))
		require.NoError(t, err)
		assert.Equal(t, testAppID, claims.AppID)
		assert.Equal(t, "room1", claims.Channel)
		assert.Equal(t, uint32(7), claims.UID)
		assert.Equal(t, rtctoken.RoleSubscriber, claims.Role)
		assert.Equal(t, float64(86400), response["expiresIn"])
	})

	t.Run("MissingCredentialsSkipSigner", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		builder := rtcmocks.NewMockBuilder(ctrl)
		builder.EXPECT().BuildTokenWithUID(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		router := newRouter(t, issuer.Credentials{AppID: testAppID}, builder)

		w := postToken(router, `{"channelName":"room1"}`)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "Server configuration error", decode(t, w)["error"])
	})

	t.Run("MissingChannelBeatsMissingCredentials", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		router := newRouter(t, issuer.Credentials{}, rtcmocks.NewMockBuilder(ctrl))

		w := postToken(router, `{}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "channelName is required", decode(t, w)["error"])
	})

	t.Run("SignerFailureHidden", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		builder := rtcmocks.NewMockBuilder(ctrl)
		builder.EXPECT().
			BuildTokenWithUID(testAppID, testCert, "room1", uint32(0), rtctoken.RolePublisher, gomock.Any()).
			Return("", errors.New("bad certificate length"))

		router := newRouter(t, issuer.Credentials{AppID: testAppID, AppCertificate: testCert}, builder)

		w := postToken(router, `{"channelName":"room1"}`)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "Failed to generate token", decode(t, w)["error"])
		assert.NotContains(t, w.Body.String(), "certificate")
	})

	t.Run("InvalidChannelCharset", func(t *testing.T) {
		router := newRouter(t, issuer.Credentials{AppID: testAppID, AppCertificate: testCert}, rtctoken.NewBuilder())

		w := postToken(router, `{"channelName":"room/1"}`)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "Failed to generate token", decode(t, w)["error"])
	})
}

func TestRateLimit(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockIssuer := mocks.NewMockTokenIssuer(ctrl)
	mockIssuer.EXPECT().Issue(gomock.Any(), gomock.Any()).
		Return(&tokenserver.IssueResult{ChannelName: "room1", ExpiresIn: tokenserver.ExpiresIn}, nil).
		Times(2)

	limiter, err := ratelimit.New(&ratelimit.Config{Enabled: true, RPS: 0.001, Burst: 2, MaxClients: 16})
	require.NoError(t, err)

	router := NewRouter(mockIssuer, Options{Limiter: limiter}, log.NewTest(t))

	for i := 0; i < 2; i++ {
		w := postToken(router, `{"channelName":"room1"}`)
		assert.Equal(t, http.StatusOK, w.Code)
	}

	w := postToken(router, `{"channelName":"room1"}`)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "Too many requests", decode(t, w)["error"])

	// health checks are not limited
	w = httptest.NewRecorder()
	router.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCORS(t *testing.T) {
	t.Run("DefaultAllowsAnyOrigin", func(t *testing.T) {
		router, _ := setupRouter(t)

		w := httptest.NewRecorder()
		req := httptest.NewRequest("OPTIONS", "/rtc-token", nil)
		req.Header.Set("Origin", "https://app.example.com")
		req.Header.Set("Access-Control-Request-Method", "POST")
		router.Handler().ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("ConfiguredOrigins", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		router := NewRouter(mocks.NewMockTokenIssuer(ctrl), Options{
			CORS: CORSConfig{AllowOrigins: []string{"https://app.example.com"}},
		}, log.NewTest(t))

		w := httptest.NewRecorder()
		req := httptest.NewRequest("OPTIONS", "/rtc-token", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		req.Header.Set("Access-Control-Request-Method", "POST")
		router.Handler().ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}
