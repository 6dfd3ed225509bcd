package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"chatrelay-be/internal/auth"
	"chatrelay-be/internal/coordinator"
	"chatrelay-be/internal/gateway"
	"chatrelay-be/internal/pkg/logger"
	"chatrelay-be/internal/pkg/serverutils"
	"chatrelay-be/internal/relay"
	"chatrelay-be/internal/repository/memory"
	"chatrelay-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type discardNotifier struct{}

func (discardNotifier) Notify(context.Context, coordinator.Notification) {}

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	log := logger.NewNopLogger()
	watcher := auth.NewWatcher()
	provider := auth.NewProvider(auth.Config{
		Secret:      "test-secret",
		TokenTTL:    time.Hour,
		EmailDomain: "users.test",
		Origin:      "test",
	}, memory.NewIdentityRepository(), memory.NewSessionRepository(), watcher, nil, log)

	workspaces := service.NewWorkspaceService(gateway.NewOffline(), relay.NewRelay(nil, log, nil), discardNotifier{}, provider, log, service.WorkspaceOptions{})
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		workspaces.Close(ctx)
	})

	jwt := serverutils.NewJwtMiddleware(provider)
	app := fiber.New()
	app.Use(serverutils.ErrorHandlerMiddleware())
	api := app.Group("/api")
	NewAuthController(service.NewAuthService(provider, nil, "test", log), jwt).RegisterRoutes(api)
	NewWorkspaceController(workspaces, jwt).RegisterRoutes(api)
	NewChatbotController(service.NewChatbotService(workspaces, service.ChatbotOptions{}), jwt).RegisterRoutes(api)
	NewHealthController(workspaces).RegisterRoutes(api)
	return app
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func call(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, 5000)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func signUp(t *testing.T, app *fiber.App, username string) string {
	t.Helper()
	status, env := call(t, app, http.MethodPost, "/api/auth/v1/sign-up", "", map[string]string{"username": username, "password": "hunter22"})
	require.Equal(t, http.StatusOK, status, env.Message)
	var data struct {
		Session struct {
			AccessToken string `json:"access_token"`
		} `json:"session"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	return data.Session.AccessToken
}

func TestChatbotLifecycleOverHTTP(t *testing.T) {
	app := newTestApp(t)
	token := signUp(t, app, "alice")

	status, env := call(t, app, http.MethodGet, "/api/workspace/v1", token, nil)
	require.Equal(t, http.StatusOK, status, env.Message)
	var ws struct {
		Chatbots []struct {
			Id string `json:"id"`
		} `json:"chatbots"`
		ActiveChatbotId string `json:"active_chatbot_id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &ws))
	require.Len(t, ws.Chatbots, 3)

	status, env = call(t, app, http.MethodPost, "/api/chatbot/v1", token, map[string]string{"name": "Research"})
	require.Equal(t, http.StatusCreated, status, env.Message)
	var bot struct {
		Id string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &bot))

	status, env = call(t, app, http.MethodPost, "/api/chatbot/v1/"+bot.Id+"/messages", token, map[string]string{"message": "hello"})
	require.Equal(t, http.StatusOK, status, env.Message)
	var sent struct {
		SessionId string `json:"session_id"`
		Reply     struct {
			Content string `json:"content"`
		} `json:"reply"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &sent))
	assert.NotEmpty(t, sent.SessionId)
	assert.Equal(t, relay.UnconfiguredReply, sent.Reply.Content)

	status, _ = call(t, app, http.MethodPut, "/api/chatbot/v1/"+bot.Id+"/settings", token, map[string]string{"webhookUrl": "not a url"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = call(t, app, http.MethodDelete, "/api/chatbot/v1/"+bot.Id, token, nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestSignOutRevokesToken(t *testing.T) {
	app := newTestApp(t)
	token := signUp(t, app, "bob")

	status, _ := call(t, app, http.MethodGet, "/api/auth/v1/session", token, nil)
	require.Equal(t, http.StatusOK, status)

	status, _ = call(t, app, http.MethodPost, "/api/auth/v1/sign-out", token, nil)
	require.Equal(t, http.StatusOK, status)

	status, _ = call(t, app, http.MethodGet, "/api/workspace/v1", token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestSignInErrors(t *testing.T) {
	app := newTestApp(t)
	signUp(t, app, "carol")

	status, env := call(t, app, http.MethodPost, "/api/auth/v1/sign-in", "", map[string]string{"username": "carol", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Invalid username or password", env.Message)

	status, env = call(t, app, http.MethodPost, "/api/auth/v1/sign-up", "", map[string]string{"username": "carol", "password": "hunter22"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "An account with this username already exists", env.Message)
}

func TestHealthReportsOfflineGateway(t *testing.T) {
	app := newTestApp(t)

	status, env := call(t, app, http.MethodGet, "/api/health/v1/database", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.False(t, env.Success)
}
