package controller_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunrunnn/SageSparke/config"
	"github.com/sunrunnn/SageSparke/controller"
	"github.com/sunrunnn/SageSparke/dao"
	"github.com/sunrunnn/SageSparke/logic"
	"github.com/sunrunnn/SageSparke/middleware"
	"github.com/sunrunnn/SageSparke/models"
)

type echoProvider struct {
	reply string
}

func (p *echoProvider) Generate(_ context.Context, _ []models.Message) (string, error) {
	return p.reply, nil
}

func (p *echoProvider) SummarizeTitle(_ context.Context, _ string) (string, error) {
	return "Test Title", nil
}

func newTestServer(t *testing.T) (*httptest.Server, *logic.Hub) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	config.GlobalConfig.Auth.Secret = "test-secret"
	config.GlobalConfig.Auth.ExpHour = 1

	userLogic := logic.NewUserLogic(dao.NewMemoryUserStore())
	hub := logic.NewHub(dao.NewMemoryConversationStore(), func() logic.ConversationStore {
		return dao.NewMemoryConversationStore()
	}, &echoProvider{reply: "echoed reply"})

	userCtrl := controller.NewUserController(userLogic)
	convoCtrl := controller.NewConversationController(hub)
	messageCtrl := controller.NewMessageController(hub)

	r := gin.New()
	secret := config.GlobalConfig.Auth.Secret
	api := r.Group("/api", middleware.Session(secret))
	api.POST("/signup", userCtrl.Signup)
	api.POST("/login", userCtrl.Login)
	api.POST("/logout", userCtrl.Logout)
	api.GET("/user", middleware.Auth(secret), userCtrl.GetUser)
	api.GET("/conversations", convoCtrl.GetConversations)
	api.POST("/conversations", convoCtrl.CreateConversation)
	api.PUT("/conversations/:id", convoCtrl.UpdateConversation)
	api.DELETE("/conversations/:id", convoCtrl.DeleteConversation)
	api.POST("/conversations/:id/select", convoCtrl.SelectConversation)
	api.GET("/conversations/:id/messages", messageCtrl.GetMessages)
	api.POST("/conversations/:id/messages", messageCtrl.SendMessage)
	api.PUT("/conversations/:id/messages/:messageId", messageCtrl.EditMessage)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	t.Cleanup(hub.Wait)
	return srv, hub
}

func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func TestGuestChatFlow(t *testing.T) {
	srv, hub := newTestServer(t)
	client := newClient(t)

	// First request mints a guest session and a fresh conversation.
	resp, body := doJSON(t, client, http.MethodPost, srv.URL+"/api/conversations/new/messages",
		gin.H{"text": "hello from a guest"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	convoID, _ := body["conversation_id"].(string)
	require.NotEmpty(t, convoID)
	msg := body["message"].(map[string]any)
	assert.Equal(t, models.RoleAssistant, msg["role"])
	assert.Equal(t, "echoed reply", msg["content"])
	hub.Wait()

	// The conversation shows up in the list with its derived title.
	resp, body = doJSON(t, client, http.MethodGet, srv.URL+"/api/conversations", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	convos := body["conversations"].([]any)
	require.Len(t, convos, 1)
	first := convos[0].(map[string]any)
	assert.Equal(t, convoID, first["id"])
	assert.Equal(t, "hello from a guest", first["title"])
	assert.Equal(t, convoID, body["active_id"])

	// Message history round-trips.
	resp, body = doJSON(t, client, http.MethodGet, srv.URL+"/api/conversations/"+convoID+"/messages", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	msgs := body["messages"].([]any)
	require.Len(t, msgs, 2)

	// Rename and delete.
	resp, _ = doJSON(t, client, http.MethodPut, srv.URL+"/api/conversations/"+convoID,
		gin.H{"title": "Renamed"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, client, http.MethodDelete, srv.URL+"/api/conversations/"+convoID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = doJSON(t, client, http.MethodGet, srv.URL+"/api/conversations", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, body["conversations"])
}

func TestGuestsAreIsolated(t *testing.T) {
	srv, _ := newTestServer(t)
	alice := newClient(t)
	mallory := newClient(t)

	resp, body := doJSON(t, alice, http.MethodPost, srv.URL+"/api/conversations/new/messages",
		gin.H{"text": "private note"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	convoID := body["conversation_id"].(string)

	// Another guest cannot see or touch the conversation.
	resp, _ = doJSON(t, mallory, http.MethodGet, srv.URL+"/api/conversations/"+convoID+"/messages", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = doJSON(t, mallory, http.MethodGet, srv.URL+"/api/conversations", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, body["conversations"])
}

func TestSignupLoginLogout(t *testing.T) {
	srv, _ := newTestServer(t)
	client := newClient(t)

	resp, body := doJSON(t, client, http.MethodPost, srv.URL+"/api/signup",
		gin.H{"username": "alice", "password": "secret123"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "alice", body["username"])
	assert.NotContains(t, body, "password_hash")

	// Session cookie from signup authenticates /api/user.
	resp, body = doJSON(t, client, http.MethodGet, srv.URL+"/api/user", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "alice", body["username"])

	resp, _ = doJSON(t, client, http.MethodPost, srv.URL+"/api/logout", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = doJSON(t, client, http.MethodGet, srv.URL+"/api/user", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Fresh client can log back in.
	other := newClient(t)
	resp, _ = doJSON(t, other, http.MethodPost, srv.URL+"/api/login",
		gin.H{"username": "alice", "password": "secret123"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = doJSON(t, other, http.MethodGet, srv.URL+"/api/user", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, other, http.MethodPost, srv.URL+"/api/login",
		gin.H{"username": "alice", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = doJSON(t, other, http.MethodPost, srv.URL+"/api/signup",
		gin.H{"username": "alice", "password": "another6"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestUserConversationsSurviveRelogin(t *testing.T) {
	srv, hub := newTestServer(t)
	client := newClient(t)

	resp, _ := doJSON(t, client, http.MethodPost, srv.URL+"/api/signup",
		gin.H{"username": "bob", "password": "secret123"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := doJSON(t, client, http.MethodPost, srv.URL+"/api/conversations/new/messages",
		gin.H{"text": "remember me"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	convoID := body["conversation_id"].(string)
	hub.Wait()

	// A brand new client logging in sees the same conversation.
	other := newClient(t)
	resp, _ = doJSON(t, other, http.MethodPost, srv.URL+"/api/login",
		gin.H{"username": "bob", "password": "secret123"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = doJSON(t, other, http.MethodGet, srv.URL+"/api/conversations", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	convos := body["conversations"].([]any)
	require.Len(t, convos, 1)
	assert.Equal(t, convoID, convos[0].(map[string]any)["id"])
}

func TestMessageValidationAndErrors(t *testing.T) {
	srv, _ := newTestServer(t)
	client := newClient(t)

	// Missing text.
	resp, _ := doJSON(t, client, http.MethodPost, srv.URL+"/api/conversations/new/messages", gin.H{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Malformed conversation id.
	resp, _ = doJSON(t, client, http.MethodGet, srv.URL+"/api/conversations/not-a-uuid/messages", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Unknown conversation id.
	unknown := "00000000-0000-0000-0000-000000000001"
	resp, _ = doJSON(t, client, http.MethodPost,
		fmt.Sprintf("%s/api/conversations/%s/messages", srv.URL, unknown),
		gin.H{"text": "hello"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = doJSON(t, client, http.MethodDelete, srv.URL+"/api/conversations/"+unknown, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestEditMessageEndpoint(t *testing.T) {
	srv, hub := newTestServer(t)
	client := newClient(t)

	resp, body := doJSON(t, client, http.MethodPost, srv.URL+"/api/conversations/new/messages",
		gin.H{"text": "first version of the question"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	convoID := body["conversation_id"].(string)
	hub.Wait()

	resp, body = doJSON(t, client, http.MethodGet, srv.URL+"/api/conversations/"+convoID+"/messages", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	msgs := body["messages"].([]any)
	require.Len(t, msgs, 2)
	userMsgID := msgs[0].(map[string]any)["id"].(string)

	resp, body = doJSON(t, client, http.MethodPut,
		fmt.Sprintf("%s/api/conversations/%s/messages/%s", srv.URL, convoID, userMsgID),
		gin.H{"text": "second version"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	msg := body["message"].(map[string]any)
	assert.Equal(t, "echoed reply", msg["content"])

	resp, body = doJSON(t, client, http.MethodGet, srv.URL+"/api/conversations/"+convoID+"/messages", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	msgs = body["messages"].([]any)
	require.Len(t, msgs, 2)
	assert.Equal(t, "second version", msgs[0].(map[string]any)["content"])
}
