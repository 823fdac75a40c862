package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"whatsfordinner/internal/agents"
	"whatsfordinner/internal/kitchen"
	"whatsfordinner/internal/models"
	"whatsfordinner/internal/models/providers/providerstest"
	"whatsfordinner/internal/monitoring"
	"whatsfordinner/internal/session"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	api       *KitchenAPI
	completer *providerstest.MockCompleter
	token     string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	completer := new(providerstest.MockCompleter)
	metrics := monitoring.NewMetrics()
	monitor := monitoring.NewMonitor()
	chef := agents.NewChef(completer, 5, metrics, monitor, log)
	ctrl := kitchen.NewController(session.NewMemoryStore(time.Hour, log), chef, metrics, monitor, 50, log)

	ts := &testServer{
		api:       NewKitchenAPI(ctrl, NewTokenIssuer("test-secret"), monitor, log),
		completer: completer,
	}

	rec := ts.do(t, http.MethodPost, "/api/v1/sessions", nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEmpty(t, created.Token)
	assert.Equal(t, models.PageHome, created.View.Page)
	ts.token = created.Token
	return ts
}

func (ts *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if ts.token != "" {
		req.Header.Set(SessionTokenHeader, ts.token)
	}

	rec := httptest.NewRecorder()
	ts.api.Router.ServeHTTP(rec, req)
	return rec
}

func decodeAction(t *testing.T, rec *httptest.ResponseRecorder) ActionResponse {
	t.Helper()
	var resp ActionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
}

func TestRequireSession(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name   string
		header string
		value  string
		want   int
	}{
		{name: "missing token", want: http.StatusUnauthorized},
		{name: "garbage token", header: SessionTokenHeader, value: "abc", want: http.StatusUnauthorized},
		{name: "bearer token", header: "Authorization", value: "Bearer " + ts.token, want: http.StatusOK},
		{name: "session header", header: SessionTokenHeader, value: ts.token, want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/view", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			rec := httptest.NewRecorder()
			ts.api.Router.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestTokenFromAnotherSecretIsRejected(t *testing.T) {
	ts := newTestServer(t)
	forged, err := NewTokenIssuer("other-secret").Issue("whatever")
	require.NoError(t, err)

	ts.token = forged
	rec := ts.do(t, http.MethodGet, "/api/v1/view", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestFridgeFlow(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/v1/navigate", gin.H{"page": "fridge"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/v1/fridge/items", gin.H{"name": "Green Pepper", "quantity": 2})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/v1/fridge/items/Green%20Pepper/increment", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeAction(t, rec)
	require.NotNil(t, resp.View)
	require.NotNil(t, resp.View.Fridge)
	assert.Equal(t, []models.InventoryItem{{Name: "Green Pepper", Quantity: 3}}, resp.View.Fridge.Items)

	rec = ts.do(t, http.MethodPost, "/api/v1/fridge/items", gin.H{"name": "Egg", "quantity": 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp = decodeAction(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "validation", resp.Error.Kind)
	assert.Equal(t, "quantity", resp.Error.Field)
	require.NotNil(t, resp.View, "errors still carry the view")
	assert.Len(t, resp.View.Fridge.Items, 1)
}

func TestMalformedBody(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/navigate", strings.NewReader("{"))
	req.Header.Set(SessionTokenHeader, ts.token)
	rec := httptest.NewRecorder()
	ts.api.Router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeAction(t, rec)
	require.NotNil(t, resp.View)
	assert.Equal(t, models.PageHome, resp.View.Page)
}

func TestSavePreferences(t *testing.T) {
	ts := newTestServer(t)
	ts.do(t, http.MethodPost, "/api/v1/navigate", gin.H{"page": "preferences"})
	ts.do(t, http.MethodPost, "/api/v1/preferences/notes", gin.H{"note": "healthy"})

	rec := ts.do(t, http.MethodPut, "/api/v1/preferences", gin.H{
		"text":         "Likes spicy food",
		"tools":        []string{"Oven", "Blender"},
		"cooking_time": "30 mins",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeAction(t, rec)
	assert.Equal(t, models.PageHome, resp.View.Page)

	rec = ts.do(t, http.MethodPost, "/api/v1/navigate", gin.H{"page": "preferences"})
	resp = decodeAction(t, rec)
	require.NotNil(t, resp.View.Preferences)
	assert.Equal(t, models.Preferences{
		Text:        "Likes spicy food",
		Tools:       models.StringSlice{"Oven", "Blender"},
		CookingTime: models.CookingTime30Mins,
	}, resp.View.Preferences.Preferences)
}

func TestGenerateAndInstructions(t *testing.T) {
	ts := newTestServer(t)
	ts.do(t, http.MethodPost, "/api/v1/fridge/items", gin.H{"name": "Egg", "quantity": 4})
	ts.do(t, http.MethodPost, "/api/v1/navigate", gin.H{"page": "recipes"})

	rec := ts.do(t, http.MethodPost, "/api/v1/recipes/generate", gin.H{"ingredients": []string{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, kitchen.EmptySelectionError, decodeAction(t, rec).Error.Message)
	ts.completer.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	ts.completer.On("Complete", mock.Anything, mock.Anything, agents.RecipeListMaxTokens, mock.Anything).
		Return("```json\n{\"recipes\":[{\"name\":\"Egg Fried Rice\",\"description\":\"Classic\"}]}\n```", nil).Once()
	rec = ts.do(t, http.MethodPost, "/api/v1/recipes/generate", gin.H{"ingredients": []string{"Egg"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decodeAction(t, rec)
	assert.Equal(t, []models.RecipeSuggestion{{Name: "Egg Fried Rice", Description: "Classic"}}, resp.View.Recipes.Recipes)

	ts.completer.On("Complete", mock.Anything, mock.Anything, agents.InstructionsMaxTokens, agents.InstructionsTemperature).
		Return("1. Scramble.", nil).Once()
	rec = ts.do(t, http.MethodPost, "/api/v1/recipes/instructions", gin.H{"recipe": "Egg Fried Rice"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp = decodeAction(t, rec)
	require.NotNil(t, resp.View.Instructions)
	assert.Equal(t, "1. Scramble.", resp.View.Instructions.Text)

	rec = ts.do(t, http.MethodGet, "/api/v1/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var stats map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, "ok", stats["recipes_last_outcome"])
	assert.Equal(t, "ok", stats["instructions_last_outcome"])
}

func TestInstructionsForNameWithSlash(t *testing.T) {
	ts := newTestServer(t)
	ts.do(t, http.MethodPost, "/api/v1/navigate", gin.H{"page": "fridge"})
	ts.do(t, http.MethodPost, "/api/v1/fridge/items", gin.H{"name": "Egg", "quantity": 4})
	ts.do(t, http.MethodPost, "/api/v1/fridge/items", gin.H{"name": "Salt/Pepper", "quantity": 1})

	rec := ts.do(t, http.MethodPost, "/api/v1/fridge/items/"+url.PathEscape("Salt/Pepper")+"/increment", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, decodeAction(t, rec).View.Fridge.Items, models.InventoryItem{Name: "Salt/Pepper", Quantity: 2})

	ts.completer.On("Complete", mock.Anything, mock.Anything, agents.RecipeListMaxTokens, mock.Anything).
		Return(`{"recipes":[{"name":"Salt/Pepper Eggs","description":"Seasoned"}]}`, nil).Once()
	rec = ts.do(t, http.MethodPost, "/api/v1/recipes/generate", gin.H{"ingredients": []string{"Egg", "Salt/Pepper"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	ts.completer.On("Complete", mock.Anything, mock.Anything, agents.InstructionsMaxTokens, agents.InstructionsTemperature).
		Return("1. Season.", nil).Once()
	rec = ts.do(t, http.MethodPost, "/api/v1/recipes/instructions", gin.H{
		"recipe":      "Salt/Pepper Eggs",
		"ingredients": []string{"Egg"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decodeAction(t, rec)
	require.NotNil(t, resp.View.Instructions)
	assert.Equal(t, "Salt/Pepper Eggs", resp.View.Instructions.Recipe)
	assert.Equal(t, "1. Season.", resp.View.Instructions.Text)
	assert.Contains(t, ts.completer.LastUserPrompt(), "Salt/Pepper Eggs")
	ts.completer.AssertExpectations(t)
}

func TestGenerateErrorStatuses(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		err   error
		want  int
	}{
		{name: "completion failure", err: &models.CompletionError{Err: errors.New("unavailable")}, want: http.StatusBadGateway},
		{name: "unparseable reply", reply: "Sorry, I cannot help.", want: http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			ts.do(t, http.MethodPost, "/api/v1/fridge/items", gin.H{"name": "Egg", "quantity": 1})
			ts.completer.On("Complete", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(tt.reply, tt.err)

			rec := ts.do(t, http.MethodPost, "/api/v1/recipes/generate", gin.H{"ingredients": []string{"Egg"}})
			assert.Equal(t, tt.want, rec.Code)
			resp := decodeAction(t, rec)
			require.NotNil(t, resp.View)
			require.NotNil(t, resp.Error)
		})
	}
}

func TestCatalog(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/api/v1/catalog", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var catalog struct {
		Tools        []string `json:"tools"`
		CookingTimes []string `json:"cooking_times"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &catalog))
	assert.Equal(t, models.ToolCatalog, catalog.Tools)
	assert.Equal(t, []string{"Any", "15 mins", "30 mins", "1 hour", "1.5 hours+"}, catalog.CookingTimes)
}

func TestEndSession(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodDelete, "/api/v1/sessions", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/v1/view", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Nil(t, decodeAction(t, rec).View)
}

func TestWebSocketActions(t *testing.T) {
	ts := newTestServer(t)
	srv := httptest.NewServer(ts.api.Router)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + url.QueryEscape(ts.token)
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	read := func() ActionResponse {
		t.Helper()
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		var resp ActionResponse
		require.NoError(t, conn.ReadJSON(&resp))
		return resp
	}

	initial := read()
	require.NotNil(t, initial.View)
	assert.Equal(t, models.PageHome, initial.View.Page)

	require.NoError(t, conn.WriteJSON(kitchen.Action{Type: kitchen.ActionNavigate, Page: "fridge"}))
	resp := read()
	assert.Nil(t, resp.Error)
	assert.Equal(t, models.PageFridge, resp.View.Page)

	require.NoError(t, conn.WriteJSON(kitchen.Action{Type: kitchen.ActionAddIngredient, Name: "Leek", Quantity: 2}))
	resp = read()
	assert.Equal(t, []models.InventoryItem{{Name: "Leek", Quantity: 2}}, resp.View.Fridge.Items)

	require.NoError(t, conn.WriteJSON(kitchen.Action{Type: kitchen.ActionNavigate, Page: "attic"}))
	resp = read()
	require.NotNil(t, resp.Error)
	assert.Equal(t, "validation", resp.Error.Kind)
	assert.Equal(t, models.PageFridge, resp.View.Page)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	resp = read()
	require.NotNil(t, resp.Error)
	assert.Equal(t, "frame", resp.Error.Field)

	ts.completer.On("Complete", mock.Anything, mock.Anything, agents.RecipeListMaxTokens, mock.Anything).
		Return(`{"recipes":[{"name":"Leek Soup"}]}`, nil).Once()
	require.NoError(t, conn.WriteJSON(kitchen.Action{Type: kitchen.ActionGenerate, Ingredients: []string{"Leek"}}))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{")))
	require.NoError(t, conn.WriteJSON(kitchen.Action{Type: kitchen.ActionNavigate, Page: "home"}))

	resp = read()
	require.Nil(t, resp.Error, "the generate reply comes first")
	assert.Equal(t, "Generated 1 recipes", resp.View.Notice)
	resp = read()
	require.NotNil(t, resp.Error)
	assert.Equal(t, "frame", resp.Error.Field)
	resp = read()
	assert.Nil(t, resp.Error)
	assert.Equal(t, models.PageHome, resp.View.Page)
}

func TestWebSocketRequiresLiveSession(t *testing.T) {
	ts := newTestServer(t)
	token, err := ts.api.tokens.Issue("no-such-session")
	require.NoError(t, err)

	srv := httptest.NewServer(ts.api.Router)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + url.QueryEscape(token)
	_, resp, err := websocket.DefaultDialer.DialContext(context.Background(), wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
