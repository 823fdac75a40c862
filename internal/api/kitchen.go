// Package api exposes the dinner assistant over HTTP and websockets.
package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"whatsfordinner/internal/kitchen"
	"whatsfordinner/internal/models"
	"whatsfordinner/internal/monitoring"
)

// KitchenAPI represents the main API handler for the assistant
type KitchenAPI struct {
	Router     *gin.Engine
	controller *kitchen.Controller
	tokens     *TokenIssuer
	monitor    *monitoring.Monitor
	log        logrus.FieldLogger
}

// ActionResponse is the body of every action endpoint. View is present
// whenever the session exists, including alongside an error.
type ActionResponse struct {
	View  *kitchen.View `json:"view,omitempty"`
	Error *ErrorBody    `json:"error,omitempty"`
}

// SessionResponse is returned when a session is created.
type SessionResponse struct {
	Token string       `json:"token"`
	View  kitchen.View `json:"view"`
}

// ErrorBody describes a failed action.
type ErrorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// NewKitchenAPI creates a new API instance with all routes registered
func NewKitchenAPI(controller *kitchen.Controller, tokens *TokenIssuer, monitor *monitoring.Monitor, log logrus.FieldLogger) *KitchenAPI {
	router := gin.New()
	// Ingredient names travel as path segments and may contain an escaped "/".
	router.UseRawPath = true
	router.Use(gin.Recovery(), RequestLogger(log))

	api := &KitchenAPI{
		Router:     router,
		controller: controller,
		tokens:     tokens,
		monitor:    monitor,
		log:        log,
	}

	api.setupRoutes()
	return api
}

// setupRoutes configures all API endpoints
func (k *KitchenAPI) setupRoutes() {
	k.Router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "What's for dinner API is running"})
	})

	k.Router.GET("/ws", k.RequireSession(), k.handleWebSocket)

	v1 := k.Router.Group("/api/v1")
	{
		v1.POST("/sessions", k.CreateSession)
		v1.GET("/catalog", k.GetCatalog)
		v1.GET("/stats", k.GetStats)

		s := v1.Group("", k.RequireSession())

		s.GET("/view", k.GetView)
		s.DELETE("/sessions", k.EndSession)
		s.POST("/navigate", k.Navigate)

		// Fridge
		s.POST("/fridge/items", k.AddIngredient)
		s.POST("/fridge/items/:name/increment", k.IncrementIngredient)
		s.POST("/fridge/items/:name/decrement", k.DecrementIngredient)

		// Preferences
		s.PUT("/preferences", k.SavePreferences)
		s.POST("/preferences/notes", k.QuickAddNote)

		// Recipes
		s.POST("/recipes/generate", k.GenerateRecipes)
		s.POST("/recipes/instructions", k.ViewInstructions)
	}
}

// Session handlers

func (k *KitchenAPI) CreateSession(c *gin.Context) {
	st, view, err := k.controller.StartSession(c.Request.Context())
	if err != nil {
		loggerFrom(c).WithError(err).Error("failed to start session")
		c.JSON(http.StatusInternalServerError, errorResponse(models.ErrorKind(err), err.Error()))
		return
	}

	token, err := k.tokens.Issue(st.ID)
	if err != nil {
		loggerFrom(c).WithError(err).Error("failed to issue session token")
		c.JSON(http.StatusInternalServerError, errorResponse("error", err.Error()))
		return
	}

	c.JSON(http.StatusCreated, SessionResponse{Token: token, View: view})
}

func (k *KitchenAPI) EndSession(c *gin.Context) {
	if err := k.controller.EndSession(c.Request.Context(), sessionID(c)); err != nil {
		c.JSON(statusFor(err), errorResponse(models.ErrorKind(err), err.Error()))
		return
	}
	c.Status(http.StatusNoContent)
}

func (k *KitchenAPI) GetView(c *gin.Context) {
	k.dispatch(c, kitchen.Action{Type: kitchen.ActionView})
}

// Action handlers

type navigateRequest struct {
	Page string `json:"page"`
}

func (k *KitchenAPI) Navigate(c *gin.Context) {
	var req navigateRequest
	if !k.bind(c, &req) {
		return
	}
	k.dispatch(c, kitchen.Action{Type: kitchen.ActionNavigate, Page: req.Page})
}

type ingredientRequest struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

func (k *KitchenAPI) AddIngredient(c *gin.Context) {
	var req ingredientRequest
	if !k.bind(c, &req) {
		return
	}
	k.dispatch(c, kitchen.Action{Type: kitchen.ActionAddIngredient, Name: req.Name, Quantity: req.Quantity})
}

func (k *KitchenAPI) IncrementIngredient(c *gin.Context) {
	k.dispatch(c, kitchen.Action{Type: kitchen.ActionIncrement, Name: c.Param("name")})
}

func (k *KitchenAPI) DecrementIngredient(c *gin.Context) {
	k.dispatch(c, kitchen.Action{Type: kitchen.ActionDecrement, Name: c.Param("name")})
}

type preferencesRequest struct {
	Text        string   `json:"text"`
	Tools       []string `json:"tools"`
	CookingTime string   `json:"cooking_time"`
}

func (k *KitchenAPI) SavePreferences(c *gin.Context) {
	var req preferencesRequest
	if !k.bind(c, &req) {
		return
	}
	k.dispatch(c, kitchen.Action{
		Type:        kitchen.ActionSavePreferences,
		Text:        req.Text,
		Tools:       req.Tools,
		CookingTime: req.CookingTime,
	})
}

type noteRequest struct {
	Note string `json:"note"`
}

func (k *KitchenAPI) QuickAddNote(c *gin.Context) {
	var req noteRequest
	if !k.bind(c, &req) {
		return
	}
	k.dispatch(c, kitchen.Action{Type: kitchen.ActionQuickNote, Note: req.Note})
}

type generateRequest struct {
	Ingredients []string `json:"ingredients"`
	Creative    bool     `json:"creative"`
}

func (k *KitchenAPI) GenerateRecipes(c *gin.Context) {
	var req generateRequest
	if !k.bind(c, &req) {
		return
	}
	k.dispatch(c, kitchen.Action{
		Type:        kitchen.ActionGenerate,
		Ingredients: req.Ingredients,
		Creative:    req.Creative,
	})
}

type instructionsRequest struct {
	Recipe      string   `json:"recipe"`
	Ingredients []string `json:"ingredients"`
}

func (k *KitchenAPI) ViewInstructions(c *gin.Context) {
	var req instructionsRequest
	if !k.bind(c, &req) {
		return
	}
	k.dispatch(c, kitchen.Action{
		Type:        kitchen.ActionInstructions,
		Recipe:      req.Recipe,
		Ingredients: req.Ingredients,
	})
}

// Read-only handlers

func (k *KitchenAPI) GetCatalog(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"pages":         models.Pages,
		"tools":         models.ToolCatalog,
		"cooking_times": models.CookingTimes,
		"quick_notes":   models.QuickNotes,
	})
}

func (k *KitchenAPI) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, k.monitor.GetMetrics())
}

// dispatch runs an action for the request's session and writes the result.
func (k *KitchenAPI) dispatch(c *gin.Context, a kitchen.Action) {
	view, err := k.controller.Dispatch(c.Request.Context(), sessionID(c), a)
	c.JSON(statusFor(err), actionResponse(view, err))
}

// bind decodes the JSON body. A malformed body is answered with the current
// view and a validation error.
func (k *KitchenAPI) bind(c *gin.Context, req interface{}) bool {
	err := c.ShouldBindJSON(req)
	if err == nil {
		return true
	}

	invalid := models.Invalid("body", "malformed request: %v", err)
	view, viewErr := k.controller.Snapshot(c.Request.Context(), sessionID(c))
	if viewErr != nil {
		c.JSON(statusFor(viewErr), actionResponse(view, viewErr))
		return false
	}
	c.JSON(http.StatusBadRequest, actionResponse(view, invalid))
	return false
}

func actionResponse(view kitchen.View, err error) ActionResponse {
	resp := ActionResponse{}
	if view.Page != "" {
		resp.View = &view
	}
	if err != nil {
		resp.Error = errorBody(err)
	}
	return resp
}

func errorResponse(kind, message string) ActionResponse {
	return ActionResponse{Error: &ErrorBody{Kind: kind, Message: message}}
}

func errorBody(err error) *ErrorBody {
	body := &ErrorBody{Kind: models.ErrorKind(err), Message: err.Error()}
	var validationErr *models.ValidationError
	if errors.As(err, &validationErr) {
		body.Field = validationErr.Field
		body.Message = validationErr.Message
	}
	return body
}

// statusFor maps an action error to its HTTP status.
func statusFor(err error) int {
	switch models.ErrorKind(err) {
	case "ok":
		return http.StatusOK
	case "validation":
		return http.StatusBadRequest
	case "parse":
		return http.StatusUnprocessableEntity
	case "completion":
		return http.StatusBadGateway
	case "not_found":
		return http.StatusNotFound
	case "expired":
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
