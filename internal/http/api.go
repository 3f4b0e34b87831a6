package http

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"recipe-manager/internal/domain"
	"recipe-manager/internal/errs"
	"recipe-manager/internal/service"
	"recipe-manager/internal/storage"
)

// Handler wires HTTP routes to domain services.
type Handler struct {
	users     service.UserService
	recipes   service.RecipeService
	storage   storage.Service
	bucket    string
	keyPrefix string
	jwtSecret []byte
	tokenTTL  time.Duration
	logger    logrus.FieldLogger
}

func NewHandler(
	users service.UserService,
	recipes service.RecipeService,
	store storage.Service,
	bucket, keyPrefix string,
	jwtSecret string,
	tokenTTL time.Duration,
	logger logrus.FieldLogger,
) *Handler {
	return &Handler{
		users:     users,
		recipes:   recipes,
		storage:   store,
		bucket:    bucket,
		keyPrefix: keyPrefix,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
		logger:    logger,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(corsMiddleware())

	api := router.Group("/api")
	{
		api.POST("/register", h.register)
		api.POST("/login", h.login)

		api.GET("/recipes", h.listRecipes)
		// the q-parameter check deliberately runs before the auth check, so
		// search does its own token handling instead of using authRequired
		api.GET("/recipes/search", h.searchRecipes)
		api.GET("/recipes/:id", h.getRecipe)
		api.GET("/recipes/:id/image", h.getRecipeImage)

		authed := api.Group("", h.authRequired())
		{
			authed.POST("/recipes", h.createRecipe)
			authed.PUT("/recipes/:id", h.updateRecipe)
			authed.DELETE("/recipes/:id", h.deleteRecipe)
			authed.POST("/recipes/:id/ingredients", h.addIngredients)
			authed.POST("/recipes/:id/image", h.uploadRecipeImage)
		}

		api.GET("/health", func(ctx *gin.Context) {
			ctx.JSON(http.StatusOK, gin.H{"ok": "ok"})
		})
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing field(s)"})
		return
	}

	if _, err := h.users.Register(c.Request.Context(), req.Username, req.Email, req.Password); err != nil {
		var ve *errs.ValidationError
		switch {
		case errors.As(err, &ve):
			c.JSON(http.StatusBadRequest, gin.H{"error": ve.Message})
		case errors.Is(err, errs.ErrAlreadyExists):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Username or email already exists"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("An error occurred during registration: %v", err)})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully"})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Username == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing username or password"})
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, errs.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("An error occurred during login: %v", err)})
		return
	}

	token, err := issueToken(h.jwtSecret, user.ID, h.tokenTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("An error occurred during login: %v", err)})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Login successful", "token": token})
}

func (h *Handler) listRecipes(c *gin.Context) {
	page := 1
	if raw, ok := c.GetQuery("page"); ok {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid page value"})
			return
		}
		page = parsed
	}

	recipes, err := h.recipes.List(c.Request.Context(), page)
	if err != nil {
		h.respondRecipeError(c, err, "recipe retrieval", "")
		return
	}
	if len(recipes) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"message": "No recipes found"})
		return
	}

	c.JSON(http.StatusOK, recipesToResponse(recipes))
}

func (h *Handler) getRecipe(c *gin.Context) {
	id, ok := recipeID(c)
	if !ok {
		return
	}

	recipe, err := h.recipes.Get(c.Request.Context(), id)
	if err != nil {
		h.respondRecipeError(c, err, "recipe retrieval", "")
		return
	}

	c.JSON(http.StatusOK, recipeToResponse(*recipe))
}

func (h *Handler) createRecipe(c *gin.Context) {
	callerID, _ := h.callerID(c)

	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON format or empty request body"})
		return
	}

	in, err := service.ParseCreateInput(body)
	if err != nil {
		h.respondRecipeError(c, err, "recipe creation", "")
		return
	}

	recipe, err := h.recipes.Create(c.Request.Context(), in, callerID)
	if err != nil {
		h.respondRecipeError(c, err, "recipe creation", "")
		return
	}

	c.JSON(http.StatusCreated, recipeToResponse(*recipe))
}

func (h *Handler) updateRecipe(c *gin.Context) {
	callerID, _ := h.callerID(c)
	id, ok := recipeID(c)
	if !ok {
		return
	}

	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON format or empty request body"})
		return
	}

	in, err := service.ParseUpdateInput(body)
	if err != nil {
		h.respondRecipeError(c, err, "recipe update", "")
		return
	}

	recipe, err := h.recipes.Update(c.Request.Context(), id, in, callerID)
	if err != nil {
		h.respondRecipeError(c, err, "recipe update", "You are not the creator of this recipe")
		return
	}

	c.JSON(http.StatusOK, recipeToResponse(*recipe))
}

func (h *Handler) deleteRecipe(c *gin.Context) {
	callerID, _ := h.callerID(c)
	id, ok := recipeID(c)
	if !ok {
		return
	}

	if err := h.recipes.Delete(c.Request.Context(), id, callerID); err != nil {
		h.respondRecipeError(c, err, "recipe deletion", "You are not authorized to delete this recipe")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Recipe deleted successfully"})
}

func (h *Handler) addIngredients(c *gin.Context) {
	callerID, _ := h.callerID(c)
	id, ok := recipeID(c)
	if !ok {
		return
	}

	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON format or empty request body"})
		return
	}

	items, err := service.ParseAppendInput(body)
	if err != nil {
		h.respondRecipeError(c, err, "ingredient addition", "")
		return
	}

	recipe, err := h.recipes.AppendIngredients(c.Request.Context(), id, items, callerID)
	if err != nil {
		h.respondRecipeError(c, err, "ingredient addition", "You are not authorized to modify this recipe")
		return
	}

	c.JSON(http.StatusOK, recipeToResponse(*recipe))
}

func (h *Handler) searchRecipes(c *gin.Context) {
	keyword := c.Query("q")
	if keyword == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": `Query parameter "q" is required for search`})
		return
	}

	callerID, ok := h.callerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	recipes, err := h.recipes.Search(c.Request.Context(), keyword, callerID)
	if err != nil {
		h.respondRecipeError(c, err, "search", "")
		return
	}

	// empty search result is a success, unlike the 404 of the list endpoint
	c.JSON(http.StatusOK, recipesToResponse(recipes))
}

func (h *Handler) uploadRecipeImage(c *gin.Context) {
	if h.storage == nil || h.bucket == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage service not configured"})
		return
	}

	callerID, _ := h.callerID(c)
	id, ok := recipeID(c)
	if !ok {
		return
	}

	current, err := h.recipes.Get(c.Request.Context(), id)
	if err != nil {
		h.respondRecipeError(c, err, "image upload", "")
		return
	}
	previous := current.ImageURL

	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Image file is required"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Image file is required"})
		return
	}
	defer file.Close()

	key := fmt.Sprintf("%s/recipes/%d/%s%s", h.keyPrefix, id, uuid.NewString(), filepath.Ext(fileHeader.Filename))
	location, err := h.storage.UploadObject(c.Request.Context(), h.bucket, key, file, fileHeader.Header.Get("Content-Type"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("An error occurred during image upload: %v", err)})
		return
	}

	recipe, err := h.recipes.SetImage(c.Request.Context(), id, callerID, location)
	if err != nil {
		// the row refused the image; drop the uploaded object again
		if delErr := h.storage.DeleteObject(c.Request.Context(), h.bucket, key); delErr != nil {
			h.logger.Warnf("remove orphaned image object %s: %v", key, delErr)
		}
		h.respondRecipeError(c, err, "image upload", "You are not authorized to modify this recipe")
		return
	}

	if bucket, oldKey, ok := storage.ParseLocation(previous); ok && oldKey != key {
		if delErr := h.storage.DeleteObject(c.Request.Context(), bucket, oldKey); delErr != nil {
			h.logger.Warnf("remove replaced image object %s: %v", oldKey, delErr)
		}
	}

	c.JSON(http.StatusOK, recipeToResponse(*recipe))
}

func (h *Handler) getRecipeImage(c *gin.Context) {
	if h.storage == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage service not configured"})
		return
	}

	id, ok := recipeID(c)
	if !ok {
		return
	}

	recipe, err := h.recipes.Get(c.Request.Context(), id)
	if err != nil {
		h.respondRecipeError(c, err, "recipe retrieval", "")
		return
	}

	bucket, key, ok := storage.ParseLocation(recipe.ImageURL)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Recipe image not found"})
		return
	}

	url, err := h.storage.GetObjectURL(c.Request.Context(), bucket, key, 15*time.Minute)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("An error occurred during image retrieval: %v", err)})
		return
	}

	c.Redirect(http.StatusFound, url)
}

func recipeID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recipe id"})
		return 0, false
	}
	return id, true
}

func (h *Handler) respondRecipeError(c *gin.Context, err error, action, forbiddenMsg string) {
	var ve *errs.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Message})
	case errors.Is(err, errs.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Recipe not found"})
	case errors.Is(err, errs.ErrForbidden):
		if forbiddenMsg == "" {
			forbiddenMsg = "You are not authorized to modify this recipe"
		}
		c.JSON(http.StatusForbidden, gin.H{"error": forbiddenMsg})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("An error occurred during %s: %v", action, err)})
	}
}

// RecipeResponse is the serialized recipe shape. Ingredients always carry a
// quantity key, "" when it was never supplied.
type RecipeResponse struct {
	ID           int64               `json:"id"`
	Title        string              `json:"title"`
	Description  string              `json:"description"`
	Ingredients  []domain.Ingredient `json:"ingredients"`
	Instructions string              `json:"instructions"`
	ImageURL     string              `json:"image_url,omitempty"`
	CreatedBy    int64               `json:"created_by"`
	CreatedAt    string              `json:"created_at"`
	UpdatedAt    string              `json:"updated_at"`
}

func recipeToResponse(recipe domain.Recipe) RecipeResponse {
	items := recipe.Ingredients
	if items == nil {
		items = []domain.Ingredient{}
	}
	return RecipeResponse{
		ID:           recipe.ID,
		Title:        recipe.Title,
		Description:  recipe.Description,
		Ingredients:  items,
		Instructions: recipe.Instructions,
		ImageURL:     recipe.ImageURL,
		CreatedBy:    recipe.CreatedBy,
		CreatedAt:    recipe.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    recipe.UpdatedAt.Format(time.RFC3339),
	}
}

func recipesToResponse(recipes []domain.Recipe) []RecipeResponse {
	resp := make([]RecipeResponse, len(recipes))
	for i := range recipes {
		resp[i] = recipeToResponse(recipes[i])
	}
	return resp
}
