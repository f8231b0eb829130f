package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"stockbrain-system/internal/database/models"
	"stockbrain-system/internal/gateway/middleware"
)

const (
	QUOTE_CATEGORIES_CACHE_KEY = "motivation:categories"
	CACHE_TTL_LONG             = 2 * time.Hour
)

// MotivationHandler serves the quote-of-the-day widget.
type MotivationHandler struct {
	db    *gorm.DB
	redis *redis.Client
}

func NewMotivationHandler(db *gorm.DB, redisClient *redis.Client) *MotivationHandler {
	return &MotivationHandler{
		db:    db,
		redis: redisClient,
	}
}

func (s *MotivationHandler) success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
	})
}

func (s *MotivationHandler) error(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{
		"success": false,
		"error":   message,
	})
}

// RandomQuote picks one quote at random, optionally within a category.
func (s *MotivationHandler) RandomQuote(c *gin.Context) {
	query := s.db.Model(&models.Quote{}).Preload("Category")

	if category := c.Query("category"); category != "" {
		query = query.Joins("JOIN quote_categories ON quote_categories.id = quotes.category_id").
			Where("lower(quote_categories.name) = lower(?)", category)
	}

	var quote models.Quote
	if err := query.Order("RANDOM()").First(&quote).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			s.error(c, http.StatusNotFound, "No quotes available")
			return
		}
		s.error(c, http.StatusInternalServerError, "Database error")
		return
	}

	view := gin.H{
		"id":   quote.ID,
		"text": quote.Text,
	}
	if quote.Category != nil {
		view["category"] = quote.Category.Name
	}
	s.success(c, view)
}

func (s *MotivationHandler) ListCategories(c *gin.Context) {
	ctx := c.Request.Context()

	if cached, err := s.redis.Get(ctx, QUOTE_CATEGORIES_CACHE_KEY).Result(); err == nil {
		var categories []models.QuoteCategory
		if json.Unmarshal([]byte(cached), &categories) == nil {
			s.success(c, categories)
			return
		}
	}

	var categories []models.QuoteCategory
	if err := s.db.Order("name ASC").Find(&categories).Error; err != nil {
		s.error(c, http.StatusInternalServerError, "Database error")
		return
	}

	if payload, err := json.Marshal(categories); err == nil {
		_ = s.redis.Set(ctx, QUOTE_CATEGORIES_CACHE_KEY, payload, CACHE_TTL_LONG)
	}

	s.success(c, categories)
}

type categoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (s *MotivationHandler) CreateCategory(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.error(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		s.error(c, http.StatusBadRequest, "Name is required")
		return
	}

	category := models.QuoteCategory{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
	}
	if err := s.db.Create(&category).Error; err != nil {
		s.error(c, http.StatusInternalServerError, "Error creating category")
		return
	}

	_ = s.redis.Del(c.Request.Context(), QUOTE_CATEGORIES_CACHE_KEY)
	s.success(c, category)
}

type quoteRequest struct {
	CategoryID int32  `json:"category_id"`
	Text       string `json:"text"`
}

func (s *MotivationHandler) CreateQuote(c *gin.Context) {
	claims := middleware.CurrentClaims(c)
	if claims == nil {
		s.error(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req quoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.error(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		s.error(c, http.StatusBadRequest, "Text is required")
		return
	}

	var category models.QuoteCategory
	if err := s.db.First(&category, req.CategoryID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			s.error(c, http.StatusBadRequest, "Unknown category")
			return
		}
		s.error(c, http.StatusInternalServerError, "Database error")
		return
	}

	quote := models.Quote{
		CategoryID: req.CategoryID,
		CreatedBy:  claims.UserId,
		Text:       strings.TrimSpace(req.Text),
	}
	if err := s.db.Create(&quote).Error; err != nil {
		s.error(c, http.StatusInternalServerError, "Error creating quote")
		return
	}

	s.success(c, gin.H{"id": quote.ID, "text": quote.Text, "category": category.Name})
}
