package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"stockbrain-system/internal/database/models"
	"stockbrain-system/internal/gateway/middleware"
	"stockbrain-system/internal/utils"
)

type UserHandler struct {
	db       *gorm.DB
	redis    *redis.Client
	tokenTTL time.Duration
}

func NewUserHandler(db *gorm.DB, redisClient *redis.Client, tokenTTL time.Duration) *UserHandler {
	return &UserHandler{
		db:       db,
		redis:    redisClient,
		tokenTTL: tokenTTL,
	}
}

func (s *UserHandler) success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
	})
}

func (s *UserHandler) error(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{
		"success": false,
		"error":   message,
	})
}

func userView(user models.User) gin.H {
	view := gin.H{
		"id":         user.ID,
		"username":   user.Username,
		"email":      user.Email,
		"firstname":  user.Firstname,
		"lastname":   user.Lastname,
		"roles":      user.Roles,
		"is_active":  user.IsActive,
		"last_login": user.LastLogin,
	}
	if user.Profile != nil {
		view["profile"] = gin.H{
			"preferred_name":      user.Profile.PreferredName,
			"prefer_dark_theme":   user.Profile.PreferDarkTheme,
			"after_login_goto_wl": user.Profile.AfterLoginGoToWL,
			"previous_login":      user.Profile.PreviousLogin,
		}
	}
	return view
}

type registerRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
}

func (s *UserHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.error(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		s.error(c, http.StatusBadRequest, "Username, email and password are required")
		return
	}

	var existingUser models.User
	if err := s.db.Where("username = ? OR email = ?", req.Username, req.Email).First(&existingUser).Error; err == nil {
		s.error(c, http.StatusConflict, "Username or email already exists")
		return
	} else if err != gorm.ErrRecordNotFound {
		s.error(c, http.StatusInternalServerError, "Database error")
		return
	}

	pwHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.error(c, http.StatusInternalServerError, "Error hashing password")
		return
	}

	newUser := models.User{
		Username:  req.Username,
		Email:     req.Email,
		Password:  string(pwHash),
		Firstname: req.Firstname,
		Lastname:  req.Lastname,
		Roles:     models.StringArray{},
		IsActive:  true,
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Create(&newUser).Error; err != nil {
		tx.Rollback()
		s.error(c, http.StatusInternalServerError, "Error creating user")
		return
	}
	profile := models.UserProfile{
		UserID:           newUser.ID,
		PreferDarkTheme:  true,
		AfterLoginGoToWL: true,
	}
	if err := tx.Create(&profile).Error; err != nil {
		tx.Rollback()
		s.error(c, http.StatusInternalServerError, "Error creating user profile")
		return
	}
	tx.Commit()

	token, exp, err := utils.GenerateToken(newUser.ID, newUser.Username, newUser.Roles, s.tokenTTL)
	if err != nil {
		s.error(c, http.StatusInternalServerError, "Error generating token")
		return
	}

	newUser.Profile = &profile
	s.success(c, gin.H{
		"token":      token,
		"expires_at": exp,
		"user":       userView(newUser),
	})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *UserHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.error(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	var user models.User
	if err := s.db.Preload("Profile").Where("username = ?", req.Username).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			s.error(c, http.StatusUnauthorized, "Invalid username or password")
			return
		}
		s.error(c, http.StatusInternalServerError, "Database error")
		return
	}

	if !user.IsActive {
		s.error(c, http.StatusForbidden, "Account is disabled")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		s.error(c, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	token, exp, err := utils.GenerateToken(user.ID, user.Username, user.Roles, s.tokenTTL)
	if err != nil {
		s.error(c, http.StatusInternalServerError, "Error generating token")
		return
	}

	// The profile keeps the previous login so the UI can show "last seen",
	// while LastLogin tracks this one.
	now := time.Now()
	if user.Profile != nil {
		user.Profile.PreviousLogin = user.LastLogin
		s.db.Save(user.Profile)
	}
	user.LastLogin = &now
	s.db.Save(&user)

	s.success(c, gin.H{
		"token":      token,
		"expires_at": exp,
		"user":       userView(user),
	})
}

func (s *UserHandler) Me(c *gin.Context) {
	claims := middleware.CurrentClaims(c)
	if claims == nil {
		s.error(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	var user models.User
	if err := s.db.Preload("Profile").First(&user, claims.UserId).Error; err != nil {
		s.error(c, http.StatusUnauthorized, "User not found")
		return
	}

	s.success(c, userView(user))
}

type profileRequest struct {
	PreferredName    *string `json:"preferred_name"`
	PreferDarkTheme  *bool   `json:"prefer_dark_theme"`
	AfterLoginGoToWL *bool   `json:"after_login_goto_wl"`
}

func (s *UserHandler) UpdateProfile(c *gin.Context) {
	claims := middleware.CurrentClaims(c)
	if claims == nil {
		s.error(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.error(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	profile := models.UserProfile{UserID: claims.UserId}
	if err := s.db.Where(models.UserProfile{UserID: claims.UserId}).FirstOrCreate(&profile).Error; err != nil {
		s.error(c, http.StatusInternalServerError, "Database error")
		return
	}

	if req.PreferredName != nil {
		profile.PreferredName = strings.TrimSpace(*req.PreferredName)
	}
	if req.PreferDarkTheme != nil {
		profile.PreferDarkTheme = *req.PreferDarkTheme
	}
	if req.AfterLoginGoToWL != nil {
		profile.AfterLoginGoToWL = *req.AfterLoginGoToWL
	}

	if err := s.db.Save(&profile).Error; err != nil {
		s.error(c, http.StatusInternalServerError, "Error updating profile")
		return
	}

	s.success(c, gin.H{
		"preferred_name":      profile.PreferredName,
		"prefer_dark_theme":   profile.PreferDarkTheme,
		"after_login_goto_wl": profile.AfterLoginGoToWL,
	})
}

type setRolesRequest struct {
	Roles []string `json:"roles"`
}

// SetRoles replaces a user's role list. Routes mounting this must sit behind
// an admin check.
func (s *UserHandler) SetRoles(c *gin.Context) {
	username := c.Param("username")

	var req setRolesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.error(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	var user models.User
	if err := s.db.Where("username = ?", username).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			s.error(c, http.StatusNotFound, "User not found")
			return
		}
		s.error(c, http.StatusInternalServerError, "Database error")
		return
	}

	user.Roles = models.StringArray(req.Roles)
	if err := s.db.Save(&user).Error; err != nil {
		s.error(c, http.StatusInternalServerError, "Error updating roles")
		return
	}

	s.success(c, userView(user))
}
