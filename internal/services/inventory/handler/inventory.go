package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"stockbrain-system/internal/database/models"
	"stockbrain-system/internal/gateway/middleware"
	"stockbrain-system/internal/inventory"
)

const (
	UNITS_CACHE_KEY              = "inventory:units"
	GROUPS_CACHE_KEY             = "inventory:groups"
	COLUMNS_CACHE_KEY            = "inventory:columns"
	INVENTORY_SETTINGS_CACHE_KEY = "inventory:settings"

	CACHE_TTL_SHORT  = 5 * time.Minute
	CACHE_TTL_MEDIUM = 30 * time.Minute
	CACHE_TTL_LONG   = 2 * time.Hour
)

type InventoryHandler struct {
	db                *gorm.DB
	redis             *redis.Client
	purchaseAdminRole string
}

func NewInventoryHandler(db *gorm.DB, redisClient *redis.Client, purchaseAdminRole string) *InventoryHandler {
	return &InventoryHandler{
		db:                db,
		redis:             redisClient,
		purchaseAdminRole: purchaseAdminRole,
	}
}

// --- Helpers ---

func (s *InventoryHandler) success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
	})
}

func (s *InventoryHandler) error(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{
		"success": false,
		"error":   message,
	})
}

func parseInt64Param(c *gin.Context, param string) (int64, error) {
	return strconv.ParseInt(c.Param(param), 10, 64)
}

func parseBoolQuery(c *gin.Context, param string) *bool {
	str := c.Query(param)
	if str == "" {
		return nil
	}
	val, err := strconv.ParseBool(str)
	if err != nil {
		return nil
	}
	return &val
}

func parseIntQuery(c *gin.Context, param string) *int {
	str := c.Query(param)
	if str == "" {
		return nil
	}
	val, err := strconv.Atoi(str)
	if err != nil {
		return nil
	}
	return &val
}

func (s *InventoryHandler) InvalidateInventoryCaches(ctx context.Context) {
	_ = s.redis.Del(ctx, UNITS_CACHE_KEY, GROUPS_CACHE_KEY, COLUMNS_CACHE_KEY, INVENTORY_SETTINGS_CACHE_KEY)
}

// restrictedColumns loads the restricted column set, redis first.
func (s *InventoryHandler) restrictedColumns(ctx context.Context) (map[string]struct{}, error) {
	restricted := make(map[string]struct{})

	if cached, err := s.redis.Get(ctx, INVENTORY_SETTINGS_CACHE_KEY).Result(); err == nil {
		var fields []string
		if json.Unmarshal([]byte(cached), &fields) == nil {
			for _, f := range fields {
				restricted[f] = struct{}{}
			}
			return restricted, nil
		}
	}

	var settings models.InventorySettings
	if err := s.db.Where("singleton = ?", 1).First(&settings).Error; err != nil {
		return nil, err
	}

	if payload, err := json.Marshal([]string(settings.RestrictedColumns)); err == nil {
		_ = s.redis.Set(ctx, INVENTORY_SETTINGS_CACHE_KEY, payload, CACHE_TTL_MEDIUM)
	}

	for _, f := range settings.RestrictedColumns {
		restricted[f] = struct{}{}
	}
	return restricted, nil
}

// itemView flattens an item, its per-user overlay, and the derived fields
// into the response shape. Restricted columns are stripped for users outside
// the purchase admin role.
func itemView(item models.InventoryItem, meta *models.InventoryUserMeta, restricted map[string]struct{}, seeAll bool) gin.H {
	view := gin.H{
		"id":                  item.ID,
		"rack":                item.Rack,
		"shelf":               item.Shelf,
		"box":                 item.Box,
		"localization":        item.LocalizationStr(),
		"group":               item.GroupName,
		"name":                item.Name,
		"part_description":    item.PartDescription,
		"part_number":         item.PartNumber,
		"dcm_number":          item.DcmNumber,
		"oem_name":            item.OemName,
		"oem_number":          item.OemNumber,
		"vendor":              item.Vendor,
		"source_location":     item.SourceLocation,
		"units":               item.Units,
		"quantity_in_stock":   item.QuantityInStock,
		"price":               item.Price,
		"reorder_level":       item.ReorderLevel,
		"reorder_time_days":   item.ReorderTimeDays,
		"quantity_in_reorder": item.QuantityInReorder,
		"discontinued":        item.Discontinued,
		"needs_verification":  item.NeedsVerification,
		"condition":           item.Condition,
		"for_reorder":         item.ForReorder(),
		"favorite_color":      "",
		"note":                "",
	}
	if meta != nil {
		view["favorite_color"] = meta.FavoriteColor
		view["note"] = meta.Note
	}
	if !seeAll {
		for field := range restricted {
			delete(view, field)
		}
	}
	return view
}

func filtersFromQuery(c *gin.Context) inventory.Filters {
	f := inventory.Filters{
		Search:            strings.TrimSpace(c.Query("search")),
		Rack:              parseIntQuery(c, "rack"),
		Group:             c.Query("group"),
		Condition:         c.Query("condition"),
		Unit:              c.Query("unit"),
		InStock:           parseBoolQuery(c, "in_stock"),
		PricePositive:     parseBoolQuery(c, "price_positive"),
		Discontinued:      parseBoolQuery(c, "discontinued"),
		NeedsVerification: parseBoolQuery(c, "needs_verification"),
		HasFavorite:       parseBoolQuery(c, "has_favorite"),
		ForReorder:        parseBoolQuery(c, "for_reorder"),
	}
	if raw := c.Query("search_fields"); raw != "" {
		f.SearchFields = strings.Split(raw, ",")
	}
	return f
}

// listQuery assembles the filtered, sorted item query shared by the list and
// locate endpoints.
func (s *InventoryHandler) listQuery(userID int64, filters inventory.Filters, sortKey inventory.SortKey, desc bool) (*gorm.DB, error) {
	preds, filterNeedsMeta, err := inventory.BuildPredicates(filters)
	if err != nil {
		return nil, err
	}

	query := s.db.Model(&models.InventoryItem{})
	if filterNeedsMeta || inventory.SortNeedsMetaJoin(sortKey) {
		query = query.Joins(inventory.MetaJoin, userID)
	}
	for _, pred := range preds {
		query = query.Where(pred.Expr, pred.Args...)
	}
	for _, expr := range inventory.OrderExpressions(sortKey, desc) {
		query = query.Order(expr)
	}
	return query, nil
}

// --- Items ---

func (s *InventoryHandler) ListItems(c *gin.Context) {
	claims := middleware.CurrentClaims(c)
	if claims == nil {
		s.error(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	sortKey, ok := inventory.ParseSortKey(c.Query("sort"))
	if !ok {
		s.error(c, http.StatusBadRequest, "Invalid sort key: "+c.Query("sort"))
		return
	}
	desc := c.Query("order") == "desc"

	filters := filtersFromQuery(c)
	query, err := s.listQuery(claims.UserId, filters, sortKey, desc)
	if err != nil {
		s.error(c, http.StatusBadRequest, err.Error())
		return
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		s.error(c, http.StatusInternalServerError, "Database error")
		return
	}

	pageSize, showAll := inventory.NormalizePageSize(c.Query("page_size"), filters.Active())

	var items []models.InventoryItem
	page := 1
	numPages := 1
	if showAll {
		err = query.Select("inventory_items.*").Find(&items).Error
	} else {
		numPages = inventory.NumPages(total, pageSize)
		page = inventory.ClampPage(c.DefaultQuery("page", "1"), numPages)
		err = query.Select("inventory_items.*").
			Offset((page - 1) * pageSize).Limit(pageSize).
			Find(&items).Error
	}
	if err != nil {
		s.error(c, http.StatusInternalServerError, "Database error")
		return
	}

	restricted, err := s.restrictedColumns(c.Request.Context())
	if err != nil {
		s.error(c, http.StatusInternalServerError, "Database error")
		return
	}
	seeAll := claims.HasRole(s.purchaseAdminRole)

	metas, err := s.metasForItems(claims.UserId, items)
	if err != nil {
		s.error(c, http.StatusInternalServerError, "Database error")
		return
	}

	views := make([]gin.H, len(items))
	for i, item := range items {
		views[i] = itemView(item, metas[item.ID], restricted, seeAll)
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    views,
		"pagination": gin.H{
			"page":      page,
			"num_pages": numPages,
			"page_size": pageSize,
			"show_all":  showAll,
			"total":     total,
			"window":    inventory.PageWindow(page, numPages),
		},
	})
}

func (s *InventoryHandler) metasForItems(userID int64, items []models.InventoryItem) (map[int64]*models.InventoryUserMeta, error) {
	result := make(map[int64]*models.InventoryUserMeta, len(items))
	if len(items) == 0 {
		return result, nil
	}
	ids := make([]int64, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	var metas []models.InventoryUserMeta
	if err := s.db.Where("user_id = ? AND item_id IN ?", userID, ids).Find(&metas).Error; err != nil {
		return nil, err
	}
	for i := range metas {
		result[metas[i].ItemID] = &metas[i]
	}
	return result, nil
}

// LocateItem answers which page an item sits on under the current sort, so
// the client can jump straight to it after a create or an edit.
func (s *InventoryHandler) LocateItem(c *gin.Context) {
	claims := middleware.CurrentClaims(c)
	if claims == nil {
		s.error(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	itemID, err := parseInt64Param(c, "id")
	if err != nil {
		s.error(c, http.StatusBadRequest, "Invalid item ID")
		return
	}

	sortKey, ok := inventory.ParseSortKey(c.Query("sort"))
	if !ok {
		s.error(c, http.StatusBadRequest, "Invalid sort key: "+c.Query("sort"))
		return
	}
	desc := c.Query("order") == "desc"

	pageSize, showAll := inventory.NormalizePageSize(c.Query("page_size"), false)
	if showAll {
		s.success(c, gin.H{"page": 1})
		return
	}

	query, err := s.listQuery(claims.UserId, inventory.Filters{}, sortKey, desc)
	if err != nil {
		s.error(c, http.StatusBadRequest, err.Error())
		return
	}

	var orderedIDs []int64
	if err := query.Pluck("inventory_items.id", &orderedIDs).Error; err != nil {
		s.error(c, http.StatusInternalServerError, "Database error")
		return
	}

	s.success(c, gin.H{"page": inventory.LocatePage(orderedIDs, itemID, pageSize)})
}

type createItemRequest struct {
	Rack              int     `json:"rack"`
	Shelf             string  `json:"shelf"`
	Box               string  `json:"box"`
	Group             string  `json:"group"`
	Name              string  `json:"name"`
	PartDescription   string  `json:"part_description"`
	PartNumber        string  `json:"part_number"`
	DcmNumber         string  `json:"dcm_number"`
	OemName           string  `json:"oem_name"`
	OemNumber         string  `json:"oem_number"`
	Vendor            string  `json:"vendor"`
	SourceLocation    string  `json:"source_location"`
	Units             string  `json:"units"`
	QuantityInStock   *int    `json:"quantity_in_stock"`
	Price             *string `json:"price"`
	ReorderLevel      *int    `json:"reorder_level"`
	ReorderTimeDays   *int    `json:"reorder_time_days"`
	QuantityInReorder *int    `json:"quantity_in_reorder"`
	Condition         string  `json:"condition"`
	NeedsVerification bool    `json:"needs_verification"`
}

func (s *InventoryHandler) CreateItem(c *gin.Context) {
	var req createItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.error(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if req.Name == "" || req.Shelf == "" || req.Box == "" {
		s.error(c, http.StatusBadRequest, "Name, shelf and box are required")
		return
	}
	if len(strings.TrimSpace(req.Shelf)) != 1 {
		s.error(c, http.StatusBadRequest, "Shelf must be a single letter")
		return
	}

	condition := req.Condition
	if condition == "" {
		condition = models.ConditionNew
	}
	if !validCondition(condition) {
		s.error(c, http.StatusBadRequest, "Invalid condition: "+req.Condition)
		return
	}

	item := models.InventoryItem{
		Rack:              req.Rack,
		Shelf:             req.Shelf,
		Box:               strings.TrimSpace(req.Box),
		GroupName:         req.Group,
		Name:              req.Name,
		PartDescription:   req.PartDescription,
		PartNumber:        req.PartNumber,
		DcmNumber:         req.DcmNumber,
		OemName:           req.OemName,
		OemNumber:         req.OemNumber,
		Vendor:            req.Vendor,
		SourceLocation:    req.SourceLocation,
		Units:             req.Units,
		QuantityInStock:   req.QuantityInStock,
		ReorderLevel:      req.ReorderLevel,
		ReorderTimeDays:   req.ReorderTimeDays,
		QuantityInReorder: req.QuantityInReorder,
		NeedsVerification: req.NeedsVerification,
		Condition:         condition,
	}
	item.NormalizeShelf()

	if req.Price != nil && strings.TrimSpace(*req.Price) != "" {
		price, err := decimal.NewFromString(strings.TrimSpace(*req.Price))
		if err != nil {
			s.error(c, http.StatusBadRequest, "Invalid price: "+*req.Price)
			return
		}
		item.Price = &price
	}

	if err := s.syncUnitRef(s.db, &item); err != nil {
		s.error(c, http.StatusInternalServerError, "Database error")
		return
	}
	if err := s.syncGroupRef(s.db, &item); err != nil {
		s.error(c, http.StatusInternalServerError, "Database error")
		return
	}

	if err := s.db.Create(&item).Error; err != nil {
		s.error(c, http.StatusInternalServerError, "Error creating item")
		return
	}

	s.InvalidateInventoryCaches(c.Request.Context())
	s.success(c, itemView(item, nil, nil, true))
}

func validCondition(condition string) bool {
	switch condition {
	case models.ConditionNew, models.ConditionUsed, models.ConditionRefurbished, models.ConditionDamaged:
		return true
	}
	return false
}

// syncUnitRef resolves the free-text unit code to its catalog row. Unknown
// codes keep the text but clear the FK.
func (s *InventoryHandler) syncUnitRef(db *gorm.DB, item *models.InventoryItem) error {
	item.UnitID = nil
	code := strings.ToUpper(strings.TrimSpace(item.Units))
	if code == "" {
		return nil
	}
	var unit models.Unit
	err := db.Where("upper(code) = ?", code).First(&unit).Error
	if err == gorm.ErrRecordNotFound {
		return nil
	}
	if err != nil {
		return err
	}
	item.UnitID = &unit.ID
	return nil
}

// syncGroupRef resolves the group name, creating the group on first use.
func (s *InventoryHandler) syncGroupRef(db *gorm.DB, item *models.InventoryItem) error {
	item.GroupID = nil
	name := strings.TrimSpace(item.GroupName)
	if name == "" {
		item.GroupName = ""
		return nil
	}
	group := models.ItemGroup{Name: name}
	if err := db.Where(models.ItemGroup{Name: name}).FirstOrCreate(&group).Error; err != nil {
		return err
	}
	item.GroupName = name
	item.GroupID = &group.ID
	return nil
}

type editFieldRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// EditItemField applies a single inline edit. The field must sit on the
// allow-list and the value must parse for the field's type; empty input
// clears nullable numeric fields.
func (s *InventoryHandler) EditItemField(c *gin.Context) {
	itemID, err := parseInt64Param(c, "id")
	if err != nil {
		s.error(c, http.StatusBadRequest, "Invalid item ID")
		return
	}

	var req editFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.error(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	field := strings.ToLower(strings.TrimSpace(req.Field))
	value := strings.TrimSpace(req.Value)

	var item models.InventoryItem
	if err := s.db.First(&item, itemID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			s.error(c, http.StatusNotFound, "Item not found")
			return
		}
		s.error(c, http.StatusInternalServerError, "Database error")
		return
	}

	if err := s.applyFieldEdit(&item, field, value); err != nil {
		s.error(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.db.Save(&item).Error; err != nil {
		s.error(c, http.StatusInternalServerError, "Error updating item")
		return
	}

	s.InvalidateInventoryCaches(c.Request.Context())
	s.success(c, itemView(item, nil, nil, true))
}

func (s *InventoryHandler) applyFieldEdit(item *models.InventoryItem, field, value string) error {
	// Units and group get FK resync on top of the text update.
	switch field {
	case "units":
		item.Units = value
		return s.syncUnitRef(s.db, item)
	case "group", "group_name":
		item.GroupName = value
		return s.syncGroupRef(s.db, item)
	}

	if _, ok := inventory.EditableFields[field]; !ok {
		return fmt.Errorf("field %s is not editable", field)
	}

	if _, ok := inventory.IntegerFields[field]; ok {
		var n *int
		if value != "" {
			parsed, err := strconv.Atoi(value)
			if err != nil {
				return fmt.Errorf("field %s requires an integer value", field)
			}
			n = &parsed
		}
		switch field {
		case "quantity_in_stock":
			item.QuantityInStock = n
		case "reorder_level":
			item.ReorderLevel = n
		case "reorder_time_days":
			item.ReorderTimeDays = n
		case "quantity_in_reorder":
			item.QuantityInReorder = n
		case "rack":
			if n == nil {
				return fmt.Errorf("rack cannot be empty")
			}
			item.Rack = *n
		}
		return nil
	}

	if _, ok := inventory.DecimalFields[field]; ok {
		if value == "" {
			item.Price = nil
			return nil
		}
		price, err := decimal.NewFromString(strings.ReplaceAll(value, ",", "."))
		if err != nil {
			return fmt.Errorf("field %s requires a decimal value", field)
		}
		item.Price = &price
		return nil
	}

	switch field {
	case "name":
		if value == "" {
			return fmt.Errorf("name cannot be empty")
		}
		item.Name = value
	case "part_description":
		item.PartDescription = value
	case "part_number":
		item.PartNumber = value
	case "dcm_number":
		item.DcmNumber = value
	case "oem_name":
		item.OemName = value
	case "oem_number":
		item.OemNumber = value
	case "vendor":
		item.Vendor = value
	case "source_location":
		item.SourceLocation = value
	case "box":
		if value == "" {
			return fmt.Errorf("box cannot be empty")
		}
		item.Box = value
	case "shelf":
		if len(value) != 1 {
			return fmt.Errorf("shelf must be a single letter")
		}
		item.Shelf = value
		item.NormalizeShelf()
	case "condition":
		if !validCondition(strings.ToLower(value)) {
			return fmt.Errorf("invalid condition: %s", value)
		}
		item.Condition = strings.ToLower(value)
	case "discontinued":
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("field discontinued requires a boolean value")
		}
		item.Discontinued = parsed
	case "needs_verification":
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("field needs_verification requires a boolean value")
		}
		item.NeedsVerification = parsed
	}
	return nil
}

type deleteItemRequest struct {
	ConfirmPassword string `json:"confirm_password"`
}

// DeleteItem removes an item after re-verifying the caller's password. The
// per-user overlays go with it via the FK cascade.
func (s *InventoryHandler) DeleteItem(c *gin.Context) {
	claims := middleware.CurrentClaims(c)
	if claims == nil {
		s.error(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	itemID, err := parseInt64Param(c, "id")
	if err != nil {
		s.error(c, http.StatusBadRequest, "Invalid item ID")
		return
	}

	var req deleteItemRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ConfirmPassword == "" {
		s.error(c, http.StatusBadRequest, "Password confirmation required")
		return
	}

	var user models.User
	if err := s.db.First(&user, claims.UserId).Error; err != nil {
		s.error(c, http.StatusUnauthorized, "User not found")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.ConfirmPassword)); err != nil {
		s.error(c, http.StatusForbidden, "Password confirmation failed")
		return
	}

	result := s.db.Delete(&models.InventoryItem{}, itemID)
	if result.Error != nil {
		s.error(c, http.StatusInternalServerError, "Error deleting item")
		return
	}
	if result.RowsAffected == 0 {
		s.error(c, http.StatusNotFound, "Item not found")
		return
	}

	s.InvalidateInventoryCaches(c.Request.Context())
	s.success(c, gin.H{"deleted": itemID})
}

// --- Per-user overlay ---

type favoriteRequest struct {
	Color string `json:"color"`
}

func (s *InventoryHandler) SetFavorite(c *gin.Context) {
	claims := middleware.CurrentClaims(c)
	if claims == nil {
		s.error(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	itemID, err := parseInt64Param(c, "id")
	if err != nil {
		s.error(c, http.StatusBadRequest, "Invalid item ID")
		return
	}

	var req favoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.error(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	color := strings.ToUpper(strings.TrimSpace(req.Color))
	if color != "" && !models.IsFavoriteColor(color) {
		s.error(c, http.StatusBadRequest, "Invalid favorite color: "+req.Color)
		return
	}

	meta, err := s.upsertMeta(claims.UserId, itemID, func(m *models.InventoryUserMeta) {
		m.FavoriteColor = color
	})
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			s.error(c, http.StatusNotFound, "Item not found")
			return
		}
		s.error(c, http.StatusInternalServerError, "Database error")
		return
	}

	s.success(c, gin.H{"favorite_color": meta.FavoriteColor})
}

type noteRequest struct {
	Note string `json:"note"`
}

func (s *InventoryHandler) SetNote(c *gin.Context) {
	claims := middleware.CurrentClaims(c)
	if claims == nil {
		s.error(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	itemID, err := parseInt64Param(c, "id")
	if err != nil {
		s.error(c, http.StatusBadRequest, "Invalid item ID")
		return
	}

	var req noteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.error(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	meta, err := s.upsertMeta(claims.UserId, itemID, func(m *models.InventoryUserMeta) {
		m.Note = strings.TrimSpace(req.Note)
	})
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			s.error(c, http.StatusNotFound, "Item not found")
			return
		}
		s.error(c, http.StatusInternalServerError, "Database error")
		return
	}

	s.success(c, gin.H{"note": meta.Note})
}

// upsertMeta creates the (user, item) overlay row on first write and applies
// the mutation. Rows that end up fully empty are removed to keep presence
// sorts meaningful.
func (s *InventoryHandler) upsertMeta(userID, itemID int64, mutate func(*models.InventoryUserMeta)) (*models.InventoryUserMeta, error) {
	var item models.InventoryItem
	if err := s.db.Select("id").First(&item, itemID).Error; err != nil {
		return nil, err
	}

	meta := models.InventoryUserMeta{UserID: userID, ItemID: itemID}
	if err := s.db.Where(models.InventoryUserMeta{UserID: userID, ItemID: itemID}).
		FirstOrCreate(&meta).Error; err != nil {
		return nil, err
	}

	mutate(&meta)

	if meta.FavoriteColor == "" && meta.Note == "" {
		if err := s.db.Delete(&models.InventoryUserMeta{}, meta.ID).Error; err != nil {
			return nil, err
		}
		return &meta, nil
	}

	if err := s.db.Save(&meta).Error; err != nil {
		return nil, err
	}
	return &meta, nil
}

// --- Import ---

// ImportItems ingests a CSV export in one transaction: either every row
// lands or none do.
func (s *InventoryHandler) ImportItems(c *gin.Context) {
	claims := middleware.CurrentClaims(c)
	if claims == nil {
		s.error(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		s.error(c, http.StatusBadRequest, "CSV file is required")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		s.error(c, http.StatusBadRequest, "Failed to open uploaded file")
		return
	}
	defer file.Close()

	items, err := inventory.ParseImport(file)
	if err != nil {
		s.error(c, http.StatusBadRequest, "Import failed: "+err.Error())
		return
	}
	if len(items) == 0 {
		s.error(c, http.StatusBadRequest, "Import file contains no rows")
		return
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	for i := range items {
		items[i].NormalizeShelf()
		if err := s.syncUnitRef(tx, &items[i]); err != nil {
			tx.Rollback()
			s.error(c, http.StatusInternalServerError, "Database error")
			return
		}
		if err := s.syncGroupRef(tx, &items[i]); err != nil {
			tx.Rollback()
			s.error(c, http.StatusInternalServerError, "Database error")
			return
		}
	}

	if err := tx.CreateInBatches(items, 200).Error; err != nil {
		tx.Rollback()
		s.error(c, http.StatusInternalServerError, "Error importing items")
		return
	}

	job := models.ImportJob{
		Name:           fileHeader.Filename,
		SourceLocation: fileHeader.Filename,
		CreatedBy:      claims.UserId,
		RowsCreated:    len(items),
		RowsTotal:      len(items),
		LastStatus:     "completed",
	}
	if err := tx.Create(&job).Error; err != nil {
		tx.Rollback()
		s.error(c, http.StatusInternalServerError, "Error recording import job")
		return
	}

	tx.Commit()

	s.InvalidateInventoryCaches(c.Request.Context())
	s.success(c, gin.H{
		"job_id":       job.ID,
		"rows_created": job.RowsCreated,
	})
}

// --- Reference data ---

func (s *InventoryHandler) ListUnits(c *gin.Context) {
	ctx := c.Request.Context()

	if cached, err := s.redis.Get(ctx, UNITS_CACHE_KEY).Result(); err == nil {
		var units []models.Unit
		if json.Unmarshal([]byte(cached), &units) == nil {
			s.success(c, units)
			return
		}
	}

	var units []models.Unit
	if err := s.db.Order("code ASC").Find(&units).Error; err != nil {
		s.error(c, http.StatusInternalServerError, "Database error")
		return
	}

	if payload, err := json.Marshal(units); err == nil {
		_ = s.redis.Set(ctx, UNITS_CACHE_KEY, payload, CACHE_TTL_LONG)
	}

	s.success(c, units)
}

func (s *InventoryHandler) ListGroups(c *gin.Context) {
	ctx := c.Request.Context()

	if cached, err := s.redis.Get(ctx, GROUPS_CACHE_KEY).Result(); err == nil {
		var groups []models.ItemGroup
		if json.Unmarshal([]byte(cached), &groups) == nil {
			s.success(c, groups)
			return
		}
	}

	var groups []models.ItemGroup
	if err := s.db.Order("name ASC").Find(&groups).Error; err != nil {
		s.error(c, http.StatusInternalServerError, "Database error")
		return
	}

	if payload, err := json.Marshal(groups); err == nil {
		_ = s.redis.Set(ctx, GROUPS_CACHE_KEY, payload, CACHE_TTL_MEDIUM)
	}

	s.success(c, groups)
}

func (s *InventoryHandler) ListColumns(c *gin.Context) {
	ctx := c.Request.Context()

	if cached, err := s.redis.Get(ctx, COLUMNS_CACHE_KEY).Result(); err == nil {
		var columns []models.InventoryColumn
		if json.Unmarshal([]byte(cached), &columns) == nil {
			s.success(c, columns)
			return
		}
	}

	var columns []models.InventoryColumn
	if err := s.db.Order("field_name ASC").Find(&columns).Error; err != nil {
		s.error(c, http.StatusInternalServerError, "Database error")
		return
	}

	if payload, err := json.Marshal(columns); err == nil {
		_ = s.redis.Set(ctx, COLUMNS_CACHE_KEY, payload, CACHE_TTL_LONG)
	}

	s.success(c, columns)
}

// --- Settings ---

func (s *InventoryHandler) GetSettings(c *gin.Context) {
	var settings models.InventorySettings
	if err := s.db.Where("singleton = ?", 1).First(&settings).Error; err != nil {
		s.error(c, http.StatusInternalServerError, "Database error")
		return
	}
	s.success(c, gin.H{"restricted_columns": settings.RestrictedColumns})
}

type updateSettingsRequest struct {
	RestrictedColumns []string `json:"restricted_columns"`
}

func (s *InventoryHandler) UpdateSettings(c *gin.Context) {
	var req updateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.error(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	var columns []models.InventoryColumn
	if err := s.db.Find(&columns).Error; err != nil {
		s.error(c, http.StatusInternalServerError, "Database error")
		return
	}
	known := make(map[string]struct{}, len(columns))
	for _, col := range columns {
		known[col.FieldName] = struct{}{}
	}
	for _, field := range req.RestrictedColumns {
		if _, ok := known[field]; !ok {
			s.error(c, http.StatusBadRequest, "Unknown column: "+field)
			return
		}
	}

	var settings models.InventorySettings
	if err := s.db.Where("singleton = ?", 1).First(&settings).Error; err != nil {
		s.error(c, http.StatusInternalServerError, "Database error")
		return
	}
	settings.RestrictedColumns = models.StringArray(req.RestrictedColumns)
	if err := s.db.Save(&settings).Error; err != nil {
		s.error(c, http.StatusInternalServerError, "Error updating settings")
		return
	}

	s.InvalidateInventoryCaches(c.Request.Context())
	s.success(c, gin.H{"restricted_columns": settings.RestrictedColumns})
}
