package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"stockbrain-system/internal/database/models"
	"stockbrain-system/internal/gateway/middleware"
	"stockbrain-system/internal/mailer"
	"stockbrain-system/internal/worklog"
)

const (
	VEHICLE_LOCATIONS_CACHE_KEY = "worklog:vehicle-locations"
	JOB_STATES_CACHE_KEY        = "worklog:job-states"

	CACHE_TTL_MEDIUM = 30 * time.Minute
	CACHE_TTL_LONG   = 2 * time.Hour
)

type WorkLogHandler struct {
	db            *gorm.DB
	redis         *redis.Client
	dispatcher    *EmailDispatcher
	deleteAccount string
	loc           *time.Location
}

func NewWorkLogHandler(db *gorm.DB, redisClient *redis.Client, dispatcher *EmailDispatcher, deleteAccount string, loc *time.Location) *WorkLogHandler {
	return &WorkLogHandler{
		db:            db,
		redis:         redisClient,
		dispatcher:    dispatcher,
		deleteAccount: deleteAccount,
		loc:           loc,
	}
}

func (s *WorkLogHandler) success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
	})
}

func (s *WorkLogHandler) error(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{
		"success": false,
		"error":   message,
	})
}

func (s *WorkLogHandler) InvalidateWorklogCaches(ctx context.Context) {
	_ = s.redis.Del(ctx, VEHICLE_LOCATIONS_CACHE_KEY, JOB_STATES_CACHE_KEY)
}

// --- Views ---

func entryView(e models.WorkLogEntry) gin.H {
	view := gin.H{
		"id":                  e.ID,
		"vehicle_location_id": e.VehicleLocationID,
		"job_description":     e.JobDescription,
		"state_id":            e.StateID,
		"part_rack":           e.PartRack,
		"part_shelf":          e.PartShelf,
		"part_box":            e.PartBox,
		"part_description":    e.PartDescription,
		"unit_id":             e.UnitID,
		"quantity":            e.Quantity,
		"time_hours":          e.TimeHours,
		"notes":               e.Notes,
	}
	if e.VehicleLocation != nil {
		view["vehicle_location"] = e.VehicleLocation.Name
	}
	if e.State != nil {
		view["state"] = e.State.ShortName
	}
	return view
}

func workLogView(wl models.WorkLog, withEntries bool) gin.H {
	view := gin.H{
		"id":            wl.ID,
		"wl_number":     wl.WLNumber,
		"due_date":      wl.DueDate.Format("2006-01-02"),
		"author_id":     wl.AuthorID,
		"start_time":    wl.StartTime,
		"end_time":      wl.EndTime,
		"notes":         wl.Notes,
		"email_pending": wl.EmailPending,
		"email_sent_at": wl.EmailSentAt,
		"created_at":    wl.CreatedAt,
		"updated_at":    wl.UpdatedAt,
	}
	if wl.Author != nil {
		view["author"] = wl.Author.Username
	}
	if withEntries {
		entries := make([]gin.H, len(wl.Entries))
		for i, e := range wl.Entries {
			entries[i] = entryView(e)
		}
		view["entries"] = entries
	}
	return view
}

// --- Requests ---

type entryRequest struct {
	VehicleLocationID int32   `json:"vehicle_location_id"`
	JobDescription    string  `json:"job_description"`
	StateID           int32   `json:"state_id"`
	PartRack          string  `json:"part_rack"`
	PartShelf         string  `json:"part_shelf"`
	PartBox           string  `json:"part_box"`
	PartDescription   string  `json:"part_description"`
	UnitID            *int32  `json:"unit_id"`
	Quantity          *string `json:"quantity"`
	TimeHours         string  `json:"time_hours"`
	Notes             string  `json:"notes"`
}

type workLogRequest struct {
	DueDate   string         `json:"due_date"`
	StartTime string         `json:"start_time"`
	EndTime   string         `json:"end_time"`
	Notes     string         `json:"notes"`
	Entries   []entryRequest `json:"entries"`
}

func (s *WorkLogHandler) buildEntries(reqs []entryRequest) ([]models.WorkLogEntry, string, error) {
	if len(reqs) == 0 {
		return nil, "At least one entry is required", nil
	}

	var locationIDs, stateIDs []int32
	for _, r := range reqs {
		locationIDs = append(locationIDs, r.VehicleLocationID)
		stateIDs = append(stateIDs, r.StateID)
	}

	locations := make(map[int32]struct{})
	states := make(map[int32]struct{})
	var locs []models.VehicleLocation
	var sts []models.JobState
	if err := s.db.Where("id IN ?", locationIDs).Find(&locs).Error; err != nil {
		return nil, "", err
	}
	if err := s.db.Where("id IN ?", stateIDs).Find(&sts).Error; err != nil {
		return nil, "", err
	}
	for _, l := range locs {
		locations[l.ID] = struct{}{}
	}
	for _, st := range sts {
		states[st.ID] = struct{}{}
	}

	entries := make([]models.WorkLogEntry, 0, len(reqs))
	for _, r := range reqs {
		if strings.TrimSpace(r.JobDescription) == "" {
			return nil, "Job description is required on every entry", nil
		}
		if _, ok := locations[r.VehicleLocationID]; !ok {
			return nil, "Unknown vehicle/location", nil
		}
		if _, ok := states[r.StateID]; !ok {
			return nil, "Unknown job state", nil
		}

		timeHours, err := decimal.NewFromString(strings.TrimSpace(r.TimeHours))
		if err != nil || timeHours.IsNegative() {
			return nil, "time_hours must be a non-negative decimal", nil
		}

		entry := models.WorkLogEntry{
			VehicleLocationID: r.VehicleLocationID,
			JobDescription:    strings.TrimSpace(r.JobDescription),
			StateID:           r.StateID,
			PartRack:          strings.TrimSpace(r.PartRack),
			PartShelf:         strings.ToUpper(strings.TrimSpace(r.PartShelf)),
			PartBox:           strings.TrimSpace(r.PartBox),
			PartDescription:   strings.TrimSpace(r.PartDescription),
			UnitID:            r.UnitID,
			TimeHours:         timeHours,
			Notes:             strings.TrimSpace(r.Notes),
		}
		if r.Quantity != nil && strings.TrimSpace(*r.Quantity) != "" {
			qty, err := decimal.NewFromString(strings.TrimSpace(*r.Quantity))
			if err != nil {
				return nil, "quantity must be a decimal", nil
			}
			entry.Quantity = &qty
		}
		entries = append(entries, entry)
	}
	return entries, "", nil
}

// applyStandardHours fills genuinely missing start/end times from the
// standard work hours singleton. Explicit values are never overwritten.
func applyStandardHours(startTime, endTime string, hours models.StandardWorkHours) (string, string) {
	if startTime == "" {
		startTime = hours.StartTime
	}
	if endTime == "" {
		endTime = hours.EndTime
	}
	return startTime, endTime
}

// resolveTimes validates the requested clock strings and defaults missing
// ones from the standard work hours singleton.
func (s *WorkLogHandler) resolveTimes(startTime, endTime string) (string, string, string, error) {
	if msg := validateClock("start_time", startTime); msg != "" {
		return "", "", msg, nil
	}
	if msg := validateClock("end_time", endTime); msg != "" {
		return "", "", msg, nil
	}
	if startTime == "" || endTime == "" {
		var hours models.StandardWorkHours
		if err := s.db.Where("singleton = ?", 1).First(&hours).Error; err != nil {
			return "", "", "", err
		}
		startTime, endTime = applyStandardHours(startTime, endTime, hours)
	}
	return startTime, endTime, "", nil
}

// notificationView reports where and when the save's notification mail goes.
// Both fields are null when no mail is owed or delivery already failed.
func notificationView(view gin.H, recipient string, scheduledAt *time.Time) gin.H {
	if recipient == "" {
		view["email_recipient"] = nil
	} else {
		view["email_recipient"] = recipient
	}
	view["email_scheduled_at"] = scheduledAt
	return view
}

func validateClock(name, value string) string {
	if value == "" {
		return ""
	}
	if _, _, err := worklog.ParseClock(value); err != nil {
		return name + " must be HH:MM"
	}
	return ""
}

// --- Work logs ---

func (s *WorkLogHandler) CreateWorkLog(c *gin.Context) {
	claims := middleware.CurrentClaims(c)
	if claims == nil {
		s.error(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req workLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.error(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	dueDate, err := time.ParseInLocation("2006-01-02", req.DueDate, s.loc)
	if err != nil {
		s.error(c, http.StatusBadRequest, "due_date must be YYYY-MM-DD")
		return
	}
	startTime, endTime, msg, err := s.resolveTimes(req.StartTime, req.EndTime)
	if err != nil {
		s.error(c, http.StatusInternalServerError, "Database error")
		return
	}
	if msg != "" {
		s.error(c, http.StatusBadRequest, msg)
		return
	}

	entries, msg, err := s.buildEntries(req.Entries)
	if err != nil {
		s.error(c, http.StatusInternalServerError, "Database error")
		return
	}
	if msg != "" {
		s.error(c, http.StatusBadRequest, msg)
		return
	}

	var author models.User
	if err := s.db.First(&author, claims.UserId).Error; err != nil {
		s.error(c, http.StatusUnauthorized, "User not found")
		return
	}

	// The document number is assigned exactly once, here.
	segment := worklog.FormatAuthorSegment(author.Firstname, author.Lastname, author.Username)
	number := worklog.Number(dueDate, segment)

	var existing int64
	if err := s.db.Model(&models.WorkLog{}).Where("wl_number = ?", number).Count(&existing).Error; err != nil {
		s.error(c, http.StatusInternalServerError, "Database error")
		return
	}
	if existing > 0 {
		s.error(c, http.StatusConflict, "A work log with number "+number+" already exists")
		return
	}

	wl := models.WorkLog{
		DueDate:   dueDate,
		AuthorID:  author.ID,
		WLNumber:  number,
		StartTime: startTime,
		EndTime:   endTime,
		Notes:     strings.TrimSpace(req.Notes),
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Create(&wl).Error; err != nil {
		tx.Rollback()
		s.error(c, http.StatusInternalServerError, "Error creating work log")
		return
	}

	for i := range entries {
		entries[i].WorkLogID = wl.ID
		if err := tx.Create(&entries[i]).Error; err != nil {
			tx.Rollback()
			s.error(c, http.StatusInternalServerError, "Error creating work log entries")
			return
		}
		audit := models.WorkLogEntryStateChange{
			EntryID:    entries[i].ID,
			NewStateID: entries[i].StateID,
			ChangedBy:  author.ID,
		}
		if err := tx.Create(&audit).Error; err != nil {
			tx.Rollback()
			s.error(c, http.StatusInternalServerError, "Error recording entry state")
			return
		}
	}

	tx.Commit()

	// The work log is saved; a mail failure must not fail the request. The
	// caller just sees a null recipient.
	recipient, scheduledAt, err := s.dispatcher.HandleEvent(c.Request.Context(), wl.ID, mailer.EventNew)
	if err != nil {
		log.Printf("work log %d: email dispatch failed: %v", wl.ID, err)
		recipient, scheduledAt = "", nil
	}

	wl.Entries = entries
	s.success(c, notificationView(workLogView(wl, true), recipient, scheduledAt))
}

// checkEditable loads the edit policy and evaluates it against the work log.
// Returns an empty string when editing is allowed.
func (s *WorkLogHandler) checkEditable(wl models.WorkLog, userID int64) (string, error) {
	if wl.AuthorID != userID {
		return "Only the author can edit a work log", nil
	}

	var cond models.EditCondition
	if err := s.db.Where("singleton = ?", 1).First(&cond).Error; err != nil {
		return "", err
	}

	var latest models.WorkLog
	if err := s.db.Select("id").
		Where("author_id = ?", wl.AuthorID).
		Order("created_at DESC, id DESC").
		First(&latest).Error; err != nil {
		return "", err
	}

	denial := worklog.CheckEditable(
		cond.OnlyLastWLEditable,
		int32(cond.EditableTimeSinceCreated),
		wl.ID == latest.ID,
		wl.CreatedAt,
		time.Now(),
	)
	return string(denial), nil
}

func (s *WorkLogHandler) UpdateWorkLog(c *gin.Context) {
	claims := middleware.CurrentClaims(c)
	if claims == nil {
		s.error(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		s.error(c, http.StatusBadRequest, "Invalid work log ID")
		return
	}

	var wl models.WorkLog
	if err := s.db.First(&wl, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			s.error(c, http.StatusNotFound, "Work log not found")
			return
		}
		s.error(c, http.StatusInternalServerError, "Database error")
		return
	}

	denial, err := s.checkEditable(wl, claims.UserId)
	if err != nil {
		s.error(c, http.StatusInternalServerError, "Database error")
		return
	}
	if denial != "" {
		s.error(c, http.StatusForbidden, denial)
		return
	}

	var req workLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.error(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	dueDate, err := time.ParseInLocation("2006-01-02", req.DueDate, s.loc)
	if err != nil {
		s.error(c, http.StatusBadRequest, "due_date must be YYYY-MM-DD")
		return
	}
	startTime, endTime, msg, err := s.resolveTimes(req.StartTime, req.EndTime)
	if err != nil {
		s.error(c, http.StatusInternalServerError, "Database error")
		return
	}
	if msg != "" {
		s.error(c, http.StatusBadRequest, msg)
		return
	}

	entries, msg, err := s.buildEntries(req.Entries)
	if err != nil {
		s.error(c, http.StatusInternalServerError, "Database error")
		return
	}
	if msg != "" {
		s.error(c, http.StatusBadRequest, msg)
		return
	}

	// Full replacement: header fields and the entire entry set swap in one
	// transaction. The document number never changes, even when the due
	// date does.
	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	wl.DueDate = dueDate
	wl.StartTime = startTime
	wl.EndTime = endTime
	wl.Notes = strings.TrimSpace(req.Notes)

	if err := tx.Save(&wl).Error; err != nil {
		tx.Rollback()
		s.error(c, http.StatusInternalServerError, "Error updating work log")
		return
	}

	if err := tx.Where("work_log_id = ?", wl.ID).Delete(&models.WorkLogEntry{}).Error; err != nil {
		tx.Rollback()
		s.error(c, http.StatusInternalServerError, "Error replacing entries")
		return
	}

	for i := range entries {
		entries[i].WorkLogID = wl.ID
		if err := tx.Create(&entries[i]).Error; err != nil {
			tx.Rollback()
			s.error(c, http.StatusInternalServerError, "Error replacing entries")
			return
		}
		audit := models.WorkLogEntryStateChange{
			EntryID:    entries[i].ID,
			NewStateID: entries[i].StateID,
			ChangedBy:  claims.UserId,
		}
		if err := tx.Create(&audit).Error; err != nil {
			tx.Rollback()
			s.error(c, http.StatusInternalServerError, "Error recording entry state")
			return
		}
	}

	tx.Commit()

	recipient, scheduledAt, err := s.dispatcher.HandleEvent(c.Request.Context(), wl.ID, mailer.EventEdit)
	if err != nil {
		log.Printf("work log %d: email dispatch failed: %v", wl.ID, err)
		recipient, scheduledAt = "", nil
	}

	wl.Entries = entries
	s.success(c, notificationView(workLogView(wl, true), recipient, scheduledAt))
}

// DeleteWorkLog is reserved for the dedicated cleanup account.
func (s *WorkLogHandler) DeleteWorkLog(c *gin.Context) {
	claims := middleware.CurrentClaims(c)
	if claims == nil {
		s.error(c, http.StatusUnauthorized, "Authentication required")
		return
	}
	if claims.Username != s.deleteAccount {
		s.error(c, http.StatusForbidden, "Only the designated account can delete work logs")
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		s.error(c, http.StatusBadRequest, "Invalid work log ID")
		return
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Where("work_log_id = ?", id).Delete(&models.WorkLogEntry{}).Error; err != nil {
		tx.Rollback()
		s.error(c, http.StatusInternalServerError, "Error deleting entries")
		return
	}

	result := tx.Delete(&models.WorkLog{}, id)
	if result.Error != nil {
		tx.Rollback()
		s.error(c, http.StatusInternalServerError, "Error deleting work log")
		return
	}
	if result.RowsAffected == 0 {
		tx.Rollback()
		s.error(c, http.StatusNotFound, "Work log not found")
		return
	}

	tx.Commit()
	s.success(c, gin.H{"deleted": id})
}

func (s *WorkLogHandler) ListWorkLogs(c *gin.Context) {
	query := s.db.Model(&models.WorkLog{}).Preload("Author")

	if author := c.Query("author"); author != "" {
		query = query.Joins("JOIN users ON users.id = work_logs.author_id").
			Where("users.username = ?", author)
	}
	if from := c.Query("from"); from != "" {
		if d, err := time.ParseInLocation("2006-01-02", from, s.loc); err == nil {
			query = query.Where("due_date >= ?", d)
		}
	}
	if to := c.Query("to"); to != "" {
		if d, err := time.ParseInLocation("2006-01-02", to, s.loc); err == nil {
			query = query.Where("due_date <= ?", d)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		s.error(c, http.StatusInternalServerError, "Database error")
		return
	}

	pageSize, err := strconv.Atoi(c.DefaultQuery("page_size", "50"))
	if err != nil || pageSize <= 0 {
		pageSize = 50
	}
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	var logs []models.WorkLog
	if err := query.
		Order("due_date DESC, id DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&logs).Error; err != nil {
		s.error(c, http.StatusInternalServerError, "Database error")
		return
	}

	views := make([]gin.H, len(logs))
	for i, wl := range logs {
		views[i] = workLogView(wl, false)
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    views,
		"pagination": gin.H{
			"page":      page,
			"page_size": pageSize,
			"total":     total,
		},
	})
}

func (s *WorkLogHandler) GetWorkLog(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		s.error(c, http.StatusBadRequest, "Invalid work log ID")
		return
	}

	var wl models.WorkLog
	if err := s.db.
		Preload("Author").
		Preload("Entries").
		Preload("Entries.VehicleLocation").
		Preload("Entries.State").
		Preload("Entries.Unit").
		First(&wl, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			s.error(c, http.StatusNotFound, "Work log not found")
			return
		}
		s.error(c, http.StatusInternalServerError, "Database error")
		return
	}

	s.success(c, workLogView(wl, true))
}

// --- Entry state changes ---

type stateChangeRequest struct {
	StateID int32 `json:"state_id"`
}

// ChangeEntryState transitions one entry and appends an audit row. A request
// for the state the entry is already in is a no-op and writes nothing.
func (s *WorkLogHandler) ChangeEntryState(c *gin.Context) {
	claims := middleware.CurrentClaims(c)
	if claims == nil {
		s.error(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	entryID, err := strconv.ParseInt(c.Param("entryId"), 10, 64)
	if err != nil {
		s.error(c, http.StatusBadRequest, "Invalid entry ID")
		return
	}

	var req stateChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.error(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	var entry models.WorkLogEntry
	if err := s.db.First(&entry, entryID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			s.error(c, http.StatusNotFound, "Entry not found")
			return
		}
		s.error(c, http.StatusInternalServerError, "Database error")
		return
	}

	if entry.StateID == req.StateID {
		s.success(c, gin.H{"changed": false, "state_id": entry.StateID})
		return
	}

	var state models.JobState
	if err := s.db.First(&state, req.StateID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			s.error(c, http.StatusBadRequest, "Unknown job state")
			return
		}
		s.error(c, http.StatusInternalServerError, "Database error")
		return
	}

	oldState := entry.StateID

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Model(&models.WorkLogEntry{}).Where("id = ?", entry.ID).
		Update("state_id", req.StateID).Error; err != nil {
		tx.Rollback()
		s.error(c, http.StatusInternalServerError, "Error updating entry state")
		return
	}

	audit := models.WorkLogEntryStateChange{
		EntryID:    entry.ID,
		OldStateID: &oldState,
		NewStateID: req.StateID,
		ChangedBy:  claims.UserId,
	}
	if err := tx.Create(&audit).Error; err != nil {
		tx.Rollback()
		s.error(c, http.StatusInternalServerError, "Error recording state change")
		return
	}

	tx.Commit()
	s.success(c, gin.H{"changed": true, "state_id": req.StateID})
}

func (s *WorkLogHandler) EntryHistory(c *gin.Context) {
	entryID, err := strconv.ParseInt(c.Param("entryId"), 10, 64)
	if err != nil {
		s.error(c, http.StatusBadRequest, "Invalid entry ID")
		return
	}

	var changes []models.WorkLogEntryStateChange
	if err := s.db.
		Preload("OldState").
		Preload("NewState").
		Where("entry_id = ?", entryID).
		Order("changed_at DESC, id DESC").
		Find(&changes).Error; err != nil {
		s.error(c, http.StatusInternalServerError, "Database error")
		return
	}

	views := make([]gin.H, len(changes))
	for i, ch := range changes {
		view := gin.H{
			"id":         ch.ID,
			"changed_by": ch.ChangedBy,
			"changed_at": ch.ChangedAt,
		}
		if ch.OldState != nil {
			view["old_state"] = ch.OldState.ShortName
		}
		view["new_state"] = ""
		if ch.NewState != nil {
			view["new_state"] = ch.NewState.ShortName
		}
		views[i] = view
	}

	s.success(c, views)
}

// --- Send now ---

// SendNow forces delivery of a work log's notification. The claim inside the
// dispatcher keeps a concurrent sweep from double-sending.
func (s *WorkLogHandler) SendNow(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		s.error(c, http.StatusBadRequest, "Invalid work log ID")
		return
	}

	var wl models.WorkLog
	if err := s.db.First(&wl, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			s.error(c, http.StatusNotFound, "Work log not found")
			return
		}
		s.error(c, http.StatusInternalServerError, "Database error")
		return
	}

	if !wl.EmailPending {
		event := wl.EmailEvent
		if event == "" {
			event = string(mailer.EventNew)
		}
		if err := s.db.Model(&models.WorkLog{}).Where("id = ?", wl.ID).Updates(map[string]interface{}{
			"email_pending":      true,
			"email_event":        event,
			"email_scheduled_at": time.Now().In(s.loc),
			"email_sent_at":      nil,
		}).Error; err != nil {
			s.error(c, http.StatusInternalServerError, "Database error")
			return
		}
	}

	if err := s.dispatcher.ClaimAndSend(c.Request.Context(), wl.ID); err != nil {
		s.error(c, http.StatusInternalServerError, "Failed to send: "+err.Error())
		return
	}

	s.success(c, gin.H{"sent": true})
}

// SweepPending delivers every scheduled notification whose time has passed.
// Same work the sendpending binary does, exposed for manual triggering.
func (s *WorkLogHandler) SweepPending(c *gin.Context) {
	sent, failed, err := s.dispatcher.SweepDue(c.Request.Context())
	if err != nil {
		s.error(c, http.StatusInternalServerError, "Sweep failed: "+err.Error())
		return
	}
	s.success(c, gin.H{"sent": sent, "failed": failed})
}

// --- Reference data ---

func (s *WorkLogHandler) ListVehicleLocations(c *gin.Context) {
	ctx := c.Request.Context()

	if cached, err := s.redis.Get(ctx, VEHICLE_LOCATIONS_CACHE_KEY).Result(); err == nil {
		var locations []models.VehicleLocation
		if json.Unmarshal([]byte(cached), &locations) == nil {
			s.success(c, locations)
			return
		}
	}

	var locations []models.VehicleLocation
	if err := s.db.Order("sort_index ASC, name ASC").Find(&locations).Error; err != nil {
		s.error(c, http.StatusInternalServerError, "Database error")
		return
	}

	if payload, err := json.Marshal(locations); err == nil {
		_ = s.redis.Set(ctx, VEHICLE_LOCATIONS_CACHE_KEY, payload, CACHE_TTL_MEDIUM)
	}

	s.success(c, locations)
}

type vehicleLocationRequest struct {
	LocationType string `json:"location_type"`
	Name         string `json:"name"`
	ShortNumber  string `json:"short_number"`
	FullNumber   string `json:"full_number"`
	Description  string `json:"description"`
	SortIndex    int    `json:"sort_index"`
}

func validLocationType(t string) bool {
	switch t {
	case models.LocationTypeCameleon, models.LocationTypeCondor,
		models.LocationTypeOutdoor, models.LocationTypeOffice:
		return true
	}
	return false
}

func (s *WorkLogHandler) CreateVehicleLocation(c *gin.Context) {
	var req vehicleLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.error(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Name == "" {
		s.error(c, http.StatusBadRequest, "Name is required")
		return
	}
	if req.LocationType == "" {
		req.LocationType = models.LocationTypeCameleon
	}
	if !validLocationType(req.LocationType) {
		s.error(c, http.StatusBadRequest, "Invalid location type: "+req.LocationType)
		return
	}

	location := models.VehicleLocation{
		LocationType: req.LocationType,
		Name:         req.Name,
		ShortNumber:  req.ShortNumber,
		FullNumber:   req.FullNumber,
		Description:  req.Description,
		SortIndex:    req.SortIndex,
	}
	if err := s.db.Create(&location).Error; err != nil {
		s.error(c, http.StatusInternalServerError, "Error creating vehicle/location")
		return
	}

	s.InvalidateWorklogCaches(c.Request.Context())
	s.success(c, location)
}

func (s *WorkLogHandler) ListJobStates(c *gin.Context) {
	ctx := c.Request.Context()

	if cached, err := s.redis.Get(ctx, JOB_STATES_CACHE_KEY).Result(); err == nil {
		var states []models.JobState
		if json.Unmarshal([]byte(cached), &states) == nil {
			s.success(c, states)
			return
		}
	}

	var states []models.JobState
	if err := s.db.Order("id ASC").Find(&states).Error; err != nil {
		s.error(c, http.StatusInternalServerError, "Database error")
		return
	}

	if payload, err := json.Marshal(states); err == nil {
		_ = s.redis.Set(ctx, JOB_STATES_CACHE_KEY, payload, CACHE_TTL_LONG)
	}

	s.success(c, states)
}

type jobStateRequest struct {
	ShortName   string `json:"short_name"`
	FullName    string `json:"full_name"`
	Description string `json:"description"`
}

func (s *WorkLogHandler) CreateJobState(c *gin.Context) {
	var req jobStateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.error(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.ShortName == "" || req.FullName == "" {
		s.error(c, http.StatusBadRequest, "short_name and full_name are required")
		return
	}

	state := models.JobState{
		ShortName:   strings.ToUpper(strings.TrimSpace(req.ShortName)),
		FullName:    req.FullName,
		Description: req.Description,
	}
	if err := s.db.Create(&state).Error; err != nil {
		s.error(c, http.StatusInternalServerError, "Error creating job state")
		return
	}

	s.InvalidateWorklogCaches(c.Request.Context())
	s.success(c, state)
}

// --- Settings ---

func (s *WorkLogHandler) GetWorkHours(c *gin.Context) {
	var hours models.StandardWorkHours
	if err := s.db.Where("singleton = ?", 1).First(&hours).Error; err != nil {
		s.error(c, http.StatusInternalServerError, "Database error")
		return
	}
	s.success(c, gin.H{"start_time": hours.StartTime, "end_time": hours.EndTime})
}

type workHoursRequest struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

func (s *WorkLogHandler) UpdateWorkHours(c *gin.Context) {
	var req workHoursRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.error(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	startH, startM, err := worklog.ParseClock(req.StartTime)
	if err != nil {
		s.error(c, http.StatusBadRequest, "start_time must be HH:MM")
		return
	}
	endH, endM, err := worklog.ParseClock(req.EndTime)
	if err != nil {
		s.error(c, http.StatusBadRequest, "end_time must be HH:MM")
		return
	}
	if endH*60+endM <= startH*60+startM {
		s.error(c, http.StatusBadRequest, "end_time must be after start_time")
		return
	}

	var hours models.StandardWorkHours
	if err := s.db.Where("singleton = ?", 1).First(&hours).Error; err != nil {
		s.error(c, http.StatusInternalServerError, "Database error")
		return
	}
	hours.StartTime = req.StartTime
	hours.EndTime = req.EndTime
	if err := s.db.Save(&hours).Error; err != nil {
		s.error(c, http.StatusInternalServerError, "Error updating work hours")
		return
	}

	s.success(c, gin.H{"start_time": hours.StartTime, "end_time": hours.EndTime})
}

func (s *WorkLogHandler) GetEditCondition(c *gin.Context) {
	var cond models.EditCondition
	if err := s.db.Where("singleton = ?", 1).First(&cond).Error; err != nil {
		s.error(c, http.StatusInternalServerError, "Database error")
		return
	}
	s.success(c, gin.H{
		"only_last_wl_editable":       cond.OnlyLastWLEditable,
		"editable_time_since_created": cond.EditableTimeSinceCreated,
	})
}

type editConditionRequest struct {
	OnlyLastWLEditable       *bool `json:"only_last_wl_editable"`
	EditableTimeSinceCreated *int  `json:"editable_time_since_created"`
}

func (s *WorkLogHandler) UpdateEditCondition(c *gin.Context) {
	var req editConditionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.error(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	var cond models.EditCondition
	if err := s.db.Where("singleton = ?", 1).First(&cond).Error; err != nil {
		s.error(c, http.StatusInternalServerError, "Database error")
		return
	}

	if req.OnlyLastWLEditable != nil {
		cond.OnlyLastWLEditable = *req.OnlyLastWLEditable
	}
	if req.EditableTimeSinceCreated != nil {
		if *req.EditableTimeSinceCreated < 0 {
			s.error(c, http.StatusBadRequest, "editable_time_since_created cannot be negative")
			return
		}
		cond.EditableTimeSinceCreated = *req.EditableTimeSinceCreated
	}

	if err := s.db.Save(&cond).Error; err != nil {
		s.error(c, http.StatusInternalServerError, "Error updating edit condition")
		return
	}

	s.success(c, gin.H{
		"only_last_wl_editable":       cond.OnlyLastWLEditable,
		"editable_time_since_created": cond.EditableTimeSinceCreated,
	})
}

func (s *WorkLogHandler) GetEmailSettings(c *gin.Context) {
	var settings models.WorklogEmailSettings
	if err := s.db.Where("singleton = ?", 1).First(&settings).Error; err != nil {
		s.error(c, http.StatusInternalServerError, "Database error")
		return
	}
	s.success(c, gin.H{
		"send_new":              settings.SendNew,
		"send_edit":             settings.SendEdit,
		"recipient_email":       settings.RecipientEmail,
		"enable_scheduled_send": settings.EnableScheduledSend,
		"users":                 settings.Users,
	})
}

type emailSettingsRequest struct {
	SendNew             *bool     `json:"send_new"`
	SendEdit            *bool     `json:"send_edit"`
	RecipientEmail      *string   `json:"recipient_email"`
	EnableScheduledSend *bool     `json:"enable_scheduled_send"`
	Users               *[]string `json:"users"`
}

func (s *WorkLogHandler) UpdateEmailSettings(c *gin.Context) {
	var req emailSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.error(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	var settings models.WorklogEmailSettings
	if err := s.db.Where("singleton = ?", 1).First(&settings).Error; err != nil {
		s.error(c, http.StatusInternalServerError, "Database error")
		return
	}

	if req.SendNew != nil {
		settings.SendNew = *req.SendNew
	}
	if req.SendEdit != nil {
		settings.SendEdit = *req.SendEdit
	}
	if req.RecipientEmail != nil {
		settings.RecipientEmail = strings.TrimSpace(*req.RecipientEmail)
	}
	if req.EnableScheduledSend != nil {
		settings.EnableScheduledSend = *req.EnableScheduledSend
	}
	if req.Users != nil {
		settings.Users = models.StringArray(*req.Users)
	}

	if err := s.db.Save(&settings).Error; err != nil {
		s.error(c, http.StatusInternalServerError, "Error updating e-mail settings")
		return
	}

	s.success(c, gin.H{
		"send_new":              settings.SendNew,
		"send_edit":             settings.SendEdit,
		"recipient_email":       settings.RecipientEmail,
		"enable_scheduled_send": settings.EnableScheduledSend,
		"users":                 settings.Users,
	})
}

func (s *WorkLogHandler) GetAdminEmailSettings(c *gin.Context) {
	var settings models.AdminEmailSettings
	if err := s.db.Where("singleton = ?", 1).First(&settings).Error; err != nil {
		s.error(c, http.StatusInternalServerError, "Database error")
		return
	}
	// The SMTP password never leaves the server.
	s.success(c, gin.H{
		"smtp_host":     settings.SMTPHost,
		"smtp_port":     settings.SMTPPort,
		"use_tls":       settings.UseTLS,
		"use_ssl":       settings.UseSSL,
		"smtp_username": settings.SMTPUsername,
		"from_email":    settings.FromEmail,
		"timeout_secs":  settings.TimeoutSecs,
	})
}

type adminEmailSettingsRequest struct {
	SMTPHost     *string `json:"smtp_host"`
	SMTPPort     *int    `json:"smtp_port"`
	UseTLS       *bool   `json:"use_tls"`
	UseSSL       *bool   `json:"use_ssl"`
	SMTPUsername *string `json:"smtp_username"`
	SMTPPassword *string `json:"smtp_password"`
	FromEmail    *string `json:"from_email"`
	TimeoutSecs  *int    `json:"timeout_secs"`
}

func (s *WorkLogHandler) UpdateAdminEmailSettings(c *gin.Context) {
	var req adminEmailSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.error(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	var settings models.AdminEmailSettings
	if err := s.db.Where("singleton = ?", 1).First(&settings).Error; err != nil {
		s.error(c, http.StatusInternalServerError, "Database error")
		return
	}

	if req.SMTPHost != nil {
		settings.SMTPHost = *req.SMTPHost
	}
	if req.SMTPPort != nil {
		settings.SMTPPort = *req.SMTPPort
	}
	if req.UseTLS != nil {
		settings.UseTLS = *req.UseTLS
	}
	if req.UseSSL != nil {
		settings.UseSSL = *req.UseSSL
	}
	if req.SMTPUsername != nil {
		settings.SMTPUsername = *req.SMTPUsername
	}
	if req.SMTPPassword != nil {
		settings.SMTPPassword = *req.SMTPPassword
	}
	if req.FromEmail != nil {
		settings.FromEmail = *req.FromEmail
	}
	if req.TimeoutSecs != nil {
		settings.TimeoutSecs = *req.TimeoutSecs
	}

	if err := s.db.Save(&settings).Error; err != nil {
		s.error(c, http.StatusInternalServerError, "Error updating SMTP settings")
		return
	}

	s.success(c, gin.H{"updated": true})
}
