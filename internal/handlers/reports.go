package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"participium/api/internal/apperr"
	"participium/api/internal/middleware"
	"participium/api/internal/models"
	"participium/api/internal/service"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

func pagination(c *gin.Context) (limit, offset int) {
	limit = defaultPageSize
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if raw := c.Query("offset"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}

func (h *HandlerSet) photoURL(photo models.Photo) string {
	return h.uploads.PublicURL(photo)
}

func (h *HandlerSet) reportList(c *gin.Context, reports []models.Report) {
	out := make([]reportResponse, 0, len(reports))
	for _, report := range reports {
		out = append(out, newReportResponse(report, h.photoURL))
	}
	c.JSON(http.StatusOK, gin.H{"reports": out})
}

// CreateReport accepts a multipart form: text fields plus up to the
// configured number of image files under the "photos" field.
func (h *HandlerSet) CreateReport(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, h.log, apperr.FromKind(apperr.KindUnauthorized))
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		respondError(c, h.log, apperr.New(apperr.KindBadRequest, "Expected multipart form data."))
		return
	}

	files, err := service.ValidatePhotoBatch(form, h.cfg.Reports.MaxPhotos)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	category, ok := models.ParseReportCategory(c.PostForm("category"))
	if !ok {
		respondError(c, h.log, apperr.New(apperr.KindValidation, "Unknown report category."))
		return
	}

	latitude, err := strconv.ParseFloat(c.PostForm("latitude"), 64)
	if err != nil {
		respondError(c, h.log, apperr.New(apperr.KindValidation, "Latitude must be a number."))
		return
	}
	longitude, err := strconv.ParseFloat(c.PostForm("longitude"), 64)
	if err != nil {
		respondError(c, h.log, apperr.New(apperr.KindValidation, "Longitude must be a number."))
		return
	}

	report, err := h.reports.Create(c.Request.Context(), service.CreateReportInput{
		User:        user,
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		Category:    category,
		Latitude:    latitude,
		Longitude:   longitude,
		IsAnonymous: c.PostForm("isAnonymous") == "true",
		Files:       files,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, newReportResponse(report, h.photoURL))
}

// ListReports serves the public browse view. Staff get the unfiltered set,
// triage and rejected reports included.
func (h *HandlerSet) ListReports(c *gin.Context) {
	limit, offset := pagination(c)

	if user, ok := middleware.CurrentUser(c); ok && user.Role.IsStaff() {
		reports, err := h.reports.ListAll(c.Request.Context(), limit, offset)
		if err != nil {
			respondError(c, h.log, err)
			return
		}
		h.reportList(c, reports)
		return
	}

	reports, err := h.reports.ListPublic(c.Request.Context(), limit, offset)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	h.reportList(c, reports)
}

func (h *HandlerSet) ListMyReports(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, h.log, apperr.FromKind(apperr.KindUnauthorized))
		return
	}

	limit, offset := pagination(c)
	reports, err := h.reports.ListMine(c.Request.Context(), user.ID, limit, offset)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	h.reportList(c, reports)
}

// ListAllReports is the staff view: every report in every status.
func (h *HandlerSet) ListAllReports(c *gin.Context) {
	limit, offset := pagination(c)
	reports, err := h.reports.ListAll(c.Request.Context(), limit, offset)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	h.reportList(c, reports)
}

func (h *HandlerSet) GetReport(c *gin.Context) {
	var viewer *models.User
	if user, ok := middleware.CurrentUser(c); ok {
		viewer = &user
	}

	report, err := h.reports.Get(c.Request.Context(), viewer, c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, newReportResponse(report, h.photoURL))
}

type updateStatusRequest struct {
	Status         string `json:"status" binding:"required"`
	RejectedReason string `json:"rejectedReason"`
}

func (h *HandlerSet) UpdateReportStatus(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, h.log, apperr.FromKind(apperr.KindUnauthorized))
		return
	}

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.log, apperr.New(apperr.KindValidation, "Status is required."))
		return
	}

	next, ok := models.ParseReportStatus(req.Status)
	if !ok {
		respondError(c, h.log, apperr.New(apperr.KindValidation, "Unknown report status."))
		return
	}

	report, err := h.reports.Transition(c.Request.Context(), user, c.Param("id"), next, req.RejectedReason)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, newReportResponse(report, h.photoURL))
}

func (h *HandlerSet) AddReportPhotos(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, h.log, apperr.FromKind(apperr.KindUnauthorized))
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		respondError(c, h.log, apperr.New(apperr.KindBadRequest, "Expected multipart form data."))
		return
	}

	files, err := service.ValidatePhotoBatch(form, h.cfg.Reports.MaxPhotos)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	report, err := h.reports.AddPhotos(c.Request.Context(), user, c.Param("id"), files)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, newReportResponse(report, h.photoURL))
}

func (h *HandlerSet) ListReportMessages(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, h.log, apperr.FromKind(apperr.KindUnauthorized))
		return
	}

	report, err := h.reports.Get(c.Request.Context(), &user, c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	out := make([]messageResponse, 0, len(report.Messages))
	for _, message := range report.Messages {
		out = append(out, newMessageResponse(message))
	}
	c.JSON(http.StatusOK, gin.H{"messages": out})
}

type addMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

func (h *HandlerSet) AddReportMessage(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, h.log, apperr.FromKind(apperr.KindUnauthorized))
		return
	}

	var req addMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.log, apperr.New(apperr.KindValidation, "Message content is required."))
		return
	}

	message, err := h.reports.AddMessage(c.Request.Context(), user, c.Param("id"), req.Content)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, newMessageResponse(message))
}

func (h *HandlerSet) ListReportNotes(c *gin.Context) {
	notes, err := h.reports.ListNotes(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	out := make([]noteResponse, 0, len(notes))
	for _, note := range notes {
		out = append(out, newNoteResponse(note))
	}
	c.JSON(http.StatusOK, gin.H{"notes": out})
}

type addNoteRequest struct {
	Content string `json:"content" binding:"required"`
}

func (h *HandlerSet) AddReportNote(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, h.log, apperr.FromKind(apperr.KindUnauthorized))
		return
	}

	var req addNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.log, apperr.New(apperr.KindValidation, "Note content is required."))
		return
	}

	note, err := h.reports.AddNote(c.Request.Context(), user, c.Param("id"), req.Content)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, newNoteResponse(note))
}
