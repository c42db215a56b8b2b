package handlers

import (
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"health-vault-server/internal/middleware"
	"health-vault-server/internal/models"
	"health-vault-server/internal/services"
	"health-vault-server/internal/storage"
	"health-vault-server/internal/utils"
)

// HealthRecordHandler handles the append-only record store endpoints.
type HealthRecordHandler struct {
	Service  *services.RecordService
	Uploader *storage.Uploader
}

// NewHealthRecordHandler creates a new HealthRecordHandler.
func NewHealthRecordHandler(service *services.RecordService, uploader *storage.Uploader) *HealthRecordHandler {
	return &HealthRecordHandler{Service: service, Uploader: uploader}
}

// CreateHealthRecordRequest represents the request body for appending a record.
type CreateHealthRecordRequest struct {
	Type          models.RecordType `json:"type" binding:"required"`
	Title         string            `json:"title" binding:"required"`
	Content       string            `json:"content" binding:"required"`
	Date          string            `json:"date" binding:"required"`
	BloodPressure string            `json:"bloodPressure"`
	PulseRate     *int              `json:"pulseRate"`
	AttachmentURL string            `json:"attachmentUrl"`
}

// CreateHealthRecord appends a new record owned by the calling patient.
// Only accessible by patients.
func (h *HealthRecordHandler) CreateHealthRecord(c *gin.Context) {
	var req CreateHealthRecordRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	caller, ok := middleware.CallerFromContext(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	record, err := h.Service.Append(c.Request.Context(), caller.ID, services.AppendRecordCommand{
		Type:          req.Type,
		Title:         req.Title,
		Content:       req.Content,
		RecordDate:    req.Date,
		BloodPressure: req.BloodPressure,
		PulseRate:     req.PulseRate,
		AttachmentURL: req.AttachmentURL,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.Created(c, "Health record created successfully", record)
}

// GetMyHealthRecords returns the calling patient's own records, newest first.
func (h *HealthRecordHandler) GetMyHealthRecords(c *gin.Context) {
	caller, ok := middleware.CallerFromContext(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	records, err := h.Service.ListOwn(c.Request.Context(), caller)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.Success(c, "Health records fetched successfully", records)
}

// GetPatientHealthRecords returns a patient's records to a connected doctor.
// Only accessible by doctors holding an approved connection to the patient.
func (h *HealthRecordHandler) GetPatientHealthRecords(c *gin.Context) {
	patientID := c.Param("patientId")

	caller, ok := middleware.CallerFromContext(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	records, err := h.Service.ListForDoctor(c.Request.Context(), caller, patientID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.Success(c, "Health records fetched successfully", records)
}

// UploadAttachment stores a record attachment and returns its public URL.
// The returned URL is meant to be passed back on record creation.
func (h *HealthRecordHandler) UploadAttachment(c *gin.Context) {
	if h.Uploader == nil {
		utils.ServiceUnavailable(c, "Attachment storage is not configured")
		return
	}

	caller, ok := middleware.CallerFromContext(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		utils.BadRequest(c, "A file is required")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		utils.InternalServerError(c, "Failed to read uploaded file")
		return
	}
	defer file.Close()

	key := "user_files/" + caller.ID + "/" + uuid.NewString() + filepath.Ext(fileHeader.Filename)
	url, err := h.Uploader.Upload(c.Request.Context(), key, fileHeader.Header.Get("Content-Type"), file)
	if err != nil {
		utils.InternalServerError(c, "Failed to store uploaded file")
		return
	}

	utils.Created(c, "Attachment uploaded successfully", gin.H{"url": url})
}
