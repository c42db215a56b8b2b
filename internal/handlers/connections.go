package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"health-vault-server/internal/middleware"
	"health-vault-server/internal/models"
	"health-vault-server/internal/services"
	"health-vault-server/internal/utils"
)

// ConnectionHandler handles the doctor-patient consent workflow.
type ConnectionHandler struct {
	Service *services.ConnectionService
}

// NewConnectionHandler creates a new ConnectionHandler.
func NewConnectionHandler(service *services.ConnectionService) *ConnectionHandler {
	return &ConnectionHandler{Service: service}
}

// ConnectionResponse is the API shape of a ledger entry, with the
// counterparties sanitized when they were preloaded.
type ConnectionResponse struct {
	ID         string                  `json:"id"`
	DoctorID   string                  `json:"doctorId"`
	PatientID  string                  `json:"patientId"`
	Status     models.ConnectionStatus `json:"status"`
	CreatedAt  time.Time               `json:"createdAt"`
	ResolvedAt *time.Time              `json:"resolvedAt,omitempty"`
	Doctor     *models.UserSanitized   `json:"doctor,omitempty"`
	Patient    *models.UserSanitized   `json:"patient,omitempty"`
}

func toConnectionResponse(conn models.Connection) ConnectionResponse {
	resp := ConnectionResponse{
		ID:         conn.ID,
		DoctorID:   conn.DoctorID,
		PatientID:  conn.PatientID,
		Status:     conn.Status,
		CreatedAt:  conn.CreatedAt,
		ResolvedAt: conn.ResolvedAt,
	}
	if conn.Doctor.ID != "" {
		doctor := conn.Doctor.Sanitize()
		resp.Doctor = &doctor
	}
	if conn.Patient.ID != "" {
		patient := conn.Patient.Sanitize()
		resp.Patient = &patient
	}
	return resp
}

func toConnectionResponses(conns []models.Connection) []ConnectionResponse {
	responses := make([]ConnectionResponse, len(conns))
	for i, conn := range conns {
		responses[i] = toConnectionResponse(conn)
	}
	return responses
}

// RequestConnectionRequest represents the request body for a connection request.
type RequestConnectionRequest struct {
	PatientID string `json:"patientId" binding:"required,uuid"`
}

// RequestConnection handles a doctor requesting access to a patient.
// Only accessible by doctors.
func (h *ConnectionHandler) RequestConnection(c *gin.Context) {
	var req RequestConnectionRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	caller, ok := middleware.CallerFromContext(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	conn, err := h.Service.Request(c.Request.Context(), caller, req.PatientID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.Created(c, "Connection requested successfully", toConnectionResponse(*conn))
}

// ResolveConnectionRequest represents the request body for approving or
// denying a pending connection.
type ResolveConnectionRequest struct {
	Status models.ConnectionStatus `json:"status" binding:"required,oneof=approved denied"`
}

// ResolveConnection handles the addressed patient approving or denying a
// pending connection request.
func (h *ConnectionHandler) ResolveConnection(c *gin.Context) {
	connectionID := c.Param("id")

	var req ResolveConnectionRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	caller, ok := middleware.CallerFromContext(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	conn, err := h.Service.Resolve(c.Request.Context(), caller, connectionID, req.Status)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.Success(c, "Connection "+string(req.Status), toConnectionResponse(*conn))
}

// ListPendingConnections returns pending connections for the caller,
// whichever side of the pair they are on.
func (h *ConnectionHandler) ListPendingConnections(c *gin.Context) {
	caller, ok := middleware.CallerFromContext(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	conns, err := h.Service.ListPending(c.Request.Context(), caller)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.Success(c, "Pending connections fetched successfully", toConnectionResponses(conns))
}

// ListApprovedConnections returns approved connections for the caller.
func (h *ConnectionHandler) ListApprovedConnections(c *gin.Context) {
	caller, ok := middleware.CallerFromContext(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	conns, err := h.Service.ListApproved(c.Request.Context(), caller)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.Success(c, "Approved connections fetched successfully", toConnectionResponses(conns))
}
