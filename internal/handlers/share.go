package handlers

import (
	"github.com/gin-gonic/gin"

	"health-vault-server/internal/config"
	"health-vault-server/internal/middleware"
	"health-vault-server/internal/services"
	"health-vault-server/internal/utils"
)

// ShareHandler handles issuing share links and resolving them anonymously.
type ShareHandler struct {
	Service *services.ShareService
	Cfg     *config.Config
}

// NewShareHandler creates a new ShareHandler.
func NewShareHandler(service *services.ShareService, cfg *config.Config) *ShareHandler {
	return &ShareHandler{Service: service, Cfg: cfg}
}

// CreateShareLink issues a new share token bound to the calling patient.
// Only accessible by patients.
func (h *ShareHandler) CreateShareLink(c *gin.Context) {
	caller, ok := middleware.CallerFromContext(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	link, err := h.Service.Issue(c.Request.Context(), caller)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.Created(c, "Share link created successfully", gin.H{
		"shareId":  link.ID,
		"shareUrl": h.Cfg.AppURL + "/share/" + link.ID,
	})
}

// ResolveShareLink returns the shared patient's records for a token. This is
// a public endpoint: holding the token is the only credential.
func (h *ShareHandler) ResolveShareLink(c *gin.Context) {
	shareID := c.Param("shareId")

	patientID, records, err := h.Service.Resolve(c.Request.Context(), shareID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.Success(c, "Shared records fetched successfully", gin.H{
		"patientId": patientID,
		"records":   records,
	})
}
