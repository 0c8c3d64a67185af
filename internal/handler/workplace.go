package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"carpool/internal/domain"
)

// WorkplaceHandler serves the workplace catalogue.
type WorkplaceHandler struct {
	workplaces func() []domain.Workplace
}

// NewWorkplaceHandler creates a new WorkplaceHandler.
func NewWorkplaceHandler(workplaces func() []domain.Workplace) *WorkplaceHandler {
	return &WorkplaceHandler{workplaces: workplaces}
}

// GetAll handles GET /v1/workplaces
func (h *WorkplaceHandler) GetAll(c *gin.Context) {
	respondJSON(c, http.StatusOK, h.workplaces())
}
