package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/jcskyweavermedia/alamo-ai-manual-v2-sub000/internal/middleware"
	"github.com/jcskyweavermedia/alamo-ai-manual-v2-sub000/internal/services"
	"github.com/jcskyweavermedia/alamo-ai-manual-v2-sub000/pkg/response"
)

type EntityHandler struct {
	resolver *services.EntityResolver
}

func NewEntityHandler(resolver *services.EntityResolver) *EntityHandler {
	return &EntityHandler{resolver: resolver}
}

// ListEntities returns the caller's tracked-entity universe.
// GET /api/entities
func (h *EntityHandler) ListEntities(c *gin.Context) {
	groupID := middleware.GetGroupID(c)

	set, err := h.resolver.Resolve(c.Request.Context(), groupID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNoGroup):
			response.Error(c, response.NewForbidden("no group associated with this account"))
		case errors.Is(err, services.ErrNoOwnedEntities):
			response.Error(c, response.NewNotFound("no tracked locations found for this group"))
		default:
			response.Error(c, response.NewServerError("failed to load tracked entities"))
		}
		return
	}

	response.Success(c, set)
}
