package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/storelink/transfer-api/internal/application/dto"
	"github.com/storelink/transfer-api/internal/application/sync"
	"github.com/storelink/transfer-api/internal/application/transfer"
	"github.com/storelink/transfer-api/internal/domain"
)

// SyncHandler exposes the outbox admin surface: inspect dead-lettered events,
// requeue them after the upstream problem is fixed, cancel pending ones.
type SyncHandler struct {
	dispatcher *sync.Dispatcher
	authority  *transfer.AuthorityService
}

// NewSyncHandler builds the handler.
func NewSyncHandler(dispatcher *sync.Dispatcher, authority *transfer.AuthorityService) *SyncHandler {
	return &SyncHandler{dispatcher: dispatcher, authority: authority}
}

// RequireAdmin blocks users without the admin role on any store.
func (h *SyncHandler) RequireAdmin(c *fiber.Ctx) error {
	ok, err := h.authority.IsAdmin(c.Context(), GetUserID(c))
	if err != nil {
		return fail(c, err)
	}
	if !ok {
		return fail(c, domain.ErrForbidden)
	}
	return c.Next()
}

// ListFailed godoc
// @Summary      List permanently failed sync events
// @Tags         sync
// @Security     Bearer
// @Produce      json
// @Param        limit  query  int  false  "max events to return (default 100)"
// @Success      200  {array}   dto.SyncEventResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/sync/failed [get]
func (h *SyncHandler) ListFailed(c *fiber.Ctx) error {
	events, err := h.dispatcher.ListFailed(c.Context(), c.QueryInt("limit"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(dto.ToSyncEventResponses(events))
}

// Requeue godoc
// @Summary      Requeue a permanently failed sync event
// @Tags         sync
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "sync event id"
// @Success      200  {object}  map[string]string
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/sync/failed/{id}/requeue [post]
func (h *SyncHandler) Requeue(c *fiber.Ctx) error {
	if err := h.dispatcher.Requeue(c.Context(), c.Params("id")); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "event requeued"})
}

// CancelPending godoc
// @Summary      Cancel a sync event that has not been attempted yet
// @Tags         sync
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "sync event id"
// @Success      200  {object}  map[string]string
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/sync/pending/{id} [delete]
func (h *SyncHandler) CancelPending(c *fiber.Ctx) error {
	if err := h.dispatcher.CancelPending(c.Context(), c.Params("id")); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "event cancelled"})
}
