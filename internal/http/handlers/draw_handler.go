// Draw status HTTP handler.
//
//   - GET /draw  (public state of the assignment job)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// DrawStatus godoc
// @ID          drawStatus
// @Summary     Assignment job status
// @Description Reports the deadline, whether the draw has run, and how many participants are registered. Never reveals pairings or failure details.
// @Tags        Draw
// @Produce     json
// @Success     200  {object}  services.SchedulerStatus
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /draw [get]
func (h *Handlers) DrawStatus(c *gin.Context) {
	st, err := h.draw.Status(c.Request.Context())
	if err != nil {
		failWith(c, err)
		return
	}
	public := *st
	public.LastError = "" // operators read it from the logs or the status command
	ok(c, http.StatusOK, public)
}
