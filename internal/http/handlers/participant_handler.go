// Participant HTTP handlers.
//
//   - POST /participants        (register)
//   - GET  /me                  (own profile)
//   - PUT  /me/wishes           (replace wish list)
//   - PUT  /me/contact          (replace contact details)
//   - GET  /me/assignment       (who the caller gifts to, once drawn)
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-gift-exchange/internal/services"
)

//
// DTOs
//

// RegisterRequest is the JSON payload for registering a participant.
type RegisterRequest struct {
	Identity   string `json:"identity" binding:"required" example:"ann"`
	Credential string `json:"credential" binding:"required" example:"correct horse"`
}

// ParticipantResponse is returned after registration.
type ParticipantResponse struct {
	Identity  string    `json:"identity" example:"ann"`
	CreatedAt time.Time `json:"created_at"`
}

// ProfileResponse is the caller's own participant data.
type ProfileResponse struct {
	Identity    string    `json:"identity" example:"ann"`
	ContactInfo string    `json:"contact_info" example:"ann@example.com"`
	Wishes      string    `json:"wishes" example:"wool socks"`
	Assigned    bool      `json:"assigned"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UpdateWishesRequest replaces the wish list. An empty string clears it.
type UpdateWishesRequest struct {
	Wishes *string `json:"wishes" binding:"required" example:"wool socks, a good novel"`
}

// UpdateContactRequest replaces the contact details. An empty string clears them.
type UpdateContactRequest struct {
	ContactInfo *string `json:"contact_info" binding:"required" example:"ann@example.com"`
}

// AssignmentResponse is the caller's assignment. Before the draw Assigned is
// false and Deadline says when to come back.
type AssignmentResponse struct {
	Assigned   bool       `json:"assigned"`
	Assignment string     `json:"assignment,omitempty" example:"You are gifting to: bob\nContact: (none)\nWishes: tea"`
	Deadline   *time.Time `json:"deadline,omitempty"`
}

//
// Handlers
//

// Register godoc
// @ID          registerParticipant
// @Summary     Register a participant
// @Description Creates a participant with an empty wish list and contact details.
// @Tags        Participants
// @Accept      json
// @Produce     json
// @Param       body  body      handlers.RegisterRequest  true  "Identity and credential"
// @Success     201   {object}  handlers.ParticipantResponse
// @Failure     400   {object}  handlers.ErrorResponse  "Invalid identity or credential"
// @Failure     409   {object}  handlers.ErrorResponse  "Identity already registered"
// @Failure     429   {object}  handlers.ErrorResponse  "Too many attempts"
// @Failure     500   {object}  handlers.ErrorResponse  "Internal error"
// @Router      /participants [post]
func (h *Handlers) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "identity and credential are required")
		return
	}
	p, err := h.participants.Register(c.Request.Context(), req.Identity, req.Credential)
	if err != nil {
		failWith(c, err)
		return
	}
	ok(c, http.StatusCreated, ParticipantResponse{Identity: p.Identity, CreatedAt: p.CreatedAt})
}

// Me godoc
// @ID          getProfile
// @Summary     Get own profile
// @Tags        Me
// @Produce     json
// @Security    SessionToken
// @Success     200  {object}  handlers.ProfileResponse
// @Failure     401  {object}  handlers.ErrorResponse  "Missing or invalid session"
// @Failure     404  {object}  handlers.ErrorResponse  "Participant not found"
// @Router      /me [get]
func (h *Handlers) Me(c *gin.Context) {
	p, err := h.participants.Profile(c.Request.Context(), userID(c))
	if err != nil {
		failWith(c, err)
		return
	}
	ok(c, http.StatusOK, ProfileResponse{
		Identity:    p.Identity,
		ContactInfo: p.ContactInfo,
		Wishes:      p.Wishes,
		Assigned:    p.HasAssignment(),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	})
}

// UpdateWishes godoc
// @ID          updateWishes
// @Summary     Replace own wish list
// @Description Overwrites the wish list. Assignments already drawn keep the wishes captured at draw time.
// @Tags        Me
// @Accept      json
// @Produce     json
// @Security    SessionToken
// @Param       body  body  handlers.UpdateWishesRequest  true  "New wish list"
// @Success     204  {string}  string  "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Missing field or text too long"
// @Failure     401  {object}  handlers.ErrorResponse  "Missing or invalid session"
// @Failure     404  {object}  handlers.ErrorResponse  "Participant not found"
// @Router      /me/wishes [put]
func (h *Handlers) UpdateWishes(c *gin.Context) {
	var req UpdateWishesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "wishes is required")
		return
	}
	if err := h.participants.UpdateWishes(c.Request.Context(), userID(c), *req.Wishes); err != nil {
		failWith(c, err)
		return
	}
	noContent(c)
}

// UpdateContact godoc
// @ID          updateContact
// @Summary     Replace own contact details
// @Tags        Me
// @Accept      json
// @Produce     json
// @Security    SessionToken
// @Param       body  body  handlers.UpdateContactRequest  true  "New contact details"
// @Success     204  {string}  string  "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Missing field or text too long"
// @Failure     401  {object}  handlers.ErrorResponse  "Missing or invalid session"
// @Failure     404  {object}  handlers.ErrorResponse  "Participant not found"
// @Router      /me/contact [put]
func (h *Handlers) UpdateContact(c *gin.Context) {
	var req UpdateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "contact_info is required")
		return
	}
	if err := h.participants.UpdateContact(c.Request.Context(), userID(c), *req.ContactInfo); err != nil {
		failWith(c, err)
		return
	}
	noContent(c)
}

// GetAssignment godoc
// @ID          getAssignment
// @Summary     Get own assignment
// @Description Returns who the caller gifts to. Before the draw, assigned is false and the deadline is returned.
// @Tags        Me
// @Produce     json
// @Security    SessionToken
// @Success     200  {object}  handlers.AssignmentResponse
// @Failure     401  {object}  handlers.ErrorResponse  "Missing or invalid session"
// @Failure     404  {object}  handlers.ErrorResponse  "Participant not found"
// @Router      /me/assignment [get]
func (h *Handlers) GetAssignment(c *gin.Context) {
	record, err := h.participants.GetAssignment(c.Request.Context(), userID(c))
	switch {
	case err == nil:
		ok(c, http.StatusOK, AssignmentResponse{Assigned: true, Assignment: record})
	case errors.Is(err, services.ErrNotYetAssigned):
		deadline := h.opts.Deadline.UTC()
		ok(c, http.StatusOK, AssignmentResponse{Assigned: false, Deadline: &deadline})
	default:
		failWith(c, err)
	}
}
