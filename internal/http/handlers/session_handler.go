// Session HTTP handlers.
//
//   - POST   /sessions          (log in, returns a token and sets the cookie)
//   - DELETE /sessions/current  (log out)
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-gift-exchange/internal/http/middleware"
)

// LoginRequest is the JSON payload for logging in.
type LoginRequest struct {
	Identity   string `json:"identity" binding:"required" example:"ann"`
	Credential string `json:"credential" binding:"required" example:"correct horse"`
}

// SessionResponse carries the issued token. It is also set as an HttpOnly
// cookie; API clients send it as "Authorization: Bearer <token>".
type SessionResponse struct {
	Token     string    `json:"token" example:"q0lVfR1t2Yx0m8p5rC4aZb6nK3dE7gH9jW2sL1uV0oQ"`
	Identity  string    `json:"identity" example:"ann"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Login godoc
// @ID          login
// @Summary     Log in
// @Description Verifies the credential and issues a session token.
// @Tags        Sessions
// @Accept      json
// @Produce     json
// @Param       body  body      handlers.LoginRequest  true  "Identity and credential"
// @Success     201   {object}  handlers.SessionResponse
// @Header      201   {string}  Set-Cookie  "session=<token>; HttpOnly"
// @Failure     400   {object}  handlers.ErrorResponse  "Malformed body"
// @Failure     401   {object}  handlers.ErrorResponse  "Invalid identity or credential"
// @Failure     429   {object}  handlers.ErrorResponse  "Too many attempts"
// @Router      /sessions [post]
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "identity and credential are required")
		return
	}
	sess, err := h.sessions.Login(c.Request.Context(), req.Identity, req.Credential)
	if err != nil {
		failWith(c, err)
		return
	}

	maxAge := int(time.Until(sess.ExpiresAt).Seconds())
	if maxAge < 1 {
		maxAge = 1
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, sess.Token, maxAge, "/", "", h.opts.CookieSecure, true)
	ok(c, http.StatusCreated, SessionResponse{Token: sess.Token, Identity: sess.Identity, ExpiresAt: sess.ExpiresAt})
}

// Logout godoc
// @ID          logout
// @Summary     Log out
// @Description Revokes the current session and clears the cookie.
// @Tags        Sessions
// @Security    SessionToken
// @Success     204  {string}  string  "No Content"
// @Failure     401  {object}  handlers.ErrorResponse  "Missing or invalid session"
// @Router      /sessions/current [delete]
func (h *Handlers) Logout(c *gin.Context) {
	if err := h.sessions.Logout(c.Request.Context(), middleware.SessionToken(c)); err != nil {
		failWith(c, err)
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", h.opts.CookieSecure, true)
	noContent(c)
}
