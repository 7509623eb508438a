package handlers

import (
	"encoding/json"

	"golang.org/x/crypto/bcrypt"

	"isabet-pos/hub"
	"isabet-pos/models"
	"isabet-pos/utils"
)

func (h *Handler) login(c *hub.Client, payload json.RawMessage) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.Unmarshal(payload, &req); err != nil {
		h.fail(c, "login_fail", "invalid username or password")
		return
	}

	var user models.User
	if err := h.DB.Where("username = ?", req.Username).First(&user).Error; err != nil {
		// Same answer for unknown user and wrong password.
		h.fail(c, "login_fail", "invalid username or password")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		h.fail(c, "login_fail", "invalid username or password")
		return
	}

	h.bindSession(c, user)
}

// reauthenticate restores a session after a reconnect. The terminal presents
// the signed token it received at login; a bare id/username claim is not
// accepted.
func (h *Handler) reauthenticate(c *hub.Client, payload json.RawMessage) {
	var req struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(payload, &req); err != nil || req.Token == "" {
		h.fail(c, "login_fail", "session invalid, please log in again")
		return
	}

	claims, err := utils.ParseToken(req.Token)
	if err != nil {
		h.fail(c, "login_fail", "session invalid, please log in again")
		return
	}

	var user models.User
	if err := h.DB.First(&user, claims.UserID).Error; err != nil || user.Username != claims.Username {
		h.fail(c, "login_fail", "session invalid, please log in again")
		return
	}

	h.bindSession(c, user)
}

func (h *Handler) logout(c *hub.Client, _ json.RawMessage) {
	if c.Authenticated() {
		utils.InfoLogger.Printf("%s logged out", c.Username())
	}
	c.ClearUser()
}

// bindSession attaches the identity to the connection and sends the full
// bootstrap snapshot so the terminal can render immediately.
func (h *Handler) bindSession(c *hub.Client, user models.User) {
	token, err := utils.GenerateToken(user.ID, user.Username, user.Role)
	if err != nil {
		utils.ErrorLogger.Printf("issuing token for %s: %v", user.Username, err)
		h.fail(c, "login_fail", "could not start session")
		return
	}

	c.BindUser(user)
	msg := hub.Message{
		Type: "login_success",
		Payload: map[string]interface{}{
			"user": map[string]interface{}{
				"id":       user.ID,
				"username": user.Username,
				"role":     user.Role,
			},
			"token":    token,
			"tables":   h.State.Tables,
			"products": h.State.Products,
		},
	}
	if err := c.Send(msg); err != nil {
		utils.ErrorLogger.Printf("sending login_success: %v", err)
		return
	}
	utils.InfoLogger.Printf("%s logged in (role=%s)", user.Username, user.Role)
}
