package handlers

import (
	"encoding/json"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"isabet-pos/hub"
	"isabet-pos/models"
	"isabet-pos/utils"
)

func (h *Handler) getWaitersList(c *hub.Client, _ json.RawMessage) {
	var waiters []models.User
	if err := h.DB.Where("role = ?", models.RoleWaiter).Find(&waiters).Error; err != nil {
		utils.ErrorLogger.Printf("loading waiters: %v", err)
		h.fail(c, "error", "could not load waiters")
		return
	}

	msg := hub.Message{
		Type:    "waiters_list",
		Payload: map[string]interface{}{"waiters": waiters},
	}
	if err := c.Send(msg); err != nil {
		utils.ErrorLogger.Printf("sending waiters list: %v", err)
	}
}

func (h *Handler) addWaiter(c *hub.Client, payload json.RawMessage) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.Unmarshal(payload, &req); err != nil || req.Username == "" || req.Password == "" {
		h.fail(c, "waiter_operation_fail", "username and password are required")
		return
	}

	var existing models.User
	if err := h.DB.Where("username = ?", req.Username).First(&existing).Error; err == nil {
		h.fail(c, "waiter_operation_fail", "this username already exists")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		utils.ErrorLogger.Printf("hashing password: %v", err)
		h.fail(c, "waiter_operation_fail", "could not create waiter")
		return
	}

	user := models.User{Username: req.Username, Password: string(hashed), Role: models.RoleWaiter}
	if err := h.DB.Create(&user).Error; err != nil {
		utils.ErrorLogger.Printf("creating waiter %q: %v", req.Username, err)
		h.fail(c, "waiter_operation_fail", "could not create waiter")
		return
	}

	h.success(c, "waiter_operation_success", fmt.Sprintf("%s added as waiter", user.Username))
}

func (h *Handler) editWaiterPassword(c *hub.Client, payload json.RawMessage) {
	var req struct {
		UserID      uint   `json:"userId"`
		NewPassword string `json:"newPassword"`
	}
	if err := json.Unmarshal(payload, &req); err != nil || req.NewPassword == "" {
		h.fail(c, "waiter_operation_fail", "new password is required")
		return
	}

	var waiter models.User
	if err := h.DB.Where("id = ? AND role = ?", req.UserID, models.RoleWaiter).First(&waiter).Error; err != nil {
		h.fail(c, "waiter_operation_fail", "waiter not found")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		utils.ErrorLogger.Printf("hashing password: %v", err)
		h.fail(c, "waiter_operation_fail", "could not update password")
		return
	}

	waiter.Password = string(hashed)
	if err := h.DB.Save(&waiter).Error; err != nil {
		utils.ErrorLogger.Printf("updating waiter %d: %v", waiter.ID, err)
		h.fail(c, "waiter_operation_fail", "could not update password")
		return
	}

	h.success(c, "waiter_operation_success", fmt.Sprintf("password updated for %s", waiter.Username))
}

// deleteWaiter only matches waiter-role rows, so seeded cashier accounts can
// never be removed through this command.
func (h *Handler) deleteWaiter(c *hub.Client, payload json.RawMessage) {
	var req struct {
		UserID uint `json:"userId"`
	}
	if err := json.Unmarshal(payload, &req); err != nil {
		h.fail(c, "waiter_operation_fail", "invalid payload")
		return
	}

	res := h.DB.Where("id = ? AND role = ?", req.UserID, models.RoleWaiter).Delete(&models.User{})
	if res.Error != nil {
		utils.ErrorLogger.Printf("deleting waiter %d: %v", req.UserID, res.Error)
		h.fail(c, "waiter_operation_fail", "could not delete waiter")
		return
	}
	if res.RowsAffected == 0 {
		h.fail(c, "waiter_operation_fail", "waiter not found or not deletable (cashier accounts are permanent)")
		return
	}

	h.success(c, "waiter_operation_success", "waiter deleted")
}
