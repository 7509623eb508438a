package handlers

import (
	"encoding/json"
	"fmt"

	"gorm.io/gorm"

	"isabet-pos/hub"
	"isabet-pos/models"
	"isabet-pos/state"
	"isabet-pos/utils"
)

// Handler executes inbound command frames against the shared POS state.
type Handler struct {
	DB    *gorm.DB
	State *state.State
	Hub   *hub.Hub
}

func New(db *gorm.DB, st *state.State, h *hub.Hub) *Handler {
	return &Handler{DB: db, State: st, Hub: h}
}

// Envelope is the inbound wire frame: {"type": ..., "payload": {...}}.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// roleAny marks commands open to any authenticated session.
const roleAny = "any"

// command declares who may run an operation and which frame type its
// failures use. The session and role checks happen once here at dispatch,
// never inside individual handlers.
type command struct {
	role     string // "" = no session required
	failType string
	run      func(h *Handler, c *hub.Client, payload json.RawMessage)
}

var commands = map[string]command{
	"login":          {run: (*Handler).login},
	"reauthenticate": {run: (*Handler).reauthenticate},
	"logout":         {run: (*Handler).logout},

	"add_order_item":        {role: roleAny, failType: "order_update_fail", run: (*Handler).addOrderItem},
	"add_manual_order_item": {role: models.RoleCashier, failType: "manual_order_update_fail", run: (*Handler).addManualOrderItem},
	"remove_order_item":     {role: roleAny, failType: "order_update_fail", run: (*Handler).removeOrderItem},

	"close_table":     {role: models.RoleCashier, failType: "table_operation_fail", run: (*Handler).closeTable},
	"add_table":       {role: models.RoleCashier, failType: "table_operation_fail", run: (*Handler).addTable},
	"edit_table_name": {role: models.RoleCashier, failType: "table_operation_fail", run: (*Handler).editTableName},
	"delete_table":    {role: models.RoleCashier, failType: "table_operation_fail", run: (*Handler).deleteTable},

	"complete_quick_sale": {role: models.RoleCashier, failType: "quick_sale_fail", run: (*Handler).completeQuickSale},
	"get_sales_report":    {role: models.RoleCashier, failType: "error", run: (*Handler).getSalesReport},

	"add_product_to_main_menu": {role: models.RoleCashier, failType: "error", run: (*Handler).addProduct},
	"update_main_menu_product": {role: models.RoleCashier, failType: "error", run: (*Handler).updateProduct},
	"bulk_update_products":     {role: models.RoleCashier, failType: "bulk_update_products_fail", run: (*Handler).bulkUpdateProducts},

	"get_waiters_list":     {role: models.RoleCashier, failType: "error", run: (*Handler).getWaitersList},
	"add_waiter":           {role: models.RoleCashier, failType: "waiter_operation_fail", run: (*Handler).addWaiter},
	"edit_waiter_password": {role: models.RoleCashier, failType: "waiter_operation_fail", run: (*Handler).editWaiterPassword},
	"delete_waiter":        {role: models.RoleCashier, failType: "waiter_operation_fail", run: (*Handler).deleteWaiter},
}

// HandleMessage decodes one frame, applies the role gate and runs the
// handler under the state lock, so commands serialize fully: mutation,
// persistence and broadcast finish before the next command starts.
func (h *Handler) HandleMessage(c *hub.Client, raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		utils.ErrorLogger.Printf("malformed frame: %v", err)
		h.fail(c, "error", "invalid message format")
		return
	}

	cmd, ok := commands[env.Type]
	if !ok {
		utils.InfoLogger.Printf("unknown request type: %s", env.Type)
		h.fail(c, "error", fmt.Sprintf("unknown request type: %s", env.Type))
		return
	}

	if cmd.role != "" {
		if !c.Authenticated() {
			h.fail(c, cmd.failType, "not logged in")
			return
		}
		if cmd.role != roleAny && c.Role() != cmd.role {
			h.fail(c, cmd.failType, "permission denied")
			return
		}
	}

	h.State.Lock()
	defer h.State.Unlock()
	cmd.run(h, c, env.Payload)
}

// fail sends the operation's failure frame to the acting connection. Generic
// "error" frames carry a message key, operation failures an error key,
// matching what terminals expect per frame type.
func (h *Handler) fail(c *hub.Client, failType, msg string) {
	key := "error"
	if failType == "error" {
		key = "message"
	}
	if err := c.Send(hub.Message{Type: failType, Payload: map[string]interface{}{key: msg}}); err != nil {
		utils.ErrorLogger.Printf("sending %s: %v", failType, err)
	}
}

func (h *Handler) success(c *hub.Client, successType, msg string) {
	if err := c.Send(hub.Message{Type: successType, Payload: map[string]interface{}{"message": msg}}); err != nil {
		utils.ErrorLogger.Printf("sending %s: %v", successType, err)
	}
}
