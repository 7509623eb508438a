package handlers

import (
	"encoding/json"
	"fmt"
	"time"

	"isabet-pos/hub"
	"isabet-pos/models"
	"isabet-pos/utils"
)

// closeTable settles a table: every open line becomes a sales archive row,
// then the table is reset to empty. The archive rows are written before any
// in-memory state changes, so a persistence failure leaves the table open.
// Closing an already-empty table succeeds and archives nothing.
func (h *Handler) closeTable(c *hub.Client, payload json.RawMessage) {
	var req struct {
		TableID string `json:"tableId"`
	}
	if err := json.Unmarshal(payload, &req); err != nil {
		h.fail(c, "table_operation_fail", "invalid payload")
		return
	}

	table := h.State.FindTable(req.TableID)
	if table == nil {
		h.fail(c, "table_operation_fail", "table not found")
		return
	}

	total := table.Total
	if len(table.Order) > 0 {
		now := time.Now().UnixMilli()
		sales := make([]models.Sale, 0, len(table.Order))
		for _, line := range table.Order {
			sales = append(sales, models.Sale{
				ProductID:        line.ProductID,
				Name:             line.Name,
				PriceAtOrder:     line.PriceAtOrder,
				Quantity:         line.Quantity,
				Description:      line.Description,
				WaiterUsername:   line.WaiterUsername,
				Timestamp:        line.Timestamp,
				TableName:        table.Name,
				ClosingTimestamp: now,
				ClosedBy:         c.Username(),
			})
		}
		if err := h.DB.Create(&sales).Error; err != nil {
			utils.ErrorLogger.Printf("closing %s: archiving sales failed: %v", table.ID, err)
			h.fail(c, "table_operation_fail", "could not record the sale, table left open")
			return
		}
	}

	table.Order = []models.OrderLine{}
	table.Status = models.TableStatusEmpty
	table.Total = 0
	table.WaiterUsername = nil

	h.Hub.BroadcastTables(h.State.Tables)
	h.success(c, "table_operation_success",
		fmt.Sprintf("%s closed, %s recorded", table.Name, utils.FormatCurrency(total)))
	utils.InfoLogger.Printf("%s closed by %s (total %.2f)", table.ID, c.Username(), total)
}

func (h *Handler) addTable(c *hub.Client, payload json.RawMessage) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(payload, &req); err != nil || req.Name == "" {
		h.fail(c, "table_operation_fail", "table name is required")
		return
	}

	table := h.State.AddTable(req.Name)
	h.Hub.BroadcastTables(h.State.Tables)
	h.success(c, "table_operation_success", fmt.Sprintf("%s added", table.Name))
}

func (h *Handler) editTableName(c *hub.Client, payload json.RawMessage) {
	var req struct {
		TableID string `json:"tableId"`
		NewName string `json:"newName"`
	}
	if err := json.Unmarshal(payload, &req); err != nil || req.NewName == "" {
		h.fail(c, "table_operation_fail", "new table name is required")
		return
	}

	table := h.State.FindTable(req.TableID)
	if table == nil {
		h.fail(c, "table_operation_fail", "table not found")
		return
	}

	table.Name = req.NewName
	h.Hub.BroadcastTables(h.State.Tables)
	h.success(c, "table_operation_success", fmt.Sprintf("table renamed: %s", req.NewName))
}

// deleteTable removes a table unconditionally. An occupied table is deleted
// along with its open order; terminals are expected to confirm with the
// cashier first.
func (h *Handler) deleteTable(c *hub.Client, payload json.RawMessage) {
	var req struct {
		TableID string `json:"tableId"`
	}
	if err := json.Unmarshal(payload, &req); err != nil {
		h.fail(c, "table_operation_fail", "invalid payload")
		return
	}

	if !h.State.RemoveTable(req.TableID) {
		h.fail(c, "table_operation_fail", "table to delete not found")
		return
	}

	h.Hub.BroadcastTables(h.State.Tables)
	h.success(c, "table_operation_success", "table deleted")
}
