package handlers

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"isabet-pos/hub"
	"isabet-pos/models"
)

// wireID tolerates terminals sending product ids as JSON numbers or strings.
// Catalog ids are numeric on the wire, manual lines carry "manual-<ms>".
type wireID string

func (id *wireID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*id = wireID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = wireID(n.String())
	return nil
}

// findLine locates the order line keyed by (productID, description), the
// identity pair for lines on a table.
func findLine(t *models.Table, productID, description string) *models.OrderLine {
	for i := range t.Order {
		if t.Order[i].ProductID == productID && t.Order[i].Description == description {
			return &t.Order[i]
		}
	}
	return nil
}

func (h *Handler) addOrderItem(c *hub.Client, payload json.RawMessage) {
	var req struct {
		TableID     string `json:"tableId"`
		ProductID   uint   `json:"productId"`
		Quantity    int    `json:"quantity"`
		Description string `json:"description"`
	}
	if err := json.Unmarshal(payload, &req); err != nil {
		h.fail(c, "order_update_fail", "invalid payload")
		return
	}
	if req.Quantity <= 0 {
		h.fail(c, "order_update_fail", "quantity must be positive")
		return
	}

	table := h.State.FindTable(req.TableID)
	product := h.State.FindProduct(req.ProductID)
	if table == nil || product == nil {
		h.fail(c, "order_update_fail", "table or product not found")
		return
	}

	pid := strconv.FormatUint(uint64(req.ProductID), 10)
	if line := findLine(table, pid, req.Description); line != nil {
		line.Quantity += req.Quantity
	} else {
		table.Order = append(table.Order, models.OrderLine{
			ProductID: pid,
			Name:      product.Name,
			// Captured now; later catalog price edits must not move it.
			PriceAtOrder:   product.Price,
			Quantity:       req.Quantity,
			Description:    req.Description,
			WaiterUsername: c.Username(),
			Timestamp:      time.Now().UnixMilli(),
		})
	}

	table.Status = models.TableStatusOccupied
	if table.WaiterUsername == nil {
		name := c.Username()
		table.WaiterUsername = &name
	}
	h.State.RecomputeTotal(table)

	h.Hub.BroadcastTables(h.State.Tables)
	h.success(c, "order_update_success", fmt.Sprintf("%s added to %s", product.Name, table.Name))
}

func (h *Handler) addManualOrderItem(c *hub.Client, payload json.RawMessage) {
	var req struct {
		TableID     string  `json:"tableId"`
		Name        string  `json:"name"`
		Price       float64 `json:"price"`
		Quantity    int     `json:"quantity"`
		Description string  `json:"description"`
	}
	if err := json.Unmarshal(payload, &req); err != nil {
		h.fail(c, "manual_order_update_fail", "invalid payload")
		return
	}
	if req.Name == "" || req.Price < 0 || req.Quantity <= 0 {
		h.fail(c, "manual_order_update_fail", "name, price and quantity are required")
		return
	}

	table := h.State.FindTable(req.TableID)
	if table == nil {
		h.fail(c, "manual_order_update_fail", "table not found")
		return
	}

	table.Order = append(table.Order, models.OrderLine{
		ProductID:      fmt.Sprintf("manual-%d", time.Now().UnixMilli()),
		Name:           req.Name,
		PriceAtOrder:   req.Price,
		Quantity:       req.Quantity,
		Description:    req.Description,
		WaiterUsername: c.Username(),
		Timestamp:      time.Now().UnixMilli(),
	})

	table.Status = models.TableStatusOccupied
	if table.WaiterUsername == nil {
		name := c.Username()
		table.WaiterUsername = &name
	}
	h.State.RecomputeTotal(table)

	h.Hub.BroadcastTables(h.State.Tables)
	h.success(c, "manual_order_update_success", fmt.Sprintf("%s added to %s", req.Name, table.Name))
}

func (h *Handler) removeOrderItem(c *hub.Client, payload json.RawMessage) {
	var req struct {
		TableID     string `json:"tableId"`
		ProductID   wireID `json:"productId"`
		Description string `json:"description"`
		Name        string `json:"name"`
	}
	if err := json.Unmarshal(payload, &req); err != nil {
		h.fail(c, "order_update_fail", "invalid payload")
		return
	}

	table := h.State.FindTable(req.TableID)
	if table == nil {
		h.fail(c, "order_update_fail", "table not found")
		return
	}

	idx := -1
	for i, line := range table.Order {
		if line.ProductID != string(req.ProductID) {
			continue
		}
		if line.Description != req.Description {
			continue
		}
		if req.Name != "" && line.Name != req.Name {
			continue
		}
		idx = i
		break
	}
	if idx < 0 {
		h.fail(c, "order_update_fail", "order line not found")
		return
	}

	removed := table.Order[idx]
	table.Order = append(table.Order[:idx], table.Order[idx+1:]...)
	if len(table.Order) == 0 {
		table.Status = models.TableStatusEmpty
		table.WaiterUsername = nil
	}
	h.State.RecomputeTotal(table)

	h.Hub.BroadcastTables(h.State.Tables)
	h.success(c, "order_update_success", fmt.Sprintf("%s removed from %s", removed.Name, table.Name))
}
