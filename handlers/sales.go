package handlers

import (
	"encoding/json"
	"time"

	"isabet-pos/hub"
	"isabet-pos/models"
	"isabet-pos/utils"
)

// completeQuickSale archives submitted items directly, without a table. The
// table ledger is untouched and nothing is broadcast.
func (h *Handler) completeQuickSale(c *hub.Client, payload json.RawMessage) {
	var req struct {
		Items           []models.OrderLine `json:"items"`
		CashierUsername string             `json:"cashierUsername"`
	}
	if err := json.Unmarshal(payload, &req); err != nil || len(req.Items) == 0 {
		h.fail(c, "quick_sale_fail", "cart is empty")
		return
	}

	attendant := req.CashierUsername
	if attendant == "" {
		attendant = c.Username()
	}

	now := time.Now().UnixMilli()
	sales := make([]models.Sale, 0, len(req.Items))
	for _, item := range req.Items {
		sales = append(sales, models.Sale{
			ProductID:        item.ProductID,
			Name:             item.Name,
			PriceAtOrder:     item.PriceAtOrder,
			Quantity:         item.Quantity,
			Description:      item.Description,
			WaiterUsername:   attendant,
			Timestamp:        item.Timestamp,
			TableName:        models.QuickSaleTableName,
			ClosingTimestamp: now,
			ClosedBy:         c.Username(),
		})
	}

	if err := h.DB.Create(&sales).Error; err != nil {
		utils.ErrorLogger.Printf("quick sale: archiving failed: %v", err)
		h.fail(c, "quick_sale_fail", "could not record the sale")
		return
	}

	h.success(c, "quick_sale_success", "quick sale completed")
	utils.InfoLogger.Printf("quick sale by %s: %d items", c.Username(), len(sales))
}

func (h *Handler) getSalesReport(c *hub.Client, _ json.RawMessage) {
	var sales []models.Sale
	if err := h.DB.Order("closing_timestamp desc").Find(&sales).Error; err != nil {
		utils.ErrorLogger.Printf("loading sales report: %v", err)
		h.fail(c, "error", "could not load sales report")
		return
	}

	msg := hub.Message{
		Type:    "sales_report_data",
		Payload: map[string]interface{}{"sales": sales},
	}
	if err := c.Send(msg); err != nil {
		utils.ErrorLogger.Printf("sending sales report: %v", err)
	}
}
