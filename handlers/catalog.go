package handlers

import (
	"encoding/json"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"isabet-pos/hub"
	"isabet-pos/models"
	"isabet-pos/utils"
)

func (h *Handler) addProduct(c *hub.Client, payload json.RawMessage) {
	var req struct {
		ID       uint    `json:"id"`
		Name     string  `json:"name"`
		Price    float64 `json:"price"`
		Category string  `json:"category"`
	}
	if err := json.Unmarshal(payload, &req); err != nil {
		h.fail(c, "error", "invalid payload")
		return
	}
	if req.Name == "" || req.Category == "" || req.Price < 0 {
		h.fail(c, "error", "name, price and category are required")
		return
	}

	id := req.ID
	if id == 0 {
		id = h.State.NextProductID()
	}
	product := models.Product{
		ID:       id,
		Name:     req.Name,
		Price:    req.Price,
		Category: strings.ToUpper(req.Category),
	}

	if err := h.DB.Create(&product).Error; err != nil {
		utils.ErrorLogger.Printf("saving product %q: %v", product.Name, err)
		h.fail(c, "error", "could not save product")
		return
	}

	h.State.AddProduct(product)
	h.Hub.BroadcastProducts(h.State.Products)
	h.success(c, "main_menu_product_added", fmt.Sprintf("%s added to the menu", product.Name))
}

func (h *Handler) updateProduct(c *hub.Client, payload json.RawMessage) {
	var req struct {
		ID       uint    `json:"id"`
		Name     string  `json:"name"`
		Price    float64 `json:"price"`
		Category string  `json:"category"`
	}
	if err := json.Unmarshal(payload, &req); err != nil {
		h.fail(c, "error", "invalid payload")
		return
	}

	product := h.State.FindProduct(req.ID)
	if product == nil {
		h.fail(c, "error", "product to update not found")
		return
	}

	name := req.Name
	price := req.Price
	category := strings.ToUpper(req.Category)

	err := h.DB.Model(&models.Product{}).Where("id = ?", req.ID).Updates(map[string]interface{}{
		"name":     name,
		"price":    price,
		"category": category,
	}).Error
	if err != nil {
		utils.ErrorLogger.Printf("updating product %d: %v", req.ID, err)
		h.fail(c, "error", "could not save product")
		return
	}

	product.Name = name
	product.Price = price
	product.Category = category

	h.Hub.BroadcastProducts(h.State.Products)
	h.success(c, "main_menu_product_updated", fmt.Sprintf("%s updated", name))
}

// bulkUpdateProducts replaces the whole catalog in one database transaction:
// drop everything, insert the new set. Rows missing id, name, price or
// category are skipped with a warning instead of failing the batch. The
// in-memory mirror is only swapped after the transaction commits, so a
// database failure leaves live state unchanged.
func (h *Handler) bulkUpdateProducts(c *hub.Client, payload json.RawMessage) {
	var req struct {
		Products []struct {
			ID       *uint    `json:"id"`
			Name     *string  `json:"name"`
			Price    *float64 `json:"price"`
			Category *string  `json:"category"`
		} `json:"products"`
	}
	if err := json.Unmarshal(payload, &req); err != nil {
		h.fail(c, "bulk_update_products_fail", "invalid payload")
		return
	}

	valid := make([]models.Product, 0, len(req.Products))
	skipped := 0
	for i, row := range req.Products {
		if row.ID == nil || row.Name == nil || row.Price == nil || row.Category == nil {
			utils.ErrorLogger.Printf("bulk update: skipping malformed row %d", i)
			skipped++
			continue
		}
		valid = append(valid, models.Product{
			ID:       *row.ID,
			Name:     *row.Name,
			Price:    *row.Price,
			Category: strings.ToUpper(*row.Category),
		})
	}

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Product{}).Error; err != nil {
			return err
		}
		if len(valid) == 0 {
			return nil
		}
		return tx.Create(&valid).Error
	})
	if err != nil {
		utils.ErrorLogger.Printf("bulk update rolled back: %v", err)
		h.fail(c, "bulk_update_products_fail", "could not replace the catalog")
		return
	}

	h.State.SetProducts(valid)
	h.Hub.BroadcastProducts(h.State.Products)
	h.success(c, "bulk_update_products_success",
		fmt.Sprintf("catalog replaced: %d products saved, %d rows skipped", len(valid), skipped))
}
