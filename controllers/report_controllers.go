package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"isabet-pos/models"
	"isabet-pos/utils"
)

// ReportController is the read-only REST surface over the same catalog and
// sales archive the websocket layer maintains.
type ReportController struct {
	DB *gorm.DB
}

func NewReportController(db *gorm.DB) *ReportController {
	return &ReportController{DB: db}
}

// ListProducts -> current catalog from the durable store.
func (rc *ReportController) ListProducts(c *gin.Context) {
	var products []models.Product
	if err := rc.DB.Order("id").Find(&products).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of products", products)
}

// GetSalesReport -> full sales archive, newest first.
func (rc *ReportController) GetSalesReport(c *gin.Context) {
	var sales []models.Sale
	if err := rc.DB.Order("closing_timestamp desc").Find(&sales).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Sales report", sales)
}
