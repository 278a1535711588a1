package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"rare-source/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

var exportHeaders = []string{
	"MPN", "Manufacturer", "Distributor", "Source Type", "Stock",
	"Price", "Currency", "Delivery", "Condition", "Date Code",
	"EOL", "Risk Level", "Updated At",
}

// ExportSearch handles GET /search/export?q=<part number> and streams the
// result set as an xlsx workbook.
func (h *APIHandler) ExportSearch(c *gin.Context) {
	query := c.Query("q")
	offers, err := h.service.Search(c.Request.Context(), query)
	if err != nil {
		if errors.Is(err, service.ErrEmptyQuery) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter 'q' is required"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for col, header := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(sheet, cell, header)
	}

	for row, offer := range offers {
		values := []any{
			offer.MPN, offer.Manufacturer, offer.Distributor, offer.SourceType,
			offer.Stock, offer.Price, offer.Currency, offer.Delivery,
			offer.Condition, offer.DateCode, offer.IsEOL, offer.RiskLevel,
			offer.UpdatedAt.Format(time.RFC3339),
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, value)
		}
	}

	filename := fmt.Sprintf("offers_%s_%s.xlsx", query, time.Now().Format("20060102_150405"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")

	if err := f.Write(c.Writer); err != nil {
		c.Status(http.StatusInternalServerError)
	}
}
