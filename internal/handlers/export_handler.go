package handlers

import (
	"fmt"
	"net/http"
	"time"

	"catalog-service/internal/models"
	"catalog-service/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

const ordersSheet = "Orders"

type exportColumn struct {
	Header string
	Width  float64
	Value  func(o models.Order) interface{}
}

var orderExportColumns = []exportColumn{
	{"ID", 8, func(o models.Order) interface{} { return o.ID }},
	{"Дата", 20, func(o models.Order) interface{} { return o.Date }},
	{"Имя", 25, func(o models.Order) interface{} { return o.Name }},
	{"Телефон", 20, func(o models.Order) interface{} { return o.Phone }},
	{"Email", 25, func(o models.Order) interface{} { return o.Email }},
	{"Товар", 35, func(o models.Order) interface{} { return o.Product }},
	{"Комментарий", 40, func(o models.Order) interface{} { return o.Message }},
	{"Согласие", 10, func(o models.Order) interface{} { return o.Consent }},
	{"Статус", 12, func(o models.Order) interface{} { return string(o.Status) }},
	{"Источник", 12, func(o models.Order) interface{} { return o.Source }},
}

// ExportHandler builds spreadsheet exports for the admin area.
type ExportHandler struct {
	orders *services.OrderService
	logger *logrus.Entry
	now    func() time.Time
}

func NewExportHandler(orders *services.OrderService, logger *logrus.Logger) *ExportHandler {
	return &ExportHandler{
		orders: orders,
		logger: logger.WithField("component", "export_handler"),
		now:    time.Now,
	}
}

// BuildOrdersWorkbook writes the orders to a new workbook, one row each.
func BuildOrdersWorkbook(orders []models.Order) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", ordersSheet); err != nil {
		f.Close()
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
	})
	if err != nil {
		f.Close()
		return nil, err
	}

	for i, col := range orderExportColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(ordersSheet, cell, col.Header)
		f.SetCellStyle(ordersSheet, cell, cell, headerStyle)

		colName, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(ordersSheet, colName, colName, col.Width)
	}

	for rowIdx, order := range orders {
		for colIdx, col := range orderExportColumns {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			f.SetCellValue(ordersSheet, cell, col.Value(order))
		}
	}

	f.SetPanes(ordersSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
	return f, nil
}

// ExportOrders streams all orders as an XLSX file
// @Summary Export orders
// @Tags Admin
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Success 200 {file} file
// @Router /admin/orders/export [get]
func (h *ExportHandler) ExportOrders(c *gin.Context) {
	orders, err := h.orders.ListOrders(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to load orders for export")
		errorJSON(c, http.StatusInternalServerError, "FETCH_FAILED", "Failed to retrieve orders")
		return
	}

	f, err := BuildOrdersWorkbook(orders)
	if err != nil {
		h.logger.WithError(err).Error("Failed to build orders workbook")
		errorJSON(c, http.StatusInternalServerError, "EXPORT_FAILED", "Failed to export orders")
		return
	}
	defer f.Close()

	filename := fmt.Sprintf("orders_%s.xlsx", h.now().Format("20060102_150405"))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename="+filename)

	if err := f.Write(c.Writer); err != nil {
		h.logger.WithError(err).Error("Failed to write orders workbook")
	}
}
