package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/SebbyH09/VFPInventory.github.io/internal/domain"
	"github.com/SebbyH09/VFPInventory.github.io/internal/service"
	stderrors "github.com/SebbyH09/VFPInventory.github.io/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// uploadFormField is the multipart field carrying the spreadsheet
const uploadFormField = "excelFile"

// sheetColumns is the expected column order of an import sheet:
// name, brand, vendor, catalog number, current quantity, minimum
// quantity, maximum quantity, location, cost
const sheetColumns = 9

// UploadHandler handles bulk item import from spreadsheets
type UploadHandler struct {
	service *service.InventoryService
	logger  *zap.Logger
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(svc *service.InventoryService, logger *zap.Logger) *UploadHandler {
	return &UploadHandler{
		service: svc,
		logger:  logger,
	}
}

// Upload handles POST /upload
// @Summary      Import items from an .xlsx spreadsheet
// @Description  Reads the first sheet, skips the header row, and inserts each
// @Description  data row as a new item. Rows fail individually.
// @Tags         upload
// @Accept       multipart/form-data
// @Produce      json
// @Param        excelFile  formData  file  true  ".xlsx spreadsheet"
// @Success      200        {object}  map[string]interface{}
// @Failure      400        {object}  errors.StandardError
// @Security     BearerAuth
// @Router       /upload [post]
func (h *UploadHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile(uploadFormField)
	if err != nil {
		c.Error(stderrors.NewInvalidRequest("missing file", fmt.Sprintf("form field %q is required", uploadFormField)))
		c.Abort()
		return
	}

	if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".xlsx") {
		c.Error(stderrors.NewInvalidRequest("unsupported file type", "only .xlsx files are accepted"))
		c.Abort()
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.logger.Error("Failed to open uploaded file", zap.Error(err))
		c.Error(stderrors.NewInternalError("failed to read upload", err))
		c.Abort()
		return
	}
	defer file.Close()

	workbook, err := excelize.OpenReader(file)
	if err != nil {
		c.Error(stderrors.NewInvalidRequest("invalid spreadsheet", err.Error()))
		c.Abort()
		return
	}
	defer workbook.Close()

	sheets := workbook.GetSheetList()
	if len(sheets) == 0 {
		c.Error(stderrors.NewInvalidRequest("invalid spreadsheet", "workbook has no sheets"))
		c.Abort()
		return
	}

	rows, err := workbook.GetRows(sheets[0])
	if err != nil {
		h.logger.Error("Failed to read sheet", zap.String("sheet", sheets[0]), zap.Error(err))
		c.Error(stderrors.NewInternalError("failed to read sheet", err))
		c.Abort()
		return
	}

	importRows, parseErrors := parseSheetRows(rows)

	imported, importErrors := h.service.ImportRows(c.Request.Context(), importRows, requestUserID(c))
	allErrors := append(parseErrors, importErrors...)

	h.logger.Info("Spreadsheet imported",
		zap.String("filename", fileHeader.Filename),
		zap.Int("imported_count", imported),
		zap.Int("error_count", len(allErrors)),
	)

	c.JSON(http.StatusOK, gin.H{
		"message": "Import complete",
		"results": gin.H{
			"importedCount": imported,
			"errors":        allErrors,
		},
	})
}

// parseSheetRows converts sheet rows to import rows, skipping the header
// and fully empty rows. Row numbers are 1-based sheet positions.
func parseSheetRows(rows [][]string) ([]service.ImportRow, []service.BatchError) {
	importRows := []service.ImportRow{}
	parseErrors := []service.BatchError{}

	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		rowNumber := i + 1

		if isEmptyRow(row) {
			continue
		}

		item, err := itemFromSheetRow(row)
		if err != nil {
			parseErrors = append(parseErrors, service.BatchError{
				Row:   rowNumber,
				Error: fmt.Sprintf("Row %d: %s", rowNumber, err.Error()),
			})
			continue
		}

		importRows = append(importRows, service.ImportRow{
			RowNumber: rowNumber,
			Item:      item,
		})
	}

	return importRows, parseErrors
}

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func itemFromSheetRow(row []string) (*domain.InventoryItem, error) {
	// GetRows trims trailing empty cells, so pad to the full width
	cells := make([]string, sheetColumns)
	for i := 0; i < sheetColumns && i < len(row); i++ {
		cells[i] = strings.TrimSpace(row[i])
	}

	item := domain.NewInventoryItem(cells[0])
	item.Brand = cells[1]
	item.Vendor = cells[2]
	item.CatalogNumber = cells[3]

	var err error
	if item.CurrentQuantity, err = cellInt(cells[4]); err != nil {
		return nil, fmt.Errorf("current quantity: %w", err)
	}
	if item.MinimumQuantity, err = cellInt(cells[5]); err != nil {
		return nil, fmt.Errorf("minimum quantity: %w", err)
	}
	if item.MaximumQuantity, err = cellInt(cells[6]); err != nil {
		return nil, fmt.Errorf("maximum quantity: %w", err)
	}
	item.Location = cells[7]
	if item.Cost, err = cellFloat(cells[8]); err != nil {
		return nil, fmt.Errorf("cost: %w", err)
	}

	return item, nil
}

func cellInt(value string) (int, error) {
	if value == "" {
		return 0, nil
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %s", value)
	}
	return int(parsed), nil
}

func cellFloat(value string) (float64, error) {
	if value == "" {
		return 0, nil
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %s", value)
	}
	return parsed, nil
}
