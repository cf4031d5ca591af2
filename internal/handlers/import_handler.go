package handlers

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"product-import-service/internal/config"
	"product-import-service/internal/importer"
	"product-import-service/internal/middleware"
	"product-import-service/internal/models"
	"product-import-service/internal/repository"
)

// ImportHandler exposes the bulk product import API
type ImportHandler struct {
	service  *importer.Service
	sessions repository.ImportRepositoryInterface
	cfg      *config.Config
}

func NewImportHandler(service *importer.Service, sessions repository.ImportRepositoryInterface, cfg *config.Config) *ImportHandler {
	return &ImportHandler{
		service:  service,
		sessions: sessions,
		cfg:      cfg,
	}
}

// StartImport accepts a spreadsheet upload and starts an import session
// @Summary Start a bulk product import
// @Tags imports
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV or XLSX file"
// @Success 202 {object} models.SuccessResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /products/import [post]
func (h *ImportHandler) StartImport(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)
	userID := middleware.GetUserID(c)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "FILE_REQUIRED",
				Message: "Please upload a CSV or Excel file",
			},
		})
		return
	}
	defer file.Close()

	filename := strings.ToLower(header.Filename)
	if !strings.HasSuffix(filename, ".csv") && !strings.HasSuffix(filename, ".xlsx") {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INVALID_FORMAT",
				Message: "Only CSV and XLSX files are supported",
			},
		})
		return
	}

	if header.Size > h.cfg.MaxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "FILE_TOO_LARGE",
				Message: fmt.Sprintf("File exceeds the %d byte upload limit", h.cfg.MaxUploadBytes),
			},
		})
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, h.cfg.MaxUploadBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "READ_ERROR",
				Message: "Failed to read uploaded file",
			},
		})
		return
	}
	if int64(len(data)) > h.cfg.MaxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "FILE_TOO_LARGE",
				Message: fmt.Sprintf("File exceeds the %d byte upload limit", h.cfg.MaxUploadBytes),
			},
		})
		return
	}

	session, err := h.service.Start(c.Request.Context(), tenantID, userID, header.Filename, data)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "IMPORT_START_FAILED",
				Message: err.Error(),
			},
		})
		return
	}

	// Processing continues in the background; the caller polls for progress
	c.JSON(http.StatusAccepted, models.SuccessResponse{
		Success: true,
		Data:    session,
	})
}

// GetImportTemplate returns the import template definition or file
// @Summary Download the import template
// @Tags imports
// @Produce json
// @Param format query string false "json, csv or xlsx" default(json)
// @Success 200 {object} models.SuccessResponse
// @Router /products/import/template [get]
func (h *ImportHandler) GetImportTemplate(c *gin.Context) {
	format := c.DefaultQuery("format", "json")

	template := models.ProductImportTemplate()

	switch format {
	case "csv":
		h.generateCSVTemplate(c, template)
	case "xlsx":
		h.generateXLSXTemplate(c, template)
	default:
		c.JSON(http.StatusOK, gin.H{
			"success":  true,
			"template": template,
		})
	}
}

// generateCSVTemplate generates and downloads a CSV template with sample rows
func (h *ImportHandler) generateCSVTemplate(c *gin.Context, template models.ImportTemplate) {
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename=products_import_template.csv")

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	headers := make([]string, len(template.Columns))
	for i, col := range template.Columns {
		headers[i] = col.Name
	}
	writer.Write(headers)

	for _, sample := range template.SampleData {
		row := make([]string, len(template.Columns))
		for i, col := range template.Columns {
			row[i] = sample[col.Name]
		}
		writer.Write(row)
	}
}

// generateXLSXTemplate generates and downloads an Excel template
func (h *ImportHandler) generateXLSXTemplate(c *gin.Context, template models.ImportTemplate) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Produtos"
	f.SetSheetName("Sheet1", sheetName)

	// Style for header row
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})

	// Style for required columns
	requiredStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"C65911"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})

	for i, col := range template.Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		headerText := col.Name
		if col.Required {
			headerText = col.Name + " *"
		}
		f.SetCellValue(sheetName, cell, headerText)

		if col.Required {
			f.SetCellStyle(sheetName, cell, cell, requiredStyle)
		} else {
			f.SetCellStyle(sheetName, cell, cell, headerStyle)
		}

		colName, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, colName, colName, 20)
	}

	// Sample rows so users can see valid values for each tax scenario
	for rowIdx, sample := range template.SampleData {
		for i, col := range template.Columns {
			cell, _ := excelize.CoordinatesToCellName(i+1, rowIdx+2)
			f.SetCellValue(sheetName, cell, sample[col.Name])
		}
	}

	// Add Instructions sheet with column definitions
	f.NewSheet("Instructions")
	f.SetCellValue("Instructions", "A1", "Product Import Instructions")
	f.SetCellValue("Instructions", "A3", "Column")
	f.SetCellValue("Instructions", "B3", "Description")
	f.SetCellValue("Instructions", "C3", "Required")
	f.SetCellValue("Instructions", "D3", "Type")
	f.SetCellValue("Instructions", "E3", "Example")

	for i, col := range template.Columns {
		row := i + 4
		f.SetCellValue("Instructions", fmt.Sprintf("A%d", row), col.Name)
		f.SetCellValue("Instructions", fmt.Sprintf("B%d", row), col.Description)
		required := "No"
		if col.Required {
			required = "Yes"
		}
		f.SetCellValue("Instructions", fmt.Sprintf("C%d", row), required)
		f.SetCellValue("Instructions", fmt.Sprintf("D%d", row), col.Type)
		f.SetCellValue("Instructions", fmt.Sprintf("E%d", row), col.Example)
	}

	f.SetColWidth("Instructions", "A", "A", 25)
	f.SetColWidth("Instructions", "B", "B", 60)
	f.SetColWidth("Instructions", "C", "C", 15)
	f.SetColWidth("Instructions", "D", "D", 15)
	f.SetColWidth("Instructions", "E", "E", 40)

	sheetIdx, _ := f.GetSheetIndex(sheetName)
	f.SetActiveSheet(sheetIdx)

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=products_import_template.xlsx")

	f.Write(c.Writer)
}

// ListImports returns the tenant's import history, newest first
// @Summary List import sessions
// @Tags imports
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Page size" default(20)
// @Success 200 {object} models.PaginatedResponse
// @Router /products/imports [get]
func (h *ImportHandler) ListImports(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(h.cfg.DefaultPageSize)))
	if limit < 1 {
		limit = h.cfg.DefaultPageSize
	}
	if limit > h.cfg.MaxPageSize {
		limit = h.cfg.MaxPageSize
	}

	sessions, total, err := h.sessions.ListByTenant(c.Request.Context(), tenantID, limit, (page-1)*limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "LIST_FAILED",
				Message: "Failed to list import sessions",
			},
		})
		return
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	c.JSON(http.StatusOK, models.PaginatedResponse{
		Success: true,
		Data:    sessions,
		Pagination: models.Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: totalPages,
		},
	})
}

// GetImport returns one import session with its full error log
// @Summary Get an import session
// @Tags imports
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} models.SuccessResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /products/imports/{id} [get]
func (h *ImportHandler) GetImport(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)

	id, ok := h.sessionID(c)
	if !ok {
		return
	}

	session, err := h.sessions.GetByID(c.Request.Context(), tenantID, id)
	if err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "NOT_FOUND",
				Message: "Import session not found",
			},
		})
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    session,
	})
}

// GetImportProgress returns the lightweight polling view of a session.
// Served from the progress cache when fresh, so polling clients do not
// hammer the database while an import runs.
// @Summary Poll import progress
// @Tags imports
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} models.SuccessResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /products/imports/{id}/progress [get]
func (h *ImportHandler) GetImportProgress(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)

	id, ok := h.sessionID(c)
	if !ok {
		return
	}

	progress, err := h.sessions.GetProgress(c.Request.Context(), tenantID, id)
	if err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "NOT_FOUND",
				Message: "Import session not found",
			},
		})
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    progress,
	})
}

// CancelImport requests cancellation of a running import. The pipeline
// checks the marker between stages; work already in flight completes.
// @Summary Cancel a running import
// @Tags imports
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} models.SuccessResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /products/imports/{id}/cancel [post]
func (h *ImportHandler) CancelImport(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)

	id, ok := h.sessionID(c)
	if !ok {
		return
	}

	session, err := h.sessions.GetByID(c.Request.Context(), tenantID, id)
	if err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "NOT_FOUND",
				Message: "Import session not found",
			},
		})
		return
	}

	if session.Status.IsTerminal() {
		c.JSON(http.StatusConflict, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "ALREADY_FINISHED",
				Message: fmt.Sprintf("Session is already %s", session.Status),
			},
		})
		return
	}

	if err := h.sessions.SetStatus(c.Request.Context(), tenantID, id, models.ImportStatusCancelled); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "CANCEL_FAILED",
				Message: "Failed to cancel import session",
			},
		})
		return
	}

	message := "Cancellation requested; the import stops before its next stage"
	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Message: &message,
	})
}

// ReprocessImport re-runs a finished session against its stored file
// @Summary Reprocess an import session
// @Tags imports
// @Produce json
// @Param id path string true "Session ID"
// @Success 202 {object} models.SuccessResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /products/imports/{id}/reprocess [post]
func (h *ImportHandler) ReprocessImport(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)

	id, ok := h.sessionID(c)
	if !ok {
		return
	}

	session, err := h.service.Reprocess(c.Request.Context(), tenantID, id)
	if err != nil {
		status := http.StatusInternalServerError
		code := "REPROCESS_FAILED"
		if strings.Contains(err.Error(), "already being processed") {
			status = http.StatusConflict
			code = "ALREADY_PROCESSING"
		}
		c.JSON(status, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    code,
				Message: err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusAccepted, models.SuccessResponse{
		Success: true,
		Data:    session,
	})
}

// DeleteImport removes a finished session and its error log
// @Summary Delete an import session
// @Tags imports
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} models.SuccessResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /products/imports/{id} [delete]
func (h *ImportHandler) DeleteImport(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)

	id, ok := h.sessionID(c)
	if !ok {
		return
	}

	session, err := h.sessions.GetByID(c.Request.Context(), tenantID, id)
	if err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "NOT_FOUND",
				Message: "Import session not found",
			},
		})
		return
	}

	if !session.Status.IsTerminal() {
		c.JSON(http.StatusConflict, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "STILL_RUNNING",
				Message: "Cannot delete a session that is still processing; cancel it first",
			},
		})
		return
	}

	if err := h.sessions.Delete(c.Request.Context(), tenantID, id); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "DELETE_FAILED",
				Message: "Failed to delete import session",
			},
		})
		return
	}

	message := "Import session deleted"
	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Message: &message,
	})
}

// sessionID parses the :id path parameter, writing the error response itself
func (h *ImportHandler) sessionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INVALID_ID",
				Message: "Session ID must be a valid UUID",
			},
		})
		return uuid.Nil, false
	}
	return id, true
}
