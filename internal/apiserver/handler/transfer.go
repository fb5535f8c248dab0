package handler

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/cg-dump/datasrv/internal/apiserver/middleware"
	"github.com/cg-dump/datasrv/internal/common/errorx"
	"github.com/cg-dump/datasrv/internal/dataset"
	"github.com/cg-dump/datasrv/internal/schema"
)

// ImportCSV replaces the live draft's rows from an uploaded CSV file.
// The first record is the header and must name template column keys;
// every following record becomes one row.
func (h *Handler) ImportCSV(c *gin.Context) {
	caller := middleware.GetAuthContext(c)

	file, _, err := c.Request.FormFile("file")
	if err != nil {
		respondError(c, errorx.InvalidRequest("file is required"))
		return
	}
	defer file.Close()

	version, err := strconv.Atoi(c.PostForm("version"))
	if err != nil {
		respondError(c, errorx.InvalidRequest("version is required"))
		return
	}

	rows, errx := parseCSVRows(file)
	if errx != nil {
		respondError(c, errx)
		return
	}

	input := dataset.ReplaceDraftRowsInput{
		ProductCode: c.PostForm("productCode"),
		StateCode:   c.PostForm("stateCode"),
		Version:     version,
		Rows:        rows,
	}
	ds, errx := h.datasets.ReplaceDraftRows(c.Request.Context(), caller, input)
	if errx != nil {
		h.countValidationFailure(errx, input.ProductCode)
		respondError(c, errx)
		return
	}
	h.countRowsWritten(productCode(ds), len(rows))
	c.JSON(http.StatusOK, ds)
}

// ExportCSV streams one dataset's rows as CSV, columns in template order.
func (h *Handler) ExportCSV(c *gin.Context) {
	caller := middleware.GetAuthContext(c)
	ds, errx := h.datasets.GetDataset(c.Request.Context(), caller, c.Param("id"))
	if errx != nil {
		respondError(c, errx)
		return
	}

	if ds.Template == nil {
		respondError(c, errorx.Internal("Dataset template schema is invalid"))
		return
	}
	def, err := schema.ParseDefinition([]byte(ds.Template.Schema))
	if err != nil {
		respondError(c, errorx.Internal("Dataset template schema is invalid"))
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", ds.ID+".csv"))

	w := csv.NewWriter(c.Writer)
	header := make([]string, len(def.Columns))
	for i, column := range def.Columns {
		header[i] = column.Key
	}
	if err := w.Write(header); err != nil {
		return
	}
	record := make([]string, len(def.Columns))
	for _, row := range ds.Rows {
		for i, column := range def.Columns {
			record[i] = schema.Stringify(row.Data[column.Key])
		}
		if err := w.Write(record); err != nil {
			return
		}
	}
	w.Flush()
}

// parseCSVRows decodes header-keyed CSV records into draft rows.
func parseCSVRows(r io.Reader) ([]schema.Row, *errorx.Error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err != nil {
		return nil, errorx.InvalidRequest("CSV header row is required")
	}

	var rows []schema.Row
	for i := 0; ; i++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errorx.InvalidRequest("malformed CSV").
				WithDetail("rowIndex", i)
		}
		data := make(map[string]any, len(header))
		for j, key := range header {
			if j < len(record) {
				data[key] = record[j]
			}
		}
		rows = append(rows, schema.Row{RowIndex: i, Data: data})
	}
	return rows, nil
}
