package controllers

import (
	"errors"
	"io/fs"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"climatefarm/ml"
	"climatefarm/models"
	"climatefarm/noaa"
)

const previewRows = 20

// Index renders the dashboard.
func (h *Handler) Index(c *gin.Context) {
	files, err := ml.ListCSVFiles(h.cfg.DataDir)
	if err != nil {
		h.logger.Warn("failed to list data files", "dir", h.cfg.DataDir, "error", err)
	}

	data := gin.H{
		"Title":        "Climate aware irrigation",
		"ModelPresent": h.store.Exists(),
		"DataFiles":    files,
		"Sample":       models.DefaultReading,
	}
	if artifact, err := h.store.Load(); err == nil {
		data["Model"] = artifact
	} else if !errors.Is(err, ml.ErrNoModel) {
		h.logger.Warn("stored model is unreadable", "error", err)
	}
	c.HTML(http.StatusOK, "index.html", data)
}

// UploadNOAA stores an uploaded CSV file in the data directory. Anything that
// is not a CSV upload is ignored. Both cases redirect to the dashboard.
func (h *Handler) UploadNOAA(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil || !strings.EqualFold(filepath.Ext(file.Filename), ".csv") {
		c.Redirect(http.StatusFound, "/")
		return
	}

	path, err := ml.DataPath(h.cfg.DataDir, sanitizeFilename(file.Filename))
	if err != nil {
		c.Redirect(http.StatusFound, "/")
		return
	}
	if err := os.MkdirAll(h.cfg.DataDir, 0755); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create data directory"})
		return
	}
	if err := c.SaveUploadedFile(file, path); err != nil {
		h.logger.Error("failed to save upload", "path", path, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save file"})
		return
	}

	h.logger.Info("dataset uploaded", "path", path, "bytes", file.Size)
	c.Redirect(http.StatusFound, "/")
}

type fetchRequest struct {
	Station string `json:"station" form:"station" binding:"required"`
	Start   string `json:"start" form:"start" binding:"required"`
	End     string `json:"end" form:"end" binding:"required"`
}

// FetchNOAA downloads a station's daily summaries into the data directory.
func (h *Handler) FetchNOAA(c *gin.Context) {
	var req fetchRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "station, start and end are required"})
		return
	}

	records, err := h.weather.FetchDailySummaries(c.Request.Context(), req.Station, req.Start, req.End)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, noaa.ErrMissingToken) {
			status = http.StatusServiceUnavailable
		}
		h.logger.Error("NOAA fetch failed", "station", req.Station, "error", err)
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	name := noaa.Filename(req.Station, req.Start, req.End)
	path, err := ml.DataPath(h.cfg.DataDir, name)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := os.MkdirAll(h.cfg.DataDir, 0755); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create data directory"})
		return
	}
	f, err := os.Create(path)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create data file"})
		return
	}
	rows, err := noaa.WriteCSV(f, records)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"rows": rows, "filename": name})
}

// DataPreview returns the first rows of a data file.
func (h *Handler) DataPreview(c *gin.Context) {
	name, path, ok := h.resolveDataFile(c)
	if !ok {
		return
	}
	table, err := ml.ReadTableFile(path, previewRows)
	if err != nil {
		h.dataFileError(c, err)
		return
	}

	preview := make([]map[string]any, len(table.Records))
	for i, rec := range table.Maps() {
		row := make(map[string]any, len(rec))
		for k, v := range rec {
			row[k] = previewValue(v)
		}
		preview[i] = row
	}
	c.JSON(http.StatusOK, gin.H{
		"filename": name,
		"columns":  table.Columns,
		"preview":  preview,
	})
}

// DataNumeric returns the numeric columns of a data file for charting,
// indexed by DATE when the file has one.
func (h *Handler) DataNumeric(c *gin.Context) {
	_, path, ok := h.resolveDataFile(c)
	if !ok {
		return
	}
	table, err := ml.ReadTableFile(path, 0)
	if err != nil {
		h.dataFileError(c, err)
		return
	}

	var x any
	if dates := table.Column("DATE"); dates != nil {
		x = dates
	} else {
		idx := make([]int, len(table.Records))
		for i := range idx {
			idx[i] = i
		}
		x = idx
	}
	c.JSON(http.StatusOK, gin.H{"x": x, "series": table.NumericSeries()})
}

// DeleteData removes a file from the data directory.
func (h *Handler) DeleteData(c *gin.Context) {
	path, err := ml.DataPath(h.cfg.DataDir, c.Param("filename"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			c.JSON(http.StatusNotFound, gin.H{"error": "File not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete file"})
		return
	}
	h.logger.Info("dataset deleted", "path", path)
	c.JSON(http.StatusOK, gin.H{"message": "File deleted successfully"})
}

// resolveDataFile picks the file named by ?filename, or the first CSV file.
// It writes the error response itself when ok is false.
func (h *Handler) resolveDataFile(c *gin.Context) (name, path string, ok bool) {
	name = c.Query("filename")
	if name == "" {
		files, err := ml.ListCSVFiles(h.cfg.DataDir)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list data files"})
			return "", "", false
		}
		if len(files) == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "No CSV files available"})
			return "", "", false
		}
		name = files[0]
	}

	path, err := ml.DataPath(h.cfg.DataDir, name)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", "", false
	}
	return name, path, true
}

func (h *Handler) dataFileError(c *gin.Context, err error) {
	if errors.Is(err, fs.ErrNotExist) {
		c.JSON(http.StatusNotFound, gin.H{"error": "File not found"})
		return
	}
	c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
}

// previewValue types a CSV cell the way a JSON client expects it.
func previewValue(s string) any {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(v) && !math.IsInf(v, 0) {
		return v
	}
	return s
}

// sanitizeFilename keeps letters, digits, dot, dash and underscore, and
// strips leading dots.
func sanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		case r == ' ':
			return '_'
		}
		return -1
	}, name)
	return strings.TrimLeft(name, ".")
}

func queryInt(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil || v <= 0 {
		return def
	}
	return v
}
