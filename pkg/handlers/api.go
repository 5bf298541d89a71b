package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"checkdocs/pkg/logging"
	"checkdocs/pkg/models"
	"checkdocs/pkg/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// API serves the admin endpoints of one catalog.
type API struct {
	engine   *services.Engine
	index    *services.IndexCache
	settings models.Settings
	log      *zap.Logger
}

func NewAPI(engine *services.Engine, index *services.IndexCache, settings models.Settings, log *zap.Logger) *API {
	return &API{engine: engine, index: index, settings: settings, log: logging.OrNop(log)}
}

// Settings returns what the admin form needs: site label, levels and defaults.
func (a *API) Settings(c *gin.Context) {
	c.JSON(http.StatusOK, a.settings)
}

func queryFrom(c *gin.Context) services.Query {
	var levels []string
	for _, v := range c.QueryArray("level") {
		for _, l := range strings.Split(v, ",") {
			if l = strings.TrimSpace(l); l != "" {
				levels = append(levels, l)
			}
		}
	}
	return services.Query{Text: c.Query("q"), Levels: levels}
}

func (a *API) ListChecks(c *gin.Context) {
	items, err := a.index.Items()
	if err != nil {
		a.respondError(c, err)
		return
	}
	filtered := services.Filter(items, queryFrom(c))
	if filtered == nil {
		filtered = []models.IndexItem{}
	}
	c.JSON(http.StatusOK, filtered)
}

func (a *API) GetCheck(c *gin.Context) {
	form, err := a.engine.Load(c.Query("file"))
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, form)
}

func (a *API) SaveCheck(c *gin.Context) {
	var req services.SaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}

	result, err := a.sessionEngine(c).Save(req)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// PreviewCheck returns the merged page and its diff against the saved one.
func (a *API) PreviewCheck(c *gin.Context) {
	var req services.SaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}

	preview, err := a.engine.Preview(req)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, preview)
}

func (a *API) DeleteCheck(c *gin.Context) {
	file := c.Query("file")
	confirmed, _ := strconv.ParseBool(c.Query("confirm"))

	if err := a.sessionEngine(c).Delete(file, confirmed); err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted", "file": file})
}

func (a *API) AdoptCheck(c *gin.Context) {
	entry, err := a.sessionEngine(c).Adopt(c.Query("file"))
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (a *API) ExportCSV(c *gin.Context) {
	entries := a.engine.Store().Load().Entries
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="checks.csv"`)
	c.Status(http.StatusOK)
	if err := services.ExportCSV(c.Writer, entries); err != nil {
		a.log.Error("csv export interrupted", zap.Error(err))
	}
}

// Manifest serves the catalog's read-only view of manifest.json. A missing or
// malformed manifest is served as an empty array.
func (a *API) Manifest(c *gin.Context) {
	data, err := services.EncodeManifest(a.engine.Store().Load().Entries)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", data)
}

func statusFor(err error) int {
	switch {
	case services.IsValidation(err):
		return http.StatusBadRequest
	case services.IsAccessDenied(err):
		return http.StatusForbidden
	case services.IsNotFound(err):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func (a *API) respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		a.log.Error("request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": services.Message(err), "code": services.ErrorCode(err)})
}
