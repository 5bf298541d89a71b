package handlers

import (
	"net/http"

	"checkdocs/pkg/logging"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const sessionName = "checkdocs"

// NewRouter wires the admin API. Everything under /api except the grant
// endpoints needs a granted session; /manifest.json stays public.
func NewRouter(api *API, sessionSecret []byte, log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(logging.GinLogger(log), gin.Recovery())

	store := cookie.NewStore(sessionSecret)
	store.Options(sessions.Options{
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	r.Use(sessions.Sessions(sessionName, store))

	r.GET("/manifest.json", api.Manifest)

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/grant", api.GrantStatus)
		apiGroup.POST("/grant", api.RequestGrant)
		apiGroup.DELETE("/grant", api.RevokeGrant)

		granted := apiGroup.Group("")
		granted.Use(GrantRequired)
		{
			granted.GET("/settings", api.Settings)
			granted.GET("/checks", api.ListChecks)
			granted.GET("/check", api.GetCheck)
			granted.POST("/check", api.SaveCheck)
			granted.POST("/preview", api.PreviewCheck)
			granted.DELETE("/check", api.DeleteCheck)
			granted.POST("/adopt", api.AdoptCheck)
			granted.GET("/export.csv", api.ExportCSV)
		}
	}
	return r
}
