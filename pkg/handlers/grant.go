package handlers

import (
	"net/http"

	"checkdocs/pkg/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const grantKey = "workspace_grant"

func sessionGranted(c *gin.Context) bool {
	granted, _ := sessions.Default(c).Get(grantKey).(bool)
	return granted
}

// sessionEngine returns the engine acting with the calling session's grant.
func (a *API) sessionEngine(c *gin.Context) *services.Engine {
	if sessionGranted(c) {
		return a.engine.WithGrant()
	}
	return a.engine
}

// GrantRequired rejects requests from sessions that never obtained the
// workspace grant.
func GrantRequired(c *gin.Context) {
	if !sessionGranted(c) {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error": services.ErrNotGranted.Error(),
			"code":  services.CodeAccessDenied,
		})
		return
	}
	c.Next()
}

// RequestGrant asks for read/write access to the catalog once per session.
func (a *API) RequestGrant(c *gin.Context) {
	granted, err := a.engine.Grant()
	if err != nil {
		a.respondError(c, err)
		return
	}
	ws := granted.Workspace()

	session := sessions.Default(c)
	session.Set(grantKey, true)
	if err := session.Save(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"granted":    true,
		"checks_dir": ws.ChecksDir(),
		"manifest":   ws.ManifestPath(),
	})
}

// GrantStatus re-verifies the grant without requesting a new one.
func (a *API) GrantStatus(c *gin.Context) {
	granted := sessionGranted(c)
	resp := gin.H{"granted": granted}
	if granted {
		if err := a.engine.WithGrant().Workspace().Verify(); err != nil {
			resp["granted"] = false
			resp["error"] = services.Message(err)
		}
	}
	c.JSON(http.StatusOK, resp)
}

// RevokeGrant drops the calling session's grant. Other sessions keep theirs.
func (a *API) RevokeGrant(c *gin.Context) {
	session := sessions.Default(c)
	session.Delete(grantKey)
	if err := session.Save(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"granted": false})
}
