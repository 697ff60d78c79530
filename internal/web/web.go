// Package web serves the embedded single-page notes client.
package web

import (
	"embed"
	"io/fs"
	"net/http"

	"github.com/gin-gonic/gin"
)

//go:embed static
var staticFiles embed.FS

// Register mounts the client shell at "/" and its assets under "/assets".
func Register(routes gin.IRoutes) error {
	index, err := staticFiles.ReadFile("static/index.html")
	if err != nil {
		return err
	}
	assets, err := fs.Sub(staticFiles, "static/assets")
	if err != nil {
		return err
	}

	serveIndex := func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", index)
	}
	routes.GET("/", serveIndex)
	routes.HEAD("/", serveIndex)
	routes.StaticFS("/assets", http.FS(assets))
	return nil
}
