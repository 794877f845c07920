package api

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"
)

const shellMissingNotice = "Application shell is not built yet. Run the frontend build and restart."

// spaHandler serves the built single-page app: real files as-is, anything
// else falls back to index.html for client-side routing. While the shell
// is absent it answers with a plain placeholder instead of hanging.
func spaHandler(staticDir string) echo.HandlerFunc {
	return func(c echo.Context) error {
		name := path.Clean("/" + c.Param("*"))
		if strings.HasPrefix(name, "/api/") {
			return echo.NewHTTPError(http.StatusNotFound)
		}

		full := filepath.Join(staticDir, filepath.FromSlash(name))
		if fi, err := os.Stat(full); err == nil && !fi.IsDir() {
			return c.File(full)
		}

		index := filepath.Join(staticDir, "index.html")
		if _, err := os.Stat(index); err == nil {
			return c.File(index)
		}
		return c.String(http.StatusNotFound, shellMissingNotice)
	}
}
