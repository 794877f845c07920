package api

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func spaContext(t *testing.T, target, wildcard string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("*")
	c.SetParamValues(wildcard)
	return c, rec
}

func TestSpaServesPlaceholderWithoutShell(t *testing.T) {
	c, rec := spaContext(t, "/", "")

	if err := spaHandler(t.TempDir())(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 placeholder, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "not built yet") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestSpaServesExistingFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log('hi')"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	c, rec := spaContext(t, "/app.js", "app.js")
	if err := spaHandler(dir)(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "console.log") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestSpaFallsBackToIndex(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>shell</html>"), 0o644); err != nil {
		t.Fatalf("seed index: %v", err)
	}

	c, rec := spaContext(t, "/team/some-route", "team/some-route")
	if err := spaHandler(dir)(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "shell") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestSpaRejectsTraversal(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>shell</html>"), 0o644); err != nil {
		t.Fatalf("seed index: %v", err)
	}

	c, rec := spaContext(t, "/x", "../../etc/passwd")
	if err := spaHandler(dir)(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "shell") {
		t.Fatalf("traversal must fall back to the shell, got %d %s", rec.Code, rec.Body.String())
	}
}
