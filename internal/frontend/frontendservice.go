package frontend

import (
	"embed"
	"html/template"
	"io"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ecoclassify/ecoclassify/internal/backend/catalog"
	"github.com/ecoclassify/ecoclassify/internal/core"
)

const (
	MainPageName = "index.html"
	viewsPattern = "views/*.html"
	mimeSVG      = "image/svg+xml"
)

//go:embed views
var templateFS embed.FS

//go:embed assets/icon.svg
var iconSVG []byte

// Template wraps the parsed views for echo's renderer interface.
type Template struct {
	templates *template.Template
}

func (t *Template) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	return t.templates.ExecuteTemplate(w, name, data)
}

// FrontendService serves the single-page UI. The page talks to the JSON API
// for classification, history and stats; only the static category catalog is
// rendered server-side.
type FrontendService struct {
	config *core.ServiceConfig
}

func NewFrontendService(config *core.ServiceConfig) *FrontendService {
	return &FrontendService{config: config}
}

// rootRedirectHandler redirects root path to index.html
func (service *FrontendService) rootRedirectHandler(ctx echo.Context) error {
	return ctx.Redirect(http.StatusMovedPermanently, "/"+MainPageName)
}

func (service *FrontendService) SetRoutes(e *echo.Echo) {
	// Create template renderer
	e.Renderer = &Template{
		templates: template.Must(template.New("").ParseFS(templateFS, viewsPattern)),
	}

	e.GET("/app", service.rootRedirectHandler)
	e.GET("/"+MainPageName, service.indexHandler)

	// Favicon (SVG) route
	e.GET("/icon.svg", service.iconHandler)
}

type indexData struct {
	Categories []catalog.Category
}

func (service *FrontendService) indexHandler(ctx echo.Context) error {
	return ctx.Render(http.StatusOK, MainPageName, indexData{
		Categories: catalog.All(),
	})
}

func (service *FrontendService) iconHandler(ctx echo.Context) error {
	if len(iconSVG) == 0 {
		slog.Error("iconHandler: icon asset is empty", "status", http.StatusInternalServerError)
		return ctx.String(http.StatusInternalServerError, "Icon not available")
	}
	return ctx.Blob(http.StatusOK, mimeSVG, iconSVG)
}
