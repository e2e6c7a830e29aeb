// Package web holds the embedded page, its client-side script and the
// server-side rendering used when JavaScript is unavailable.
package web

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"strings"

	"github.com/example/faceglow/internal/analysis"
)

// Messages shown to the user. The client script carries the same strings.
const (
	MessageAnalysisFailed = "Erro ao analisar a face. Por favor, tente novamente."
	MessageCameraFailed   = "Não foi possível acessar a câmera. Por favor, use o upload de imagem."
	MessageMissingImage   = "Selecione uma imagem antes de analisar."
)

// IndexTemplate is the name of the page template.
const IndexTemplate = "index.html"

var (
	//go:embed templates/*.html
	templateFS embed.FS

	//go:embed static
	staticFS embed.FS

	templates = template.Must(template.New("").Funcs(template.FuncMap{
		// html/template filters data URLs; only image ones are let through.
		"imageURL": func(s string) template.URL {
			if !strings.HasPrefix(s, "data:image/") {
				return ""
			}
			return template.URL(s)
		},
	}).ParseFS(templateFS, "templates/*.html"))
)

// Page is the data rendered by IndexTemplate.
type Page struct {
	// Image is the data URL of the selected photo, kept visible after errors.
	Image  string
	Error  string
	Result *analysis.AnalysisResult
}

// View names the client state the page is rendered in.
func (p Page) View() string {
	switch {
	case p.Result != nil:
		return "result"
	case p.Error != "":
		return "error"
	case p.Image != "":
		return "image-selected"
	default:
		return "idle"
	}
}

// Templates returns the parsed page templates.
func Templates() *template.Template {
	return templates
}

// Static returns the embedded static assets rooted at static/.
func Static() http.FileSystem {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}
