package render

import (
	"bytes"
	"embed"
	"html/template"

	"discoverydash/internal/models"
)

//go:embed templates/*.html.tmpl
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html.tmpl"))

// Page renders the full dashboard document.
func Page(title string, view models.View) (string, error) {
	return execute("page", BuildBoard(title, view))
}

// Fragment renders only the board: service cards and the health list.
func Fragment(title string, view models.View) (string, error) {
	return execute("board", BuildBoard(title, view))
}

func execute(name string, board Board) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, board); err != nil {
		return "", err
	}
	return buf.String(), nil
}
