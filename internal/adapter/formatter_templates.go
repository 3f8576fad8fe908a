package adapter

import (
	"embed"
	"strings"
	"sync"
	"text/template"
)

//go:embed templates/*.tmpl
var formatterTemplateFS embed.FS

var (
	formatterTemplates *template.Template
	formatterOnce      sync.Once
	formatterErr       error
)

var baseFuncs = template.FuncMap{
	"add": func(a, b int) int { return a + b },
}

func loadFormatterTemplates() (*template.Template, error) {
	formatterOnce.Do(func() {
		tmpl := template.New("formatter").Funcs(baseFuncs)
		formatterTemplates, formatterErr = tmpl.ParseFS(formatterTemplateFS, "templates/*.tmpl")
	})
	return formatterTemplates, formatterErr
}

func executeTemplate(tmpl *template.Template, name string, data any) (string, error) {
	var builder strings.Builder
	if err := tmpl.ExecuteTemplate(&builder, name, data); err != nil {
		return "", err
	}
	return strings.TrimSpace(builder.String()), nil
}
