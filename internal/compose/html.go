package compose

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var (
	md     = goldmark.New(goldmark.WithExtensions(extension.Table, extension.Strikethrough))
	policy = bluemonday.UGCPolicy()
)

var page = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: -apple-system, "Segoe UI", Helvetica, Arial, sans-serif; max-width: 48rem; margin: 2rem auto; padding: 0 1rem; line-height: 1.5; color: #1f2933; }
h1, h2 { color: #0b4f6c; }
hr { border: 0; border-top: 1px solid #d9e2ec; }
</style>
</head>
<body>
{{.Body}}
</body>
</html>
`))

// HTML renders markdown into a standalone, sanitised HTML page.
func HTML(title, markdown string) ([]byte, error) {
	var rendered bytes.Buffer
	if err := md.Convert([]byte(markdown), &rendered); err != nil {
		return nil, fmt.Errorf("rendering markdown: %w", err)
	}
	safe := policy.SanitizeBytes(rendered.Bytes())

	var out bytes.Buffer
	err := page.Execute(&out, map[string]any{
		"Title": title,
		"Body":  template.HTML(safe), //nolint: gosec
	})
	if err != nil {
		return nil, fmt.Errorf("rendering page: %w", err)
	}
	return out.Bytes(), nil
}
