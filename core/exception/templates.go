package exception

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"slices"

	"github.com/dmitrymomot/relay/core/request"
	"github.com/dmitrymomot/relay/core/response"
)

// Precompiled templates for debug pages.
var (
	traceTemplate = template.Must(template.New("trace").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8">
    <title>{{.Type}} at {{.Path}}</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif; margin: 0; background: #fafafa; color: #222; }
        header { background: #b00020; color: white; padding: 24px 32px; }
        header h1 { margin: 0 0 8px; font-size: 22px; }
        header p { margin: 0; opacity: .85; }
        section { padding: 16px 32px; }
        h2 { font-size: 16px; color: #555; border-bottom: 1px solid #ddd; padding-bottom: 4px; }
        pre { background: #fff; border: 1px solid #e0e0e0; padding: 12px; overflow-x: auto; font-size: 13px; }
        table { border-collapse: collapse; font-size: 13px; }
        td { padding: 2px 12px 2px 0; vertical-align: top; }
        td:first-child { color: #777; }
    </style>
</head>
<body>
    <header>
        <h1>{{.Type}}</h1>
        <p>{{.Method}} {{.Path}}</p>
    </header>
    <section>
        <h2>Error</h2>
        <pre>{{.Message}}</pre>
    </section>
    {{if .Chain}}<section>
        <h2>Wrapped errors</h2>
        <table>{{range .Chain}}
            <tr><td>{{.Type}}</td><td>{{.Message}}</td></tr>{{end}}
        </table>
    </section>{{end}}
    <section>
        <h2>Stack</h2>
        <pre>{{.Stack}}</pre>
    </section>
    <section>
        <h2>Request headers</h2>
        <table>{{range .Headers}}
            <tr><td>{{.Name}}</td><td>{{.Value}}</td></tr>{{end}}
        </table>
    </section>
</body>
</html>`))

	notFoundTemplate = template.Must(template.New("not_found").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8">
    <title>Page not found</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif; margin: 0; background: #fafafa; color: #222; }
        header { background: #37474f; color: white; padding: 24px 32px; }
        header h1 { margin: 0 0 8px; font-size: 22px; }
        section { padding: 16px 32px; }
        table { border-collapse: collapse; font-size: 13px; font-family: monospace; }
        td { padding: 2px 16px 2px 0; }
    </style>
</head>
<body>
    <header>
        <h1>Page not found</h1>
        <p>No route matches {{.Method}} {{.Path}}</p>
    </header>
    <section>
        <p>Routes tried, in order:</p>
        <table>{{range .Routes}}
            <tr><td>{{.}}</td></tr>{{end}}
        </table>
    </section>
</body>
</html>`))
)

type traceLink struct {
	Type    string
	Message string
}

type headerLine struct {
	Name  string
	Value string
}

// DebugPage renders the HTML trace page for err with status 500.
func DebugPage(req *request.Request, err error) *response.Response {
	data := struct {
		Type    string
		Message string
		Method  string
		Path    string
		Chain   []traceLink
		Stack   string
		Headers []headerLine
	}{
		Type:    fmt.Sprintf("%T", err),
		Message: err.Error(),
		Method:  req.Method(),
		Path:    req.Path(),
		Stack:   string(stackOf(err)),
	}

	for _, link := range unwrapAll(err)[1:] {
		data.Chain = append(data.Chain, traceLink{Type: fmt.Sprintf("%T", link), Message: link.Error()})
	}
	for _, h := range req.Scope().Headers {
		data.Headers = append(data.Headers, headerLine{Name: h.Name, Value: h.Value})
	}

	var buf bytes.Buffer
	if terr := traceTemplate.Execute(&buf, data); terr != nil {
		return InternalError()
	}
	return response.HTML(http.StatusInternalServerError, buf.String())
}

// NotFoundPage renders the debug 404 page listing route patterns.
func NotFoundPage(req *request.Request, routes []string) *response.Response {
	data := struct {
		Method string
		Path   string
		Routes []string
	}{req.Method(), req.Path(), slices.Clone(routes)}

	var buf bytes.Buffer
	if err := notFoundTemplate.Execute(&buf, data); err != nil {
		return response.Text(http.StatusNotFound, http.StatusText(http.StatusNotFound))
	}
	return response.HTML(http.StatusNotFound, buf.String())
}
