// Package web serves the static informational pages: the HTML route
// index and robots.txt. The index is rendered once at startup since the
// route table never changes afterwards.
package web

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"sort"

	"github.com/wudi/apiproxy/internal/router"
)

const robotsBody = "User-agent: *\nDisallow: /"

var indexTmpl = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>API Proxy Service</title>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
            max-width: 1200px;
            margin: 0 auto;
            padding: 20px;
            line-height: 1.6;
            background: #f5f5f5;
        }
        .container {
            background: white;
            border-radius: 8px;
            padding: 30px;
            box-shadow: 0 2px 10px rgba(0,0,0,0.1);
        }
        h1 {
            color: #333;
            border-bottom: 2px solid #007acc;
            padding-bottom: 10px;
            margin-top: 0;
        }
        ul {
            list-style-type: none;
            padding: 0;
            display: grid;
            grid-template-columns: repeat(auto-fill, minmax(300px, 1fr));
            gap: 10px;
        }
        li {
            margin: 5px 0;
            padding: 15px;
            background: #f8f9fa;
            border-radius: 5px;
            border-left: 4px solid #007acc;
        }
        a {
            text-decoration: none;
            color: #007acc;
            font-weight: bold;
        }
        a:hover {
            color: #005a9e;
            text-decoration: underline;
        }
        footer {
            margin-top: 30px;
            text-align: center;
            color: #666;
            font-size: 0.9em;
        }
        @media (max-width: 768px) {
            ul {
                grid-template-columns: 1fr;
            }
        }
    </style>
</head>
<body>
    <div class="container">
        <h1>API Proxy Service</h1>
        <p>Available API endpoints:</p>
        <ul>
{{- range .Routes }}
            <li><a href="{{ .Prefix }}">{{ .Prefix }}</a> &rarr; {{ .Target }}</li>
{{- end }}
        </ul>
        <footer>
            <p><small>Service is running.</small></p>
        </footer>
    </div>
</body>
</html>
`))

type indexRoute struct {
	Prefix string
	Target string
}

// Index serves the pre-rendered route overview page.
type Index struct {
	body []byte
}

// NewIndex renders the overview page for the given table. Routes are
// listed alphabetically regardless of the table's resolution order.
func NewIndex(table *router.Table) (*Index, error) {
	routes := make([]indexRoute, 0, table.Len())
	for _, e := range table.Entries() {
		routes = append(routes, indexRoute{Prefix: e.Prefix, Target: e.Target.String()})
	}
	sort.Slice(routes, func(i, j int) bool { return routes[i].Prefix < routes[j].Prefix })

	var buf bytes.Buffer
	if err := indexTmpl.Execute(&buf, struct{ Routes []indexRoute }{routes}); err != nil {
		return nil, fmt.Errorf("render index page: %w", err)
	}
	return &Index{body: buf.Bytes()}, nil
}

// ServeHTTP writes the rendered page.
func (i *Index) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(i.body)
}

// Robots serves the crawler exclusion file. The proxy fronts API
// backends, so everything is disallowed.
func Robots(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.Write([]byte(robotsBody))
}
