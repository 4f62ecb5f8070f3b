// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/pdiddy/litwatch/pkg/types"
)

var pageTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"link":  Link,
	"inc":   func(i int) int { return i + 1 },
	"score": func(v float64) string { return fmt.Sprintf("%.3f", v) },
	"date": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("2006-01-02")
	},
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Meta.Title}}</title>
<style>
body { font-family: sans-serif; max-width: 60rem; margin: 2rem auto; padding: 0 1rem; }
table { border-collapse: collapse; width: 100%; }
th, td { text-align: left; padding: 0.4rem 0.6rem; border-bottom: 1px solid #ddd; vertical-align: top; }
.abstract { color: #555; font-size: 0.9rem; }
.tag { background: #eee; border-radius: 3px; padding: 0 0.3rem; font-size: 0.8rem; }
</style>
</head>
<body>
<h1>{{.Meta.Title}}</h1>
<p>Generated {{.Meta.GeneratedAt.Format "2006-01-02 15:04 MST"}}. {{len .Ranked}} candidate(s).</p>
{{if .Ranked}}
<table>
<tr><th>#</th><th>Score</th><th>Paper</th><th>Components</th></tr>
{{range $i, $c := .Ranked}}
<tr>
<td>{{inc $i}}</td>
<td>{{score $c.CompositeScore}}</td>
<td>
{{with link $c.CanonicalCandidate}}<a href="{{.}}">{{$c.Title}}</a>{{else}}{{$c.Title}}{{end}}
{{if $c.IsPreprint}}<span class="tag">preprint</span>{{end}}
{{if gt $c.WhitelistBonus 0.0}}<span class="tag">whitelist</span>{{end}}
<br>{{$c.Venue}}{{with date $c.PublishedAt}}, {{.}}{{end}}
{{with $c.Abstract}}<div class="abstract">{{.}}</div>{{end}}
</td>
<td>sim {{score $c.Similarity}}<br>rec {{score $c.RecencyWeight}}<br>met {{score $c.MetricWeight}}<br>jrn {{score $c.JournalWeight}}</td>
</tr>
{{end}}
</table>
{{else}}
<p>No candidates ranked in this window.</p>
{{end}}
</body>
</html>
`))

// WriteHTML renders the shortlist as a standalone HTML page.
func WriteHTML(w io.Writer, ranked []types.ScoredCandidate, meta Meta) error {
	data := struct {
		Meta   Meta
		Ranked []types.ScoredCandidate
	}{Meta: meta, Ranked: ranked}
	return pageTemplate.Execute(w, data)
}
