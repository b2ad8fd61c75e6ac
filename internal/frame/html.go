package frame

import (
	"html/template"
	"io"
	"strings"
)

// AspectRatio is the frame image ratio announced to hosts.
const AspectRatio = "1.91:1"

// LinkButton is a button with its absolute post target.
type LinkButton struct {
	Label  string
	Target string
}

// Document is the markup of one frame response.
type Document struct {
	Title    string
	ImageURL string
	PostURL  string
	Buttons  []LinkButton
}

// NewDocument resolves panel buttons against baseURL, the absolute URL of the frame base path.
func NewDocument(p Panel, title, baseURL, imageURL string) Document {
	baseURL = strings.TrimRight(baseURL, "/")
	doc := Document{
		Title:    title,
		ImageURL: imageURL,
		PostURL:  baseURL + p.Screen.Path(),
	}
	for _, b := range p.Buttons {
		doc.Buttons = append(doc.Buttons, LinkButton{Label: b.Label, Target: baseURL + b.Target.Path()})
	}
	return doc
}

var page = template.Must(template.New("frame").Funcs(template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<meta property="og:title" content="{{.Title}}">
<meta property="og:image" content="{{.ImageURL}}">
<meta property="fc:frame" content="vNext">
<meta property="fc:frame:image" content="{{.ImageURL}}">
<meta property="fc:frame:image:aspect_ratio" content="` + AspectRatio + `">
<meta property="fc:frame:post_url" content="{{.PostURL}}">
{{- range $i, $b := .Buttons}}
<meta property="fc:frame:button:{{inc $i}}" content="{{$b.Label}}">
<meta property="fc:frame:button:{{inc $i}}:action" content="post">
<meta property="fc:frame:button:{{inc $i}}:target" content="{{$b.Target}}">
{{- end}}
</head>
<body>
<img src="{{.ImageURL}}" alt="{{.Title}}" width="600">
</body>
</html>
`))

// WriteHTML writes doc as a frame page.
func WriteHTML(w io.Writer, doc Document) error {
	return page.Execute(w, doc)
}
