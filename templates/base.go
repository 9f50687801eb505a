package templates

// Base template: document shell for standalone pages. Pages define the
// "content" block.

func GetBaseTemplates() string {
	return baseTemplate
}

var baseTemplate = `{{define "base"}}<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <meta name="description" content="{{.Summary}}">
  <meta property="og:title" content="{{.Title}}">
  <meta property="og:description" content="{{.Summary}}">
  <meta property="og:type" content="article">
  {{if .Image}}<meta property="og:image" content="{{.Image}}">
  {{end}}<title>{{.Title}}</title>
  <style>
    body { margin: 0; font-family: system-ui, sans-serif; line-height: 1.6; color: #222; background: #fdfdfd; }
    .container { max-width: 42rem; margin: 0 auto; padding: 2rem 1rem; }
    .event-date { color: #666; font-size: 0.9rem; }
    .event-image { width: 100%; border-radius: 6px; }
    .event-content img, .event-content video { max-width: 100%; }
    .event-summary { font-style: italic; }
    footer { margin-top: 2rem; font-size: 0.85rem; word-break: break-all; }
    @media (prefers-color-scheme: dark) { body { color: #ddd; background: #111; } a { color: #8ab4f8; } }
  </style>
</head>
<body>
  <main id="main-content" class="container">
    {{template "content" .}}
  </main>
</body>
</html>{{end}}`
