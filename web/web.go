// Package web embeds the static dashboard page.
package web

import "embed"

//go:embed index.html
var Assets embed.FS

// IndexFile is the entry page inside Assets
const IndexFile = "index.html"
