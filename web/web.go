// Package web embeds the static chat page served at GET /.
package web

import (
	"embed"
	"net/http"
)

//go:embed index.html
var files embed.FS

// IndexHTML returns the chat page.
func IndexHTML() []byte {
	b, err := files.ReadFile("index.html")
	if err != nil {
		panic("web: index.html missing from embed: " + err.Error())
	}
	return b
}

// Handler serves the chat page for every request it receives.
func Handler() http.Handler {
	page := IndexHTML()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		if r.Method == http.MethodHead {
			return
		}
		_, _ = w.Write(page)
	})
}
