// Package web renders the operator page.
package web

//go:generate templ generate

import (
	"net/url"

	"github.com/a-h/templ"

	"provisioning-portal/internal/catalog"
	"provisioning-portal/internal/portal"
)

// AppName is shown in the navigation bar and page title.
const AppName = "System Provisioning Portal"

// PageData is everything the page needs to render.
type PageData struct {
	Systems  []catalog.System
	Versions []catalog.Version
	Snapshot portal.Snapshot
}

// autoRefresh reloads the page while a banner is transient.
func autoRefresh(st portal.Status) bool {
	return st.Busy() || st.Success()
}

func toggleURL(name string) templ.SafeURL {
	return templ.URL("/systems/" + url.PathEscape(name) + "/toggle")
}

func checkMark(selected bool) string {
	if selected {
		return "☑"
	}
	return "☐"
}

func actionLabel(label string, running bool) string {
	if running {
		return label + "…"
	}
	return label
}
