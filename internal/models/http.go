// Package models defines the request and response data structures used
// by the HTTP and gRPC surfaces of the report service.
package models

import "github.com/atinyakov/go-unveil/internal/report"

// ReportInfo describes one report in the menu.
type ReportInfo struct {
	// Slug identifies the report in URLs, e.g. "redirect".
	Slug string `json:"slug"`

	// Title is the display name, e.g. "Redirect".
	Title string `json:"title"`

	// Label is the menu label, e.g. "Unveil Redirect URL's".
	Label string `json:"label"`

	Icon string `json:"icon"`

	// Order sorts menu items.
	Order int `json:"order"`

	// URL is the path of the HTML report.
	URL string `json:"url"`
}

// Report is one rendered report.
type Report struct {
	Info ReportInfo   `json:"report"`
	Rows []report.Row `json:"results"`

	// MaxInstances is the instance cap the report was collected with.
	MaxInstances int `json:"max_instances"`

	// Unresolved counts routes that could not be resolved.
	Unresolved int `json:"unresolved"`
}
