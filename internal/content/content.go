// Package content describes the content types of the audited site and the
// store that lists their existing instances.
package content

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrUnavailable is returned by a Store when the backing table or model
// cannot be queried at all.
var ErrUnavailable = errors.New("content unavailable")

// Kind groups models that share a set of admin routes.
type Kind string

const (
	KindPage            Kind = "page"
	KindSnippet         Kind = "snippet"
	KindImage           Kind = "image"
	KindDocument        Kind = "document"
	KindSite            Kind = "site"
	KindUser            Kind = "user"
	KindGroup           Kind = "group"
	KindLocale          Kind = "locale"
	KindForm            Kind = "form"
	KindRedirect        Kind = "redirect"
	KindSearchPromotion Kind = "search_promotion"
	KindSettings        Kind = "settings"
	KindCollection      Kind = "collection"
	KindGeneric         Kind = "generic"
)

// Model is a registered content type.
type Model struct {
	AppLabel  string `yaml:"app_label" json:"app_label"`
	Name      string `yaml:"name" json:"name"`
	Kind      Kind   `yaml:"kind" json:"kind"`
	MultiSite bool   `yaml:"multisite" json:"multisite"`
}

// Label returns the "app_label.ModelName" identifier.
func (m Model) Label() string {
	return m.AppLabel + "." + m.Name
}

// LowerName returns the lower-cased model name used in route names.
func (m Model) LowerName() string {
	return strings.ToLower(m.Name)
}

// ParseLabel splits "app_label.ModelName" into a Model of the given kind.
func ParseLabel(label string, kind Kind) (Model, error) {
	i := strings.LastIndex(label, ".")
	if i <= 0 || i == len(label)-1 {
		return Model{}, fmt.Errorf("invalid model label %q", label)
	}

	return Model{AppLabel: label[:i], Name: label[i+1:], Kind: kind}, nil
}

// Instance is one existing row of a content type. Only the fields relevant
// to the model's kind are set.
type Instance struct {
	ID           int64  `yaml:"id" json:"id"`
	Model        string `yaml:"model" json:"model"`
	Title        string `yaml:"title" json:"title"`
	Hostname     string `yaml:"hostname" json:"hostname,omitempty"`
	Port         int    `yaml:"port" json:"port,omitempty"`
	URL          string `yaml:"url" json:"url,omitempty"`
	Live         bool   `yaml:"live" json:"live"`
	Depth        int    `yaml:"depth" json:"depth,omitempty"`
	SiteID       int64  `yaml:"site_id" json:"site_id,omitempty"`
	SiteHostname string `yaml:"site_hostname" json:"site_hostname,omitempty"`
	Submissions  int    `yaml:"submissions" json:"submissions,omitempty"`
}

// Order is the sort order of an instance query.
type Order string

const (
	// OrderByID sorts by primary key. It is the zero value.
	OrderByID Order = ""
	// OrderByTitle sorts by title, then id. Redirects use it for old_path.
	OrderByTitle Order = "title"
)

// Query selects instances of a single model.
type Query struct {
	// Model is the model label, e.g. "wagtailredirects.Redirect".
	Model string
	// Limit caps the number of instances. Zero or less means no cap.
	Limit int
	// LiveOnly keeps only published instances.
	LiveOnly bool
	// Depth keeps only instances at the given tree depth when non-zero.
	Depth int
	// ExcludeDepth drops instances at the given tree depth when non-zero.
	ExcludeDepth int
	// WithSubmissions keeps only instances that have form submissions.
	WithSubmissions bool
	// Order sorts the result before Limit applies.
	Order Order
}

// Match reports whether in satisfies every filter of q except Limit.
func (q Query) Match(in Instance) bool {
	if in.Model != q.Model {
		return false
	}
	if q.LiveOnly && !in.Live {
		return false
	}
	if q.Depth != 0 && in.Depth != q.Depth {
		return false
	}
	if q.ExcludeDepth != 0 && in.Depth == q.ExcludeDepth {
		return false
	}
	if q.WithSubmissions && in.Submissions == 0 {
		return false
	}
	return true
}

// Store lists registered models and their instances.
type Store interface {
	Models(ctx context.Context, kind Kind) ([]Model, error)
	Instances(ctx context.Context, q Query) ([]Instance, error)
	Ping(ctx context.Context) error
}

// Well-known model labels.
const (
	PageLabel            = "wagtailcore.Page"
	SiteLabel            = "wagtailcore.Site"
	LocaleLabel          = "wagtailcore.Locale"
	CollectionLabel      = "wagtailcore.Collection"
	ImageLabel           = "wagtailimages.Image"
	DocumentLabel        = "wagtaildocs.Document"
	UserLabel            = "auth.User"
	GroupLabel           = "auth.Group"
	FormSubmissionLabel  = "wagtailforms.FormSubmission"
	RedirectLabel        = "wagtailredirects.Redirect"
	SearchPromotionLabel = "wagtailsearchpromotions.SearchPromotion"
)
