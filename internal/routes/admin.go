package routes

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// adminRoutes is the default Wagtail admin URL table.
var adminRoutes = []struct{ name, pattern string }{
	{"wagtailadmin_explore_root", "/admin/pages/"},
	{"wagtailadmin_explore", "/admin/pages/{page_id:int}/"},
	{"wagtailadmin_pages:add", "/admin/pages/add/{app_label}/{model_name}/{parent_id:int}/"},
	{"wagtailadmin_pages:edit", "/admin/pages/{page_id:int}/edit/"},
	{"wagtailadmin_pages:delete", "/admin/pages/{page_id:int}/delete/"},
	{"wagtailadmin_pages:copy", "/admin/pages/{page_id:int}/copy/"},
	{"wagtailadmin_pages:move", "/admin/pages/{page_id:int}/move/"},
	{"wagtailadmin_pages:history", "/admin/pages/{page_id:int}/history/"},
	{"wagtailadmin_pages:workflow_history", "/admin/pages/{page_id:int}/workflow_history/"},

	{"wagtailimages:index", "/admin/images/"},
	{"wagtailimages:add", "/admin/images/add/"},
	{"wagtailimages:edit", "/admin/images/{image_id:int}/"},
	{"wagtailimages:delete", "/admin/images/{image_id:int}/delete/"},

	{"wagtaildocs:index", "/admin/documents/"},
	{"wagtaildocs:add", "/admin/documents/add/"},
	{"wagtaildocs:edit", "/admin/documents/edit/{document_id:int}/"},
	{"wagtaildocs:delete", "/admin/documents/delete/{document_id:int}/"},

	{"wagtailsites:index", "/admin/sites/"},
	{"wagtailsites:add", "/admin/sites/new/"},
	{"wagtailsites:edit", "/admin/sites/{pk:int}/"},
	{"wagtailsites:delete", "/admin/sites/{pk:int}/delete/"},

	{"wagtailusers_users:index", "/admin/users/"},
	{"wagtailusers_users:add", "/admin/users/add/"},
	{"wagtailusers_users:edit", "/admin/users/{pk}/"},
	{"wagtailusers_users:delete", "/admin/users/{pk}/delete/"},

	{"wagtailusers_groups:index", "/admin/groups/"},
	{"wagtailusers_groups:add", "/admin/groups/new/"},
	{"wagtailusers_groups:edit", "/admin/groups/{pk:int}/"},
	{"wagtailusers_groups:delete", "/admin/groups/{pk:int}/delete/"},

	{"wagtaillocales:index", "/admin/locales/"},
	{"wagtaillocales:add", "/admin/locales/new/"},
	{"wagtaillocales:edit", "/admin/locales/{pk:int}/"},
	{"wagtaillocales:delete", "/admin/locales/{pk:int}/delete/"},

	{"wagtailforms:index", "/admin/forms/"},
	{"wagtailforms:list_submissions", "/admin/forms/submissions/{page_id:int}/"},
	{"wagtailforms:delete_submissions", "/admin/forms/submissions/{page_id:int}/delete/"},

	{"wagtailredirects:index", "/admin/redirects/"},
	{"wagtailredirects:add", "/admin/redirects/add/"},
	{"wagtailredirects:edit", "/admin/redirects/{redirect_id:int}/"},
	{"wagtailredirects:delete", "/admin/redirects/{redirect_id:int}/delete/"},

	{"wagtailsearchpromotions:index", "/admin/searchpicks/"},
	{"wagtailsearchpromotions:add", "/admin/searchpicks/add/"},
	{"wagtailsearchpromotions:edit", "/admin/searchpicks/{query_id:int}/"},
	{"wagtailsearchpromotions:delete", "/admin/searchpicks/{query_id:int}/delete/"},

	{"wagtailsettings:edit", "/admin/settings/{app_name}/{model_name}/"},
	{"wagtailsettings:edit", "/admin/settings/{app_name}/{model_name}/{site_pk:int}/"},

	{"wagtailadmin_collections:index", "/admin/collections/"},
	{"wagtailadmin_collections:add", "/admin/collections/add/"},
	{"wagtailadmin_collections:edit", "/admin/collections/{pk:int}/"},
	{"wagtailadmin_collections:delete", "/admin/collections/{pk:int}/delete/"},
}

// Admin returns a registry holding the default admin URL table.
func Admin() *Registry {
	r := New()
	for _, rt := range adminRoutes {
		r.MustRegister(rt.name, rt.pattern)
	}
	return r
}

// SnippetNamespace returns the route namespace of a snippet model.
func SnippetNamespace(appLabel, modelName string) string {
	return fmt.Sprintf("wagtailsnippets_%s_%s", appLabel, strings.ToLower(modelName))
}

// RegisterSnippet registers the snippet viewset of one model.
func (r *Registry) RegisterSnippet(appLabel, modelName string) {
	lower := strings.ToLower(modelName)
	r.RegisterViewSet(SnippetNamespace(appLabel, modelName), "/admin/snippets/"+appLabel+"/"+lower)
}

// RegisterModelViewSet registers a generic model viewset whose namespace is
// the lower-cased model name.
func (r *Registry) RegisterModelViewSet(modelName string) {
	lower := strings.ToLower(modelName)
	r.RegisterViewSet(lower, "/admin/"+lower)
}

// Override is one entry of a routes file.
type Override struct {
	Name     string   `yaml:"name"`
	Patterns []string `yaml:"patterns"`
}

// File is the YAML document accepted by LoadFile.
type File struct {
	Routes []Override `yaml:"routes"`
}

// LoadFile applies the overrides found in a YAML routes file. An override
// replaces every pattern of its name; an override without patterns removes
// the route.
func (r *Registry) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parse routes file: %w", err)
	}

	return r.Apply(f.Routes)
}

// Apply replaces the patterns of each override. Every pattern is compiled
// first; on error the registry is left untouched.
func (r *Registry) Apply(overrides []Override) error {
	compiled := make([][]pattern, len(overrides))
	for i, o := range overrides {
		if o.Name == "" {
			return fmt.Errorf("%w: empty route name", ErrImproperlyConfigured)
		}
		for _, raw := range o.Patterns {
			p, err := compile(raw)
			if err != nil {
				return fmt.Errorf("route %q: %w", o.Name, err)
			}
			compiled[i] = append(compiled[i], p)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for i, o := range overrides {
		if len(compiled[i]) == 0 {
			delete(r.routes, o.Name)
			continue
		}
		r.routes[o.Name] = compiled[i]
	}
	return nil
}
