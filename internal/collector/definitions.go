package collector

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/atinyakov/go-unveil/internal/content"
	"github.com/atinyakov/go-unveil/internal/routes"
)

var (
	imageModel           = content.Model{AppLabel: "wagtailimages", Name: "Image", Kind: content.KindImage}
	documentModel        = content.Model{AppLabel: "wagtaildocs", Name: "Document", Kind: content.KindDocument}
	siteModel            = content.Model{AppLabel: "wagtailcore", Name: "Site", Kind: content.KindSite}
	localeModel          = content.Model{AppLabel: "wagtailcore", Name: "Locale", Kind: content.KindLocale}
	collectionModel      = content.Model{AppLabel: "wagtailcore", Name: "Collection", Kind: content.KindCollection}
	userModel            = content.Model{AppLabel: "auth", Name: "User", Kind: content.KindUser}
	groupModel           = content.Model{AppLabel: "auth", Name: "Group", Kind: content.KindGroup}
	formSubmissionModel  = content.Model{AppLabel: "wagtailforms", Name: "FormSubmission", Kind: content.KindForm}
	redirectModel        = content.Model{AppLabel: "wagtailredirects", Name: "Redirect", Kind: content.KindRedirect}
	searchPromotionModel = content.Model{AppLabel: "wagtailsearchpromotions", Name: "SearchPromotion", Kind: content.KindSearchPromotion}
)

func fixed(models ...content.Model) func(context.Context, Env) ([]content.Model, error) {
	return func(context.Context, Env) ([]content.Model, error) {
		return models, nil
	}
}

func ofKind(kind content.Kind) func(context.Context, Env) ([]content.Model, error) {
	return func(ctx context.Context, env Env) ([]content.Model, error) {
		return env.Store.Models(ctx, kind)
	}
}

func namespace(ns string) func(content.Model) string {
	return func(content.Model) string { return ns }
}

func queryAll(m content.Model) content.Query {
	return content.Query{Model: m.Label()}
}

func constName(name string) func(content.Model) string {
	return func(content.Model) string { return name }
}

func label(m content.Model) string {
	return m.Label()
}

// titled names an instance "<prefix>_<id>_<title>".
func titled(prefix string) func(content.Model, content.Instance) string {
	return func(_ content.Model, in content.Instance) string {
		return fmt.Sprintf("%s_%d_%s", prefix, in.ID, in.Title)
	}
}

func noArgs(Target) ([]any, bool) { return nil, true }

func idArg(t Target) ([]any, bool) {
	return []any{t.Instance.ID}, true
}

func typeActions(types ...string) []Action {
	actions := make([]Action, 0, len(types))
	for _, typ := range types {
		actions = append(actions, Action{URLType: typ, Route: ":" + typ, Args: noArgs})
	}
	return actions
}

func instanceActions(types ...string) []Action {
	actions := make([]Action, 0, len(types))
	for _, typ := range types {
		actions = append(actions, Action{URLType: typ, Route: ":" + typ, Args: idArg})
	}
	return actions
}

// simple builds the definition shared by the single-model admin sections.
func simple(slug, icon string, order int, m content.Model, ns, typeName string,
	name func(content.Model, content.Instance) string) Definition {
	return Definition{
		Slug:            slug,
		Icon:            icon,
		Order:           order,
		DefaultMax:      1,
		Models:          fixed(m),
		Namespace:       namespace(ns),
		TypeActions:     typeActions("index", "add"),
		InstanceActions: instanceActions("edit", "delete"),
		Query:           queryAll,
		TypeName:        constName(typeName),
		InstanceName:    name,
	}
}

// byTitle lists instances by title. Redirect titles hold the old path.
func byTitle(d Definition) Definition {
	query := d.Query
	d.Query = func(m content.Model) content.Query {
		q := query(m)
		q.Order = content.OrderByTitle
		return q
	}
	return d
}

var definitions = []Definition{
	{
		Slug:       "page",
		Icon:       "pilcrow",
		Order:      10000,
		DefaultMax: 1,
		Models:     pageModels,
		Namespace:  namespace("wagtailadmin_pages"),
		NeedsRoot:  true,
		TypeActions: []Action{
			{URLType: "add", Route: ":add", Args: func(t Target) ([]any, bool) {
				return []any{t.Model.AppLabel, t.Model.LowerName(), t.Root.ID}, true
			}},
		},
		InstanceActions: append(
			instanceActions("edit", "delete", "copy", "move", "history", "workflow_history"),
			Action{URLType: "index", Route: "wagtailadmin_explore", Args: idArg},
			Action{URLType: "view", Frontend: pageView},
		),
		Query: func(m content.Model) content.Query {
			return content.Query{Model: m.Label(), LiveOnly: true}
		},
		TypeName: label,
		InstanceName: func(m content.Model, in content.Instance) string {
			return titled(m.Label())(m, in)
		},
	},
	{
		Slug:       "snippet",
		Icon:       "sliders",
		Order:      10001,
		DefaultMax: 1,
		Models:     ofKind(content.KindSnippet),
		Namespace: func(m content.Model) string {
			return routes.SnippetNamespace(m.AppLabel, m.Name)
		},
		TypeActions:     typeActions("add", "list"),
		InstanceActions: instanceActions("edit", "delete", "copy", "history", "usage"),
		Query:           queryAll,
		TypeName:        label,
		InstanceName: func(m content.Model, in content.Instance) string {
			return titled(m.Label())(m, in)
		},
	},
	simple("image", "image", 10002, imageModel, "wagtailimages", "wagtail.Image", titled("wagtail.Image")),
	simple("document", "doc-full-inverse", 10003, documentModel, "wagtaildocs", "wagtail.Document", titled("wagtail.Document")),
	func() Definition {
		d := simple("site", "home", 10004, siteModel, "wagtailsites", "wagtail.Site",
			func(_ content.Model, in content.Instance) string {
				return fmt.Sprintf("wagtail.Site (%s)", in.Hostname)
			})
		d.InstanceActions = append(d.InstanceActions, Action{URLType: "frontend", Frontend: siteFrontend})
		return d
	}(),
	{
		Slug:       "user",
		Icon:       "user",
		Order:      10005,
		DefaultMax: 5,
		Models:     fixed(userModel, groupModel),
		Namespace: func(m content.Model) string {
			if m.Kind == content.KindGroup {
				return "wagtailusers_groups"
			}
			return "wagtailusers_users"
		},
		TypeActions:     typeActions("add", "index"),
		InstanceActions: instanceActions("edit", "delete"),
		Query:           queryAll,
		TypeName:        label,
		InstanceName: func(m content.Model, _ content.Instance) string {
			return m.Label()
		},
	},
	simple("locale", "globe", 10006, localeModel, "wagtaillocales", "wagtail.Locale", titled("wagtail.Locale")),
	{
		Slug:       "form",
		Icon:       "form",
		Order:      10007,
		DefaultMax: 10,
		Models:     fixed(formSubmissionModel),
		Namespace:  namespace("wagtailforms"),
		TypeActions: []Action{
			{URLType: "forms_index", Route: ":index", Args: noArgs},
		},
		InstanceActions: append(
			instanceActions("list_submissions", "delete_submissions"),
			Action{URLType: "frontend_form", Frontend: formFrontend},
		),
		Query: func(m content.Model) content.Query {
			return content.Query{Model: m.Label(), WithSubmissions: true}
		},
		TypeName: label,
		InstanceName: func(m content.Model, in content.Instance) string {
			return fmt.Sprintf("%s_Page_%d", m.Label(), in.ID)
		},
	},
	byTitle(simple("redirect", "redirect", 10008, redirectModel, "wagtailredirects", "wagtail.Redirect", titled("wagtail.Redirect"))),
	simple("search-promotion", "pick", 10009, searchPromotionModel, "wagtailsearchpromotions",
		"wagtail.SearchPromotion", titled("wagtail.SearchPromotion")),
	{
		Slug:       "settings",
		Icon:       "cog",
		Order:      10010,
		DefaultMax: 10,
		Models:     ofKind(content.KindSettings),
		Namespace:  namespace("wagtailsettings"),
		InstanceActions: []Action{
			{URLType: "edit", Route: ":edit", Args: settingsArgs},
		},
		Query:        queryAll,
		TypeName:     label,
		InstanceName: settingsName,
		Fallback:     settingsFallback,
	},
	func() Definition {
		d := simple("collection", "folder-open-1", 10011, collectionModel, "wagtailadmin_collections",
			"wagtail.Collection", func(_ content.Model, in content.Instance) string {
				return fmt.Sprintf("wagtail.Collection (%s)", in.Title)
			})
		d.DefaultMax = 20
		d.Query = func(m content.Model) content.Query {
			return content.Query{Model: m.Label(), ExcludeDepth: 1}
		}
		return d
	}(),
	{
		Slug:            "generic",
		Title:           "Generic Model",
		Icon:            "cogs",
		Order:           10012,
		DefaultMax:      1,
		Models:          genericModels,
		Namespace:       func(m content.Model) string { return m.LowerName() },
		TypeActions:     []Action{{URLType: "add", Route: ":add", Args: noArgs}, {URLType: "list", Route: ":index", Args: noArgs}},
		InstanceActions: instanceActions("edit", "delete", "copy", "history", "usage"),
		Query:           queryAll,
		TypeName:        label,
		InstanceName: func(m content.Model, _ content.Instance) string {
			return m.Label()
		},
	},
}

// Definitions returns every report ordered by menu order.
func Definitions() []Definition {
	out := make([]Definition, len(definitions))
	copy(out, definitions)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// Lookup returns the report with the given slug.
func Lookup(slug string) (Definition, bool) {
	for _, d := range definitions {
		if d.Slug == slug {
			return d, true
		}
	}
	return Definition{}, false
}

func pageModels(ctx context.Context, env Env) ([]content.Model, error) {
	all, err := env.Store.Models(ctx, content.KindPage)
	if err != nil {
		return nil, err
	}

	out := make([]content.Model, 0, len(all))
	for _, m := range all {
		if strings.EqualFold(m.Label(), content.PageLabel) {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

// genericModels uses the configured labels, or the store's generic models
// when none are configured.
func genericModels(ctx context.Context, env Env) ([]content.Model, error) {
	if len(env.GenericModels) == 0 {
		return env.Store.Models(ctx, content.KindGeneric)
	}

	out := make([]content.Model, 0, len(env.GenericModels))
	for _, l := range env.GenericModels {
		m, err := content.ParseLabel(l, content.KindGeneric)
		if err != nil {
			env.Logger.Warn("skipping generic model", zap.String("label", l), zap.Error(err))
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func pageView(baseURL string, t Target) string {
	u := t.Instance.URL
	switch {
	case u == "":
		return ""
	case strings.HasPrefix(u, "http"):
		return u
	case strings.HasPrefix(u, "/"):
		return baseURL + u
	default:
		return baseURL + "/" + u
	}
}

func siteFrontend(_ string, t Target) string {
	in := t.Instance
	if in.Hostname == "" {
		return ""
	}

	scheme := "http"
	if in.Port == 443 {
		scheme = "https"
	}
	if in.Port == 0 || in.Port == 80 || in.Port == 443 {
		return scheme + "://" + in.Hostname + "/"
	}
	return scheme + "://" + in.Hostname + ":" + strconv.Itoa(in.Port) + "/"
}

func formFrontend(baseURL string, t Target) string {
	if t.Instance.URL == "" {
		return ""
	}
	return strings.TrimRight(baseURL, "/") + t.Instance.URL
}

func settingsArgs(t Target) ([]any, bool) {
	args := []any{t.Model.AppLabel, t.Model.LowerName()}
	if t.Model.MultiSite && t.Instance.SiteID != 0 {
		args = append(args, t.Instance.SiteID)
	}
	return args, true
}

func settingsName(m content.Model, in content.Instance) string {
	if m.MultiSite && in.SiteID != 0 {
		return fmt.Sprintf("%s_Site_%s_Instance_%d", m.Label(), in.SiteHostname, in.ID)
	}
	return fmt.Sprintf("%s_Instance_%d", m.Label(), in.ID)
}

// settingsFallback lists the edit page of each settings model when no
// settings were saved yet, once per site for multi-site models.
func settingsFallback(ctx context.Context, env Env, models []content.Model) []Entry {
	if env.MaxInstances > 0 && len(models) > env.MaxInstances {
		models = models[:env.MaxInstances]
	}

	var sites []content.Instance
	var sitesLoaded bool

	entries := make([]Entry, 0)
	for _, m := range models {
		if !m.MultiSite {
			if path, ok := env.Resolver.Resolve("wagtailsettings:edit", m.AppLabel, m.LowerName()); ok {
				entries = append(entries, Entry{ModelName: m.Label(), URLType: "edit", URL: env.BaseURL + path})
			}
			continue
		}

		if !sitesLoaded {
			sitesLoaded = true
			var err error
			sites, err = env.Store.Instances(ctx, content.Query{Model: content.SiteLabel})
			if err != nil {
				env.Logger.Warn("cannot list sites for settings", zap.Error(err))
			}
		}

		for _, s := range sites {
			path, ok := env.Resolver.Resolve("wagtailsettings:edit", m.AppLabel, m.LowerName(), s.ID)
			if !ok {
				continue
			}
			entries = append(entries, Entry{
				ModelName: fmt.Sprintf("%s_Site_%s", m.Label(), s.Hostname),
				URLType:   "edit",
				URL:       env.BaseURL + path,
			})
		}
	}
	return entries
}
