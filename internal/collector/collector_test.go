package collector_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/atinyakov/go-unveil/internal/collector"
	"github.com/atinyakov/go-unveil/internal/content"
	"github.com/atinyakov/go-unveil/internal/mocks"
	"github.com/atinyakov/go-unveil/internal/resolver"
	"github.com/atinyakov/go-unveil/internal/routes"
	"github.com/atinyakov/go-unveil/internal/storage"
)

const base = "http://localhost:8000"

func env(t *testing.T, store content.Store, reg *routes.Registry, limit int) collector.Env {
	t.Helper()
	return collector.Env{
		Store:        store,
		Resolver:     resolver.New(reg, zap.NewNop()),
		BaseURL:      base,
		MaxInstances: limit,
		Logger:       zap.NewNop(),
	}
}

func lookup(t *testing.T, slug string) collector.Definition {
	t.Helper()
	def, ok := collector.Lookup(slug)
	require.True(t, ok, slug)
	return def
}

func demo(t *testing.T) *storage.MemoryStorage {
	t.Helper()
	mem, err := storage.NewDemo()
	require.NoError(t, err)
	return mem
}

func TestCollect_RedirectsCapped(t *testing.T) {
	got := collector.Collect(context.Background(), lookup(t, "redirect"), env(t, demo(t), routes.Admin(), 2))

	want := []collector.Entry{
		{ModelName: "wagtail.Redirect", URLType: "index", URL: base + "/admin/redirects/"},
		{ModelName: "wagtail.Redirect", URLType: "add", URL: base + "/admin/redirects/add/"},
		{ModelName: "wagtail.Redirect_2_/about-us/", URLType: "edit", URL: base + "/admin/redirects/2/"},
		{ModelName: "wagtail.Redirect_2_/about-us/", URLType: "delete", URL: base + "/admin/redirects/2/delete/"},
		{ModelName: "wagtail.Redirect_1_/old-blog/", URLType: "edit", URL: base + "/admin/redirects/1/"},
		{ModelName: "wagtail.Redirect_1_/old-blog/", URLType: "delete", URL: base + "/admin/redirects/1/delete/"},
	}
	assert.Equal(t, want, got)
}

func TestCollect_NoInstances(t *testing.T) {
	mem, _ := storage.CreateMemoryStorage()

	got := collector.Collect(context.Background(), lookup(t, "document"), env(t, mem, routes.Admin(), 5))

	require.Len(t, got, 2)
	assert.Equal(t, "index", got[0].URLType)
	assert.Equal(t, "add", got[1].URLType)
}

func TestCollect_MissingRouteSkipsOnlyThatRow(t *testing.T) {
	reg := routes.Admin()
	reg.Remove("wagtailredirects:add")
	reg.Remove("wagtailredirects:delete")

	got := collector.Collect(context.Background(), lookup(t, "redirect"), env(t, demo(t), reg, 0))

	types := make([]string, 0, len(got))
	for _, e := range got {
		types = append(types, e.URLType)
	}
	assert.Equal(t, []string{"index", "edit", "edit", "edit"}, types)
}

func TestCollect_StoreErrorKeepsTypeRows(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	store.EXPECT().
		Instances(gomock.Any(), content.Query{Model: content.ImageLabel, Limit: 3}).
		Return(nil, errors.New("db is gone"))

	core, logs := observer.New(zapcore.WarnLevel)
	e := env(t, store, routes.Admin(), 3)
	e.Logger = zap.New(core)

	got := collector.Collect(context.Background(), lookup(t, "image"), e)

	require.Len(t, got, 2)
	assert.Equal(t, base+"/admin/images/", got[0].URL)
	assert.Equal(t, base+"/admin/images/add/", got[1].URL)
	assert.Equal(t, 1, logs.FilterMessage("abandoning instances").Len())
}

func TestCollect_ModelsErrorYieldsNothing(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	store.EXPECT().Models(gomock.Any(), content.KindSnippet).Return(nil, content.ErrUnavailable)

	got := collector.Collect(context.Background(), lookup(t, "snippet"), env(t, store, routes.Admin(), 1))
	assert.Empty(t, got)
}

func TestCollect_Pages(t *testing.T) {
	got := collector.Collect(context.Background(), lookup(t, "page"), env(t, demo(t), routes.Admin(), 1))

	byModel := map[string][]collector.Entry{}
	for _, e := range got {
		byModel[e.ModelName] = append(byModel[e.ModelName], e)
	}

	assert.NotContains(t, byModel, "wagtailcore.Page")
	require.Len(t, byModel["blog.BlogPage"], 1)
	assert.Equal(t, base+"/admin/pages/add/blog/blogpage/1/", byModel["blog.BlogPage"][0].URL)

	post := byModel["blog.BlogPage_4_First post"]
	require.Len(t, post, 8)
	assert.Equal(t, "edit", post[0].URLType)
	assert.Equal(t, "index", post[6].URLType)
	assert.Equal(t, base+"/admin/pages/4/", post[6].URL)
	assert.Equal(t, collector.Entry{ModelName: "blog.BlogPage_4_First post", URLType: "view", URL: base + "/blog/first-post/"}, post[7])

	assert.NotContains(t, byModel, "blog.BlogPage_5_Draft post")
}

func TestCollect_PagesWithoutRoot(t *testing.T) {
	mem, _ := storage.CreateMemoryStorage()
	mem.AddModels(content.Model{AppLabel: "blog", Name: "BlogPage", Kind: content.KindPage})
	require.NoError(t, mem.Write(context.Background(),
		content.Instance{Model: "blog.BlogPage", ID: 9, Title: "Orphan", Live: true, URL: "https://example.com/orphan/"}))

	got := collector.Collect(context.Background(), lookup(t, "page"), env(t, mem, routes.Admin(), 1))

	for _, e := range got {
		assert.NotEqual(t, "add", e.URLType)
	}
	require.NotEmpty(t, got)
	assert.Equal(t, "https://example.com/orphan/", got[len(got)-1].URL)
}

func TestCollect_SitesAndForms(t *testing.T) {
	mem := demo(t)

	sites := collector.Collect(context.Background(), lookup(t, "site"), env(t, mem, routes.Admin(), 1))
	require.Len(t, sites, 5)
	assert.Equal(t, collector.Entry{ModelName: "wagtail.Site (localhost)", URLType: "frontend", URL: "http://localhost:8000/"}, sites[4])

	forms := collector.Collect(context.Background(), lookup(t, "form"), env(t, mem, routes.Admin(), 10))
	assert.Equal(t, []collector.Entry{
		{ModelName: "wagtailforms.FormSubmission", URLType: "forms_index", URL: base + "/admin/forms/"},
		{ModelName: "wagtailforms.FormSubmission_Page_6", URLType: "list_submissions", URL: base + "/admin/forms/submissions/6/"},
		{ModelName: "wagtailforms.FormSubmission_Page_6", URLType: "delete_submissions", URL: base + "/admin/forms/submissions/6/delete/"},
		{ModelName: "wagtailforms.FormSubmission_Page_6", URLType: "frontend_form", URL: base + "/contact/"},
	}, forms)
}

func TestCollect_SiteFrontendPorts(t *testing.T) {
	tests := []struct {
		port int
		want string
	}{
		{port: 0, want: "http://example.com/"},
		{port: 80, want: "http://example.com/"},
		{port: 443, want: "https://example.com/"},
		{port: 8080, want: "http://example.com:8080/"},
	}

	for _, tt := range tests {
		mem, _ := storage.CreateMemoryStorage()
		require.NoError(t, mem.Write(context.Background(),
			content.Instance{Model: content.SiteLabel, ID: 1, Hostname: "example.com", Port: tt.port}))

		got := collector.Collect(context.Background(), lookup(t, "site"), env(t, mem, routes.Admin(), 1))
		require.NotEmpty(t, got)
		assert.Equal(t, tt.want, got[len(got)-1].URL)
	}
}

func TestCollect_Settings(t *testing.T) {
	got := collector.Collect(context.Background(), lookup(t, "settings"), env(t, demo(t), routes.Admin(), 10))

	assert.Equal(t, []collector.Entry{{
		ModelName: "home.SocialMediaSettings_Site_localhost_Instance_1",
		URLType:   "edit",
		URL:       base + "/admin/settings/home/socialmediasettings/2/",
	}}, got)
}

func TestCollect_SettingsFallback(t *testing.T) {
	mem, _ := storage.CreateMemoryStorage()
	mem.AddModels(
		content.Model{AppLabel: "home", Name: "GlobalSettings", Kind: content.KindSettings},
		content.Model{AppLabel: "home", Name: "SocialMediaSettings", Kind: content.KindSettings, MultiSite: true},
	)
	require.NoError(t, mem.WriteAll(context.Background(), []content.Instance{
		{Model: content.SiteLabel, ID: 2, Hostname: "localhost"},
		{Model: content.SiteLabel, ID: 3, Hostname: "blog.example.com"},
	}))

	got := collector.Collect(context.Background(), lookup(t, "settings"), env(t, mem, routes.Admin(), 10))

	assert.Equal(t, []collector.Entry{
		{ModelName: "home.GlobalSettings", URLType: "edit", URL: base + "/admin/settings/home/globalsettings/"},
		{ModelName: "home.SocialMediaSettings_Site_localhost", URLType: "edit", URL: base + "/admin/settings/home/socialmediasettings/2/"},
		{ModelName: "home.SocialMediaSettings_Site_blog.example.com", URLType: "edit", URL: base + "/admin/settings/home/socialmediasettings/3/"},
	}, got)

	capped := collector.Collect(context.Background(), lookup(t, "settings"), env(t, mem, routes.Admin(), 1))
	assert.Len(t, capped, 1)
}

func TestCollect_SnippetsAndGeneric(t *testing.T) {
	reg := routes.Admin()
	reg.RegisterSnippet("blog", "BlogCategory")
	reg.RegisterModelViewSet("Person")

	mem := demo(t)

	snippets := collector.Collect(context.Background(), lookup(t, "snippet"), env(t, mem, reg, 1))
	require.Len(t, snippets, 7)
	assert.Equal(t, base+"/admin/snippets/blog/blogcategory/add/", snippets[0].URL)
	assert.Equal(t, "blog.BlogCategory_1_News", snippets[2].ModelName)

	generic := collector.Collect(context.Background(), lookup(t, "generic"), env(t, mem, reg, 1))
	require.Len(t, generic, 7)
	assert.Equal(t, collector.Entry{ModelName: "blog.Person", URLType: "list", URL: base + "/admin/person/"}, generic[1])

	e := env(t, mem, reg, 1)
	e.GenericModels = []string{"blog.Person", "not-a-label"}
	core, logs := observer.New(zapcore.WarnLevel)
	e.Logger = zap.New(core)
	assert.Len(t, collector.Collect(context.Background(), lookup(t, "generic"), e), 7)

	skipped := logs.FilterMessage("skipping generic model").All()
	require.Len(t, skipped, 1)
	assert.Equal(t, "not-a-label", skipped[0].ContextMap()["label"])
	assert.Equal(t, "generic", skipped[0].ContextMap()["report"])
}

func TestCollect_Properties(t *testing.T) {
	reg := routes.Admin()
	reg.RegisterSnippet("blog", "BlogCategory")
	reg.RegisterSnippet("home", "FooterText")

	for _, def := range collector.Definitions() {
		for _, limit := range []int{1, 2} {
			got := collector.Collect(context.Background(), def, env(t, demo(t), reg, limit))

			names := map[string]map[string]bool{}
			for _, e := range got {
				require.NotEmpty(t, e.URL, def.Slug)
				if e.URLType != "view" && e.URLType != "frontend" {
					assert.True(t, strings.HasPrefix(e.URL, base), e.URL)
				}
				if e.URLType == "edit" {
					key := strings.SplitN(e.ModelName, "_", 2)[0]
					if names[key] == nil {
						names[key] = map[string]bool{}
					}
					names[key][e.URL] = true
				}
			}
			for model, urls := range names {
				assert.LessOrEqual(t, len(urls), limit, "%s %s", def.Slug, model)
			}
		}
	}
}

func TestDefinitions(t *testing.T) {
	defs := collector.Definitions()
	require.Len(t, defs, 13)
	assert.Equal(t, "page", defs[0].Slug)
	assert.Equal(t, "generic", defs[len(defs)-1].Slug)

	for i := 1; i < len(defs); i++ {
		assert.Less(t, defs[i-1].Order, defs[i].Order)
	}

	user, ok := collector.Lookup("user")
	require.True(t, ok)
	assert.Equal(t, 5, user.DefaultMax)

	_, ok = collector.Lookup("nope")
	assert.False(t, ok)
}

func TestDisplayTitle(t *testing.T) {
	assert.Equal(t, "Search Promotion", lookup(t, "search-promotion").DisplayTitle())
	assert.Equal(t, "Page", lookup(t, "page").DisplayTitle())
	assert.Equal(t, "Generic Model", lookup(t, "generic").DisplayTitle())
}
