package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(engine *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	engine.ServeHTTP(w, req)
	return w
}

func echo(body string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.String(http.StatusOK, body)
	}
}

func TestNewRouter_Defaults(t *testing.T) {
	r := NewRouter(gin.New())

	assert.Equal(t, "v1", r.apiVersion)
	assert.Empty(t, r.registrars)
}

func TestRouterSetup_MountsUnderVersion(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine, WithAPIVersion("v2"))

	group := NewDomainGroup("accounts", "/accounts")
	group.GET("", echo("accounts"))
	r.Register(group).Setup()

	w := serve(engine, http.MethodGet, "/api/v2/accounts")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "accounts", w.Body.String())

	w = serve(engine, http.MethodGet, "/api/v1/accounts")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouterUse_AppliesToAllGroups(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)
	r.Use(func(c *gin.Context) {
		c.Header("X-Api-Middleware", "on")
		c.Next()
	})

	accounts := NewDomainGroup("accounts", "/accounts")
	accounts.GET("", echo("accounts"))
	settings := NewDomainGroup("settings", "/settings")
	settings.GET("", echo("settings"))
	r.Register(accounts).Register(settings).Setup()

	for _, path := range []string{"/api/v1/accounts", "/api/v1/settings"} {
		w := serve(engine, http.MethodGet, path)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "on", w.Header().Get("X-Api-Middleware"))
	}
}

func TestDomainGroup_Accessors(t *testing.T) {
	g := NewDomainGroup("contacts", "/contacts")

	assert.Equal(t, "contacts", g.Name())
	assert.Equal(t, "/contacts", g.Prefix())
}

func TestDomainGroup_RegistersAllVerbs(t *testing.T) {
	engine := gin.New()
	g := NewDomainGroup("contacts", "/contacts")
	g.GET("", echo("list")).
		POST("", echo("create")).
		PUT("/:id", echo("replace")).
		PATCH("/:id", echo("update")).
		DELETE("/:id", echo("delete"))

	g.RegisterRoutes(engine.Group("/api/v1"))

	tests := []struct {
		method string
		path   string
		want   string
	}{
		{http.MethodGet, "/api/v1/contacts", "list"},
		{http.MethodPost, "/api/v1/contacts", "create"},
		{http.MethodPut, "/api/v1/contacts/42", "replace"},
		{http.MethodPatch, "/api/v1/contacts/42", "update"},
		{http.MethodDelete, "/api/v1/contacts/42", "delete"},
	}
	for _, tt := range tests {
		w := serve(engine, tt.method, tt.path)
		assert.Equal(t, http.StatusOK, w.Code, "%s %s", tt.method, tt.path)
		assert.Equal(t, tt.want, w.Body.String())
	}
}

func TestDomainGroup_Middleware(t *testing.T) {
	engine := gin.New()
	g := NewDomainGroup("attachments", "/attachments")
	g.Use(func(c *gin.Context) {
		c.Header("X-Group-Middleware", "on")
		c.Next()
	})
	g.GET("", echo("ok"))

	g.RegisterRoutes(engine.Group("/api/v1"))

	w := serve(engine, http.MethodGet, "/api/v1/attachments")
	assert.Equal(t, "on", w.Header().Get("X-Group-Middleware"))
}

func TestDomainGroup_Subgroups(t *testing.T) {
	engine := gin.New()
	g := NewDomainGroup("accounts", "/accounts")
	g.Use(func(c *gin.Context) {
		c.Header("X-Parent-Middleware", "on")
		c.Next()
	})

	contacts := g.Group("contacts", "/:id/contacts")
	contacts.GET("", echo("account contacts"))

	g.RegisterRoutes(engine.Group("/api/v1"))

	w := serve(engine, http.MethodGet, "/api/v1/accounts/42/contacts")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "account contacts", w.Body.String())
	assert.Equal(t, "on", w.Header().Get("X-Parent-Middleware"), "parent middleware must cover subgroups")
}

func TestMultipleDomainGroups(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	accounts := NewDomainGroup("accounts", "/accounts")
	accounts.GET("", echo("accounts"))
	imports := NewDomainGroup("import", "/import")
	imports.POST("/accounts", echo("imported"))

	r.Register(accounts).Register(imports).Setup()

	w := serve(engine, http.MethodGet, "/api/v1/accounts")
	assert.Equal(t, "accounts", w.Body.String())

	w = serve(engine, http.MethodPost, "/api/v1/import/accounts")
	assert.Equal(t, "imported", w.Body.String())
}
