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
	engine.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())
	assert.Equal(t, "v1", r.apiVersion)
	assert.Empty(t, r.registrars)

	r = NewRouter(gin.New(), WithAPIVersion("v2"))
	assert.Equal(t, "v2", r.apiVersion)
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	finance := NewDomainGroup("finance", "/finance")
	finance.GET("/payments", func(c *gin.Context) { c.String(http.StatusOK, "list") }).
		POST("/payments", func(c *gin.Context) { c.String(http.StatusCreated, "created") })
	system := NewDomainGroup("system", "/system")
	system.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	r.Use(func(c *gin.Context) {
		c.Header("X-Api", "v1")
		c.Next()
	})
	assert.Equal(t, "/api/v1", r.Register(finance).Register(system).Setup())

	w := serve(engine, http.MethodGet, "/api/v1/finance/payments")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "list", w.Body.String())
	assert.Equal(t, "v1", w.Header().Get("X-Api"))

	assert.Equal(t, http.StatusCreated, serve(engine, http.MethodPost, "/api/v1/finance/payments").Code)
	assert.Equal(t, "pong", serve(engine, http.MethodGet, "/api/v1/system/ping").Body.String())
	assert.Equal(t, http.StatusNotFound, serve(engine, http.MethodGet, "/finance/payments").Code)
}

func TestDomainGroup(t *testing.T) {
	t.Run("name and prefix", func(t *testing.T) {
		g := NewDomainGroup("finance", "/finance")
		assert.Equal(t, "finance", g.Name())
		assert.Equal(t, "/finance", g.Prefix())
	})

	t.Run("middleware scoped to group", func(t *testing.T) {
		engine := gin.New()
		api := engine.Group("/api/v1")

		secured := NewDomainGroup("finance", "/finance")
		secured.Use(func(c *gin.Context) {
			c.AbortWithStatus(http.StatusUnauthorized)
		})
		secured.GET("/payments", func(c *gin.Context) { c.Status(http.StatusOK) })
		secured.RegisterRoutes(api)

		open := NewDomainGroup("system", "/system")
		open.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })
		open.RegisterRoutes(api)

		assert.Equal(t, http.StatusUnauthorized, serve(engine, http.MethodGet, "/api/v1/finance/payments").Code)
		assert.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/api/v1/system/ping").Code)
	})

	t.Run("subgroups", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("finance", "/finance")
		customers := g.Group("customers", "/customers")
		customers.GET("/:id/outstanding", func(c *gin.Context) {
			c.String(http.StatusOK, c.Param("id"))
		})
		g.RegisterRoutes(engine.Group("/api/v1"))

		w := serve(engine, http.MethodGet, "/api/v1/finance/customers/42/outstanding")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "42", w.Body.String())
	})

	t.Run("routes listing", func(t *testing.T) {
		g := NewDomainGroup("finance", "/finance")
		noop := func(c *gin.Context) {}
		g.POST("/payments", noop).GET("/payments/:id", noop)
		g.Group("customers", "/customers").GET("/:id/outstanding", noop)

		assert.Equal(t, []string{
			"POST /finance/payments",
			"GET /finance/payments/:id",
			"GET /finance/customers/:id/outstanding",
		}, g.Routes())
	})

	t.Run("arbitrary method", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("finance", "/finance")
		g.Handle(http.MethodDelete, "/payments/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })
		g.RegisterRoutes(engine.Group("/api/v1"))

		assert.Equal(t, http.StatusNoContent, serve(engine, http.MethodDelete, "/api/v1/finance/payments/1").Code)
	})
}
