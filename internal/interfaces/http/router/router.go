package router

import (
	"fmt"
	"net/http"
	"path"
	"sort"

	"github.com/gin-gonic/gin"
)

// RouteRegistrar mounts its routes under a parent group
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Router mounts the API surfaces (admin, pd, intake) under one prefix
type Router struct {
	engine     *gin.Engine
	prefix     string
	middleware []gin.HandlerFunc
	registrars []RouteRegistrar
}

// RouterOption configures a Router
type RouterOption func(*Router)

// WithPrefix replaces the default /api prefix
func WithPrefix(prefix string) RouterOption {
	return func(r *Router) {
		r.prefix = prefix
	}
}

func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{engine: engine, prefix: "/api"}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Use adds middleware shared by every surface
func (r *Router) Use(middleware ...gin.HandlerFunc) *Router {
	r.middleware = append(r.middleware, middleware...)
	return r
}

func (r *Router) Register(registrar RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrar)
	return r
}

// Setup mounts every registered surface on the engine
func (r *Router) Setup() {
	api := r.engine.Group(r.prefix, r.middleware...)
	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(api)
	}
}

type route struct {
	method   string
	path     string
	handlers []gin.HandlerFunc
}

// DomainGroup collects the routes of one surface before they are mounted
type DomainGroup struct {
	name      string
	prefix    string
	guards    []gin.HandlerFunc
	routes    []route
	subgroups []*DomainGroup
}

func NewDomainGroup(name, prefix string) *DomainGroup {
	return &DomainGroup{name: name, prefix: prefix}
}

// Use adds guards that run before every route of the group and its subgroups
func (dg *DomainGroup) Use(guards ...gin.HandlerFunc) *DomainGroup {
	dg.guards = append(dg.guards, guards...)
	return dg
}

func (dg *DomainGroup) add(method, p string, handlers []gin.HandlerFunc) *DomainGroup {
	dg.routes = append(dg.routes, route{method: method, path: p, handlers: handlers})
	return dg
}

func (dg *DomainGroup) GET(p string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.add(http.MethodGet, p, handlers)
}

func (dg *DomainGroup) POST(p string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.add(http.MethodPost, p, handlers)
}

func (dg *DomainGroup) PUT(p string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.add(http.MethodPut, p, handlers)
}

func (dg *DomainGroup) PATCH(p string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.add(http.MethodPatch, p, handlers)
}

// Group opens a subgroup, typically behind a session guard. Its guards do
// not leak into the parent.
func (dg *DomainGroup) Group(name, prefix string, guards ...gin.HandlerFunc) *DomainGroup {
	sub := NewDomainGroup(name, prefix).Use(guards...)
	dg.subgroups = append(dg.subgroups, sub)
	return sub
}

func (dg *DomainGroup) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group(dg.prefix, dg.guards...)
	for _, r := range dg.routes {
		group.Handle(r.method, r.path, r.handlers...)
	}
	for _, sub := range dg.subgroups {
		sub.RegisterRoutes(group)
	}
}

func (dg *DomainGroup) Name() string { return dg.name }

func (dg *DomainGroup) Prefix() string { return dg.prefix }

// Routes lists "METHOD /path" for the group and its subgroups, relative to
// the mount point, sorted
func (dg *DomainGroup) Routes() []string {
	var out []string
	dg.collect("/", &out)
	sort.Strings(out)
	return out
}

func (dg *DomainGroup) collect(base string, out *[]string) {
	base = path.Join(base, dg.prefix)
	for _, r := range dg.routes {
		full := base
		if r.path != "" {
			full = path.Join(base, r.path)
		}
		*out = append(*out, r.method+" "+full)
	}
	for _, sub := range dg.subgroups {
		sub.collect(base, out)
	}
}

// Validate reports the first route declared twice
func (dg *DomainGroup) Validate() error {
	seen := make(map[string]bool)
	for _, r := range dg.Routes() {
		if seen[r] {
			return fmt.Errorf("route %s registered twice in %s", r, dg.name)
		}
		seen[r] = true
	}
	return nil
}
