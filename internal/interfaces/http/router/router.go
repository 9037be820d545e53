package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// apiVersion prefixes every resource group
const apiVersion = "v1"

// Group is the route table of one API resource. Routes are collected first
// and mounted together so a group can be assembled conditionally.
type Group struct {
	prefix     string
	middleware []gin.HandlerFunc
	routes     []route
}

type route struct {
	method   string
	path     string
	handlers []gin.HandlerFunc
}

// NewGroup starts a resource group under prefix
func NewGroup(prefix string, middleware ...gin.HandlerFunc) *Group {
	return &Group{prefix: prefix, middleware: middleware}
}

func (g *Group) GET(path string, handlers ...gin.HandlerFunc) *Group {
	return g.add(http.MethodGet, path, handlers)
}

func (g *Group) POST(path string, handlers ...gin.HandlerFunc) *Group {
	return g.add(http.MethodPost, path, handlers)
}

func (g *Group) add(method, path string, handlers []gin.HandlerFunc) *Group {
	g.routes = append(g.routes, route{method: method, path: path, handlers: handlers})
	return g
}

// Prefix is the group's path below the API root
func (g *Group) Prefix() string {
	return g.prefix
}

func (g *Group) mount(api *gin.RouterGroup) {
	rg := api.Group(g.prefix, g.middleware...)
	for _, r := range g.routes {
		rg.Handle(r.method, r.path, r.handlers...)
	}
}

// mountAPI mounts groups under /api/<version>. Nil groups are skipped.
func mountAPI(engine *gin.Engine, groups ...*Group) {
	api := engine.Group("/api/" + apiVersion)
	for _, g := range groups {
		if g != nil {
			g.mount(api)
		}
	}
}
