package gee

import (
	"sort"
	"strings"
)

type HandlerFunc func(*Context)

// roots 按 method 分树：roots["GET"], roots["POST"]
// handlers 以 "METHOD-pattern" 为 key：handlers["POST-/api/social"]
type router struct {
	roots    map[string]*node
	handlers map[string][]HandlerFunc
}

func newRouter() *router {
	return &router{
		handlers: make(map[string][]HandlerFunc),
		roots:    make(map[string]*node),
	}
}

// parsePattern 切分路径，遇到 * 通配段后停止
func parsePattern(pattern string) []string {
	vs := strings.Split(pattern, "/")

	parts := make([]string, 0, len(vs))
	for _, item := range vs {
		if item == "" {
			continue
		}
		parts = append(parts, item)
		if item[0] == '*' {
			break
		}
	}
	return parts
}

func (r *router) addRoute(method string, pattern string, handlers ...HandlerFunc) {
	if len(handlers) == 0 {
		panic("gee: addRoute requires at least one handler")
	}
	parts := parsePattern(pattern)

	root, ok := r.roots[method]
	if !ok {
		root = &node{}
		r.roots[method] = root
	}
	root.insert(pattern, parts, 0)
	r.handlers[method+"-"+pattern] = append([]HandlerFunc(nil), handlers...)
}

func (r *router) getRoute(method string, path string) (*node, map[string]string) {
	root, ok := r.roots[method]
	if !ok {
		return nil, nil
	}

	searchParts := parsePattern(path)
	n := root.search(searchParts, 0)
	if n == nil {
		return nil, nil
	}

	params := make(map[string]string)
	for index, part := range parsePattern(n.pattern) {
		if part[0] == ':' {
			params[part[1:]] = searchParts[index]
		}
		if part[0] == '*' && len(part) > 1 {
			params[part[1:]] = strings.Join(searchParts[index:], "/")
			break
		}
	}
	return n, params
}

// handle 把路由命中的处理链追加在全局中间件之后。
// 未命中时区分 404 与 405：同一路径在其他 method 下存在即为 405。
func (r *router) handle(c *Context, e *Engine) {
	n, params := r.getRoute(c.Method, c.Path)
	if n != nil {
		c.Params = params
		c.RoutePattern = n.pattern
		c.handlers = append(c.handlers, r.handlers[c.Method+"-"+n.pattern]...)
	} else if allow := r.AllowedMethod(c.Path); len(allow) == 0 {
		c.handlers = append(c.handlers, e.noRoute...)
	} else {
		c.SetHeader("Allow", strings.Join(allow, ","))
		c.handlers = append(c.handlers, e.noMethod...)
	}
	c.Next()
}

func (r *router) AllowedMethod(path string) (allow []string) {
	for method := range r.roots {
		if n, _ := r.getRoute(method, path); n != nil {
			allow = append(allow, method)
		}
	}
	sort.Strings(allow)
	return allow
}
