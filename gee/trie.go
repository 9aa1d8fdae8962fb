package gee

import "strings"

// node 是前缀树的一层。
// pattern 只在叶子（完整路由终点）上非空。
type node struct {
	pattern  string
	part     string
	children []*node
	isWild   bool // part 以 : 或 * 开头
}

// matchChild 插入用：精确匹配的第一个子节点
func (n *node) matchChild(part string) *node {
	for _, child := range n.children {
		if child.part == part {
			return child
		}
	}
	return nil
}

// matchChildren 查找用：静态子节点排在通配子节点之前，保证 /healthz 优先于 /:code
func (n *node) matchChildren(part string) []*node {
	nodes := make([]*node, 0, len(n.children))
	for _, child := range n.children {
		if child.part == part {
			nodes = append(nodes, child)
		}
	}
	for _, child := range n.children {
		if child.isWild {
			nodes = append(nodes, child)
		}
	}
	return nodes
}

func (n *node) insert(pattern string, parts []string, height int) {
	if len(parts) == height {
		n.pattern = pattern
		return
	}
	part := parts[height]
	child := n.matchChild(part)
	if child == nil {
		child = &node{
			part:   part,
			isWild: part[0] == ':' || part[0] == '*',
		}
		n.children = append(n.children, child)
	}
	child.insert(pattern, parts, height+1)
}

func (n *node) search(parts []string, height int) *node {
	if len(parts) == height || strings.HasPrefix(n.part, "*") {
		if n.pattern == "" {
			return nil
		}
		return n
	}

	for _, child := range n.matchChildren(parts[height]) {
		if result := child.search(parts, height+1); result != nil {
			return result
		}
	}
	return nil
}
