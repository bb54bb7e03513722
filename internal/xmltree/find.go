package xmltree

import (
	"fmt"
	"strings"
)

// NotFoundError reports a required element missing from the tree, carrying
// the dotted path that was attempted.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no element at path %q", e.Path)
}

// Find resolves a dotted path ("LiveSet.Tracks") of child tags below root
// and returns the first match. A missing step yields *NotFoundError.
func Find(root *Node, path string) (*Node, error) {
	node := resolve(root, path)
	if node == nil {
		return nil, &NotFoundError{Path: path}
	}
	return node, nil
}

// FindOptional is Find for call sites where absence is expected; it returns
// nil instead of an error.
func FindOptional(root *Node, path string) *Node {
	return resolve(root, path)
}

// FindAttr resolves path and returns the named attribute value. Missing
// element or missing attribute both yield *NotFoundError.
func FindAttr(root *Node, path, attr string) (string, error) {
	node := resolve(root, path)
	if node == nil {
		return "", &NotFoundError{Path: path}
	}
	value, ok := node.Attr(attr)
	if !ok {
		return "", &NotFoundError{Path: path + "@" + attr}
	}
	return value, nil
}

// Find is the method form of the package-level Find.
func (n *Node) Find(path string) (*Node, error) { return Find(n, path) }

// FindOptional is the method form of the package-level FindOptional.
func (n *Node) FindOptional(path string) *Node { return FindOptional(n, path) }

// FindAttr is the method form of the package-level FindAttr.
func (n *Node) FindAttr(path, attr string) (string, error) { return FindAttr(n, path, attr) }

func resolve(root *Node, path string) *Node {
	if root == nil {
		return nil
	}
	node := root
	for step := range strings.SplitSeq(path, ".") {
		node = node.Child(step)
		if node == nil {
			return nil
		}
	}
	return node
}

// Child returns the first direct child with the given tag, or nil.
func (n *Node) Child(tag string) *Node {
	for _, child := range n.Children {
		if child.Tag == tag {
			return child
		}
	}
	return nil
}

// Iter walks the subtree in document order and returns every node whose tag
// matches, including n itself.
func (n *Node) Iter(tag string) []*Node {
	var matches []*Node
	n.walk(func(node *Node) {
		if node.Tag == tag {
			matches = append(matches, node)
		}
	})
	return matches
}

// Descendant returns the first node in document order with the given tag
// strictly below n, or nil.
func (n *Node) Descendant(tag string) *Node {
	var found *Node
	for _, child := range n.Children {
		child.walk(func(node *Node) {
			if found == nil && node.Tag == tag {
				found = node
			}
		})
		if found != nil {
			break
		}
	}
	return found
}

func (n *Node) walk(fn func(*Node)) {
	fn(n)
	for _, child := range n.Children {
		child.walk(fn)
	}
}

// Attr returns the value of the named attribute.
func (n *Node) Attr(name string) (string, bool) {
	for _, attr := range n.Attrs {
		if attr.Name == name {
			return attr.Value, true
		}
	}
	return "", false
}

// AttrDefault returns the named attribute value or def when absent.
func (n *Node) AttrDefault(name, def string) string {
	if value, ok := n.Attr(name); ok {
		return value
	}
	return def
}

// SetAttr replaces the named attribute value, appending the attribute when
// it does not exist yet.
func (n *Node) SetAttr(name, value string) {
	for i := range n.Attrs {
		if n.Attrs[i].Name == name {
			n.Attrs[i].Value = value
			return
		}
	}
	n.Attrs = append(n.Attrs, Attribute{Name: name, Value: value})
}

// RemoveChildren detaches and returns all direct children.
func (n *Node) RemoveChildren() []*Node {
	removed := n.Children
	n.Children = nil
	return removed
}

// AppendChild attaches child as the last direct child.
func (n *Node) AppendChild(child *Node) {
	n.Children = append(n.Children, child)
}
