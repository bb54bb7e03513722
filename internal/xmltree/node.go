package xmltree

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Attribute is a single name/value pair. Order matters for serialization.
type Attribute struct {
	Name  string
	Value string
}

// Node is one element in the document tree. Text is the character data
// immediately following the start tag; Tail is the character data following
// this element's end tag (it belongs to the parent's content, ElementTree
// style). Both are kept verbatim so untouched regions serialize identically.
type Node struct {
	Tag      string
	Attrs    []Attribute
	Text     string
	Tail     string
	Children []*Node

	// explicitEnd records that an empty element was written as
	// <Tag></Tag> rather than self-closed, so it round-trips unchanged.
	// Nodes built in code stay self-closing.
	explicitEnd bool
}

// Parse builds a tree from raw XML bytes. Processing instructions and
// comments are discarded; the set serializer re-emits the fixed XML
// declaration itself.
func Parse(data []byte) (*Node, error) {
	decoder := xml.NewDecoder(bytes.NewReader(data))

	var root *Node
	stack := make([]*Node, 0, 32)
	offsets := make([]int64, 0, 32)
	for {
		token, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("tokenize xml: %w", err)
		}
		switch tok := token.(type) {
		case xml.StartElement:
			node := &Node{Tag: elementName(tok.Name)}
			for _, attr := range tok.Attr {
				node.Attrs = append(node.Attrs, Attribute{Name: elementName(attr.Name), Value: attr.Value})
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, errors.New("multiple document roots")
				}
				root = node
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, node)
			}
			stack = append(stack, node)
			offsets = append(offsets, decoder.InputOffset())
		case xml.EndElement:
			if len(stack) == 0 {
				return nil, errors.New("unbalanced end element")
			}
			current := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			start := offsets[len(offsets)-1]
			offsets = offsets[:len(offsets)-1]
			// Self-closed elements get a synthesized end token at the same
			// input offset; an offset advance means a real </Tag> was read.
			if len(current.Children) == 0 && current.Text == "" && decoder.InputOffset() > start {
				current.explicitEnd = true
			}
		case xml.CharData:
			if len(stack) == 0 {
				continue
			}
			current := stack[len(stack)-1]
			if len(current.Children) == 0 {
				current.Text += string(tok)
			} else {
				last := current.Children[len(current.Children)-1]
				last.Tail += string(tok)
			}
		}
	}
	if root == nil {
		return nil, errors.New("document has no root element")
	}
	if len(stack) != 0 {
		return nil, errors.New("document ended with open elements")
	}
	return root, nil
}

func elementName(name xml.Name) string {
	if name.Space != "" {
		return name.Space + ":" + name.Local
	}
	return name.Local
}

// Encode writes the subtree rooted at n to w. The node's own Tail is not
// written; tails are emitted by the owning parent.
func (n *Node) Encode(w io.Writer) error {
	var b strings.Builder
	n.write(&b)
	_, err := io.WriteString(w, b.String())
	return err
}

// Marshal returns the serialized subtree as bytes.
func (n *Node) Marshal() []byte {
	var b strings.Builder
	n.write(&b)
	return []byte(b.String())
}

func (n *Node) write(b *strings.Builder) {
	b.WriteByte('<')
	b.WriteString(n.Tag)
	for _, attr := range n.Attrs {
		b.WriteByte(' ')
		b.WriteString(attr.Name)
		b.WriteString(`="`)
		writeEscapedAttr(b, attr.Value)
		b.WriteByte('"')
	}
	if len(n.Children) == 0 && n.Text == "" && !n.explicitEnd {
		// Live writes childless elements self-closed with a space before
		// the slash.
		b.WriteString(" />")
		return
	}
	b.WriteByte('>')
	writeEscapedText(b, n.Text)
	for _, child := range n.Children {
		child.write(b)
		writeEscapedText(b, child.Tail)
	}
	b.WriteString("</")
	b.WriteString(n.Tag)
	b.WriteByte('>')
}

func writeEscapedText(b *strings.Builder, s string) {
	for _, r := range s {
		switch r {
		case '&':
			b.WriteString("&amp;")
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		default:
			b.WriteRune(r)
		}
	}
}

func writeEscapedAttr(b *strings.Builder, s string) {
	for _, r := range s {
		switch r {
		case '&':
			b.WriteString("&amp;")
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '"':
			b.WriteString("&quot;")
		case '\n':
			b.WriteString("&#x0A;")
		case '\t':
			b.WriteString("&#x09;")
		case '\r':
			b.WriteString("&#x0D;")
		default:
			b.WriteRune(r)
		}
	}
}
