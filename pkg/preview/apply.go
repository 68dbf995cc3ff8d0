package preview

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// ErrTargetNotFound is returned when a patch addresses an id absent from the
// tree.
var ErrTargetNotFound = errors.New("preview: patch target not found")

// ApplyPatches mutates root the way the editor script mutates the browser
// DOM. Removing an element that is already gone is not an error.
func ApplyPatches(root *html.Node, patches []Patch) error {
	for _, patch := range patches {
		if err := applyPatch(root, patch); err != nil {
			return err
		}
	}
	return nil
}

func applyPatch(root *html.Node, patch Patch) error {
	target := findByID(root, patch.Target)
	if target == nil {
		if patch.Op == OpRemove {
			return nil
		}
		return fmt.Errorf("%w: %q", ErrTargetNotFound, patch.Target)
	}

	switch patch.Op {
	case OpHTML:
		nodes, err := parseInto(target, patch.HTML)
		if err != nil {
			return err
		}
		for target.FirstChild != nil {
			target.RemoveChild(target.FirstChild)
		}
		for _, node := range nodes {
			target.AppendChild(node)
		}
	case OpAppend:
		nodes, err := parseInto(target, patch.HTML)
		if err != nil {
			return err
		}
		for _, node := range nodes {
			target.AppendChild(node)
		}
	case OpReplace:
		parent := target.Parent
		if parent == nil {
			return fmt.Errorf("preview: cannot replace detached node %q", patch.Target)
		}
		nodes, err := parseInto(parent, patch.HTML)
		if err != nil {
			return err
		}
		for _, node := range nodes {
			parent.InsertBefore(node, target)
		}
		parent.RemoveChild(target)
	case OpRemove:
		if target.Parent != nil {
			target.Parent.RemoveChild(target)
		}
	case OpAttr:
		setAttribute(target, patch.Name, patch.Value)
	case OpValue:
		setValue(target, patch.Value)
	default:
		return fmt.Errorf("preview: unknown patch op %q", patch.Op)
	}
	return nil
}

func parseInto(context *html.Node, markup string) ([]*html.Node, error) {
	nodes, err := html.ParseFragment(strings.NewReader(markup), context)
	if err != nil {
		return nil, fmt.Errorf("preview: parse patch markup: %w", err)
	}
	return nodes, nil
}

func setAttribute(node *html.Node, key, value string) {
	for i := range node.Attr {
		if node.Attr[i].Key == key {
			node.Attr[i].Val = value
			return
		}
	}
	node.Attr = append(node.Attr, html.Attribute{Key: key, Val: value})
}

// setValue mirrors assigning element.value: a textarea holds its value as
// text content, an input in its value attribute.
func setValue(node *html.Node, value string) {
	if node.Data != "textarea" {
		setAttribute(node, "value", value)
		return
	}
	for node.FirstChild != nil {
		node.RemoveChild(node.FirstChild)
	}
	if value != "" {
		node.AppendChild(&html.Node{Type: html.TextNode, Data: value})
	}
}

func findByID(node *html.Node, id string) *html.Node {
	if node == nil {
		return nil
	}
	if node.Type == html.ElementNode {
		for _, attr := range node.Attr {
			if attr.Key == "id" && attr.Val == id {
				return node
			}
		}
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if found := findByID(child, id); found != nil {
			return found
		}
	}
	return nil
}
