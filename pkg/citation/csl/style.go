package csl

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"strings"
)

// Node is one element of a CSL style document.
type Node struct {
	Name     string
	Attrs    map[string]string
	Children []Node
}

// Attr returns an attribute value or "".
func (n *Node) Attr(name string) string {
	if n == nil {
		return ""
	}
	return n.Attrs[name]
}

// Child returns the first child element with the given name.
func (n *Node) Child(name string) *Node {
	if n == nil {
		return nil
	}
	for i := range n.Children {
		if n.Children[i].Name == name {
			return &n.Children[i]
		}
	}
	return nil
}

func (n *Node) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	n.Name = start.Name.Local
	n.Attrs = make(map[string]string, len(start.Attr))
	for _, a := range start.Attr {
		n.Attrs[a.Name.Local] = a.Value
	}
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			var child Node
			if err := child.UnmarshalXML(d, t); err != nil {
				return err
			}
			n.Children = append(n.Children, child)
		case xml.CharData:
			// Only <title> and <id> carry text we care about.
			if text := strings.TrimSpace(string(t)); text != "" {
				n.Attrs["#text"] = n.Attrs["#text"] + text
			}
		case xml.EndElement:
			return nil
		}
	}
}

// SortKey is one <key> of a bibliography <sort>.
type SortKey struct {
	Variable   string
	Macro      string
	Descending bool
}

// Style is a parsed CSL style with the parts the renderer evaluates.
type Style struct {
	ID     string
	Title  string
	Class  string
	Macros map[string]*Node

	// NameOptions holds inheritable name attributes from <style> and <bibliography>.
	NameOptions map[string]string

	Bibliography *Node
	Layout       *Node
	Sort         []SortKey
}

var inheritableNameAttrs = []string{
	"and", "delimiter-precedes-last", "delimiter-precedes-et-al", "et-al-min", "et-al-use-first",
	"initialize", "initialize-with", "name-as-sort-order", "sort-separator", "name-form",
	"name-delimiter", "names-delimiter",
}

// ParseStyle parses a CSL XML document. A usable style needs a bibliography layout.
func ParseStyle(data []byte) (*Style, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("style document is empty")
	}

	var root Node
	if err := xml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parse CSL XML: %w", err)
	}
	if root.Name != "style" {
		return nil, fmt.Errorf("root element is <%s>, want <style>", root.Name)
	}

	s := &Style{
		Class:       root.Attr("class"),
		Macros:      make(map[string]*Node),
		NameOptions: make(map[string]string),
	}
	if info := root.Child("info"); info != nil {
		s.Title = info.Child("title").Attr("#text")
		s.ID = info.Child("id").Attr("#text")
	}

	for i := range root.Children {
		child := &root.Children[i]
		if child.Name != "macro" {
			continue
		}
		name := child.Attr("name")
		if name == "" {
			return nil, errors.New("macro without a name")
		}
		s.Macros[name] = child
	}

	s.Bibliography = root.Child("bibliography")
	if s.Bibliography == nil {
		return nil, errors.New("style has no <bibliography>")
	}
	s.Layout = s.Bibliography.Child("layout")
	if s.Layout == nil {
		return nil, errors.New("bibliography has no <layout>")
	}

	for _, src := range []*Node{&root, s.Bibliography} {
		for _, a := range inheritableNameAttrs {
			if v, ok := src.Attrs[a]; ok {
				s.NameOptions[a] = v
			}
		}
	}

	if sortNode := s.Bibliography.Child("sort"); sortNode != nil {
		for _, k := range sortNode.Children {
			if k.Name != "key" {
				continue
			}
			if m := k.Attr("macro"); m != "" && s.Macros[m] == nil {
				return nil, fmt.Errorf("sort key uses undefined macro %q", m)
			}
			s.Sort = append(s.Sort, SortKey{
				Variable:   k.Attr("variable"),
				Macro:      k.Attr("macro"),
				Descending: k.Attr("sort") == "descending",
			})
		}
	}

	if err := s.checkMacros(s.Layout, map[string]bool{}); err != nil {
		return nil, err
	}
	return s, nil
}

// checkMacros rejects references to undefined macros and macro cycles.
func (s *Style) checkMacros(n *Node, active map[string]bool) error {
	if name := n.Attr("macro"); name != "" {
		m, ok := s.Macros[name]
		if !ok {
			return fmt.Errorf("undefined macro %q", name)
		}
		if active[name] {
			return fmt.Errorf("macro %q calls itself", name)
		}
		active[name] = true
		if err := s.checkMacros(m, active); err != nil {
			return err
		}
		delete(active, name)
	}
	for i := range n.Children {
		if err := s.checkMacros(&n.Children[i], active); err != nil {
			return err
		}
	}
	return nil
}
