package xml

import (
	"fmt"
	"strings"
	"testing"

	"github.com/beevik/etree"
	"github.com/google/go-cmp/cmp"
)

// xmlNode is the comparison shape shared by both sides of the oracle
// tests: what this package's event stream reconstructs must match what
// etree (sitting on encoding/xml) decodes from the same bytes.
type xmlNode struct {
	Tag      string
	Attrs    map[string]string
	Text     string
	Children []*xmlNode
}

// collectNodes rebuilds an element tree from the event stream.
func collectNodes(t *testing.T, input string) *xmlNode {
	t.Helper()
	r := NewReaderString(input)
	root := &xmlNode{}
	stack := []*xmlNode{root}

	addChild := func(name Name, attrs *Attributes) *xmlNode {
		n := &xmlNode{Tag: name.Full, Attrs: map[string]string{}}
		for _, a := range attrs.All() {
			n.Attrs[a.Name.Full] = a.Value
		}
		parent := stack[len(stack)-1]
		parent.Children = append(parent.Children, n)
		return n
	}

	for {
		ev, err := r.NextEvent()
		if err != nil {
			t.Fatalf("parse %q: %v", input, err)
		}
		switch e := ev.(type) {
		case *StartTagEvent:
			stack = append(stack, addChild(e.Name, e.Attrs))
		case *EmptyTagEvent:
			addChild(e.Name, e.Attrs)
		case *EndTagEvent:
			stack = stack[:len(stack)-1]
		case *TextEvent:
			stack[len(stack)-1].Text += e.Text
		case *CDataEvent:
			stack[len(stack)-1].Text += e.Text
		case EOFEvent:
			if len(root.Children) != 1 {
				t.Fatalf("expected exactly one root element, got %d", len(root.Children))
			}
			return root.Children[0]
		}
	}
}

// etreeNodes converts an etree element into the same comparison shape.
func etreeNodes(el *etree.Element) *xmlNode {
	n := &xmlNode{Tag: el.FullTag(), Attrs: map[string]string{}}
	for _, a := range el.Attr {
		n.Attrs[a.FullKey()] = a.Value
	}
	for _, child := range el.Child {
		switch c := child.(type) {
		case *etree.Element:
			n.Children = append(n.Children, etreeNodes(c))
		case *etree.CharData:
			n.Text += c.Data
		}
	}
	return n
}

func TestTreeMatchesEtreeOracle(t *testing.T) {
	fixtures := []string{
		`<r/>`,
		`<library open="yes"><book id="1">El Principito</book><book id="2">A&amp;B<note lang="es">&#x21;ok</note></book><empty/></library>`,
		`<p>&lt;&#65;&#x42;</p>`,
		`<a b="x &amp; y"><c/><c/>tail</a>`,
		`<q:root xmlns:q="urn:q" q:id="7"><q:leaf>v</q:leaf></q:root>`,
	}

	for _, fixture := range fixtures {
		t.Run(fixture, func(t *testing.T) {
			ours := collectNodes(t, fixture)

			doc := etree.NewDocument()
			if err := doc.ReadFromString(fixture); err != nil {
				t.Fatalf("etree rejects fixture: %v", err)
			}
			theirs := etreeNodes(doc.Root())

			if diff := cmp.Diff(theirs, ours); diff != "" {
				t.Errorf("tree mismatch vs etree (-etree +ours):\n%s", diff)
			}
		})
	}
}

// serialize renders a collected tree back to XML with minimal escaping,
// for the restricted round-trip property (no DTD, no CDATA).
func serialize(b *strings.Builder, n *xmlNode, attrOrder []Attr) {
	b.WriteByte('<')
	b.WriteString(n.Tag)
	for _, a := range attrOrder {
		fmt.Fprintf(b, " %s=\"%s\"", a.Name.Full, escapeAttrValue(a.Value))
	}
	if n.Text == "" && len(n.Children) == 0 {
		b.WriteString("/>")
		return
	}
	b.WriteByte('>')
	b.WriteString(escapeTextValue(n.Text))
	for _, c := range n.Children {
		serialize(b, c, orderedAttrs(c))
	}
	fmt.Fprintf(b, "</%s>", n.Tag)
}

func orderedAttrs(n *xmlNode) []Attr {
	out := make([]Attr, 0, len(n.Attrs))
	for k, v := range n.Attrs {
		out = append(out, Attr{Name: NewName(k), Value: v})
	}
	return out
}

func escapeAttrValue(s string) string {
	return strings.NewReplacer("&", "&amp;", "<", "&lt;", `"`, "&quot;").Replace(s)
}

func escapeTextValue(s string) string {
	return strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;").Replace(s)
}

func TestRoundTripRestricted(t *testing.T) {
	// Fixtures without DTD or CDATA. Each element's text is compared as
	// one concatenated string, so serializing it ahead of the child
	// elements still re-parses to a logically equivalent tree.
	fixtures := []string{
		`<r/>`,
		`<a><b>hi</b><b>there</b></a>`,
		`<p>&lt;&#65;&#x42;</p>`,
		`<a x="1" y="2 &amp; 3"><c/>tail</a>`,
	}
	for _, fixture := range fixtures {
		t.Run(fixture, func(t *testing.T) {
			first := collectNodes(t, fixture)

			var b strings.Builder
			serialize(&b, first, orderedAttrs(first))
			second := collectNodes(t, b.String())

			if diff := cmp.Diff(first, second); diff != "" {
				t.Errorf("round trip diverged (-first +second):\n%s", diff)
			}
		})
	}
}
