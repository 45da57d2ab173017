package doc

import (
	encxml "encoding/xml"
	"strings"
	"testing"

	pullxml "github.com/brennanwhit/xmlpull/xml"
)

func collect(t *testing.T, input string) *Node {
	t.Helper()
	tree, err := CollectTree(pullxml.NewReaderString(input))
	if err != nil {
		t.Fatalf("CollectTree(%q): %v", input, err)
	}
	return tree
}

func TestCollectTreeBasic(t *testing.T) {
	tree := collect(t, `<library><book id="1">El Principito</book></library>`)

	if got := tree.GetPath("library/book/#text"); got != "El Principito" {
		t.Errorf("title: %v", got)
	}
	if got := tree.GetPath("library/book/@id"); got != "1" {
		t.Errorf("id: %v", got)
	}
	book := tree.GetNode("library/book")
	if book == nil {
		t.Fatal("book node missing")
	}
	if book.Text() != "El Principito" {
		t.Errorf("Text(): %q", book.Text())
	}
	if id, ok := book.Attr("id"); !ok || id != "1" {
		t.Errorf("Attr(id): %q/%v", id, ok)
	}
}

func TestCollectTreeTextOnlyNodeSimplified(t *testing.T) {
	tree := collect(t, `<r><name>Ana</name></r>`)
	// A node holding nothing but character data collapses to a bare
	// string.
	if got := tree.GetPath("r/name"); got != "Ana" {
		t.Errorf("got %v (%T), want the bare string", got, got)
	}
}

func TestCollectTreeRepeatedChildrenBecomeList(t *testing.T) {
	tree := collect(t, `<r><item>a</item><item>b</item><item>c</item></r>`)
	list, ok := tree.GetPath("r/item").([]any)
	if !ok {
		t.Fatalf("got %T, want []any", tree.GetPath("r/item"))
	}
	if len(list) != 3 || list[0] != "a" || list[2] != "c" {
		t.Errorf("got %v", list)
	}
}

func TestCollectTreeCDataMergesWithText(t *testing.T) {
	tree := collect(t, `<r><v>a<![CDATA[<b>]]>c</v></r>`)
	if got := tree.GetPath("r/v"); got != "a<b>c" {
		t.Errorf("got %v", got)
	}
}

func TestCollectTreeEmptyElement(t *testing.T) {
	tree := collect(t, `<r><flag set="yes"/></r>`)
	if got := tree.GetPath("r/flag/@set"); got != "yes" {
		t.Errorf("got %v", got)
	}
}

func TestCollectTreeCommentsAndPIs(t *testing.T) {
	tree := collect(t, `<r><!-- note --><?tgt data?><v>1</v></r>`)
	root := tree.GetNode("r")
	if root == nil {
		t.Fatal("root node missing")
	}
	comments, ok := root.Get("#comments").([]string)
	if !ok || len(comments) != 1 || comments[0] != " note " {
		t.Errorf("comments: %v", root.Get("#comments"))
	}
	pis, ok := root.Get("#pi").([]ProcInst)
	if !ok || len(pis) != 1 || pis[0].Target != "tgt" || pis[0].Data != "data" {
		t.Errorf("pis: %v", root.Get("#pi"))
	}
}

func TestCollectTreeEntities(t *testing.T) {
	tree := collect(t, `<!DOCTYPE r [<!ENTITY who "world">]><r><msg>hello &who;</msg></r>`)
	if got := tree.GetPath("r/msg"); got != "hello world" {
		t.Errorf("got %v", got)
	}
}

func TestCollectTreePropagatesErrors(t *testing.T) {
	if _, err := CollectTree(pullxml.NewReaderString(`<a></b>`)); err == nil {
		t.Fatal("expected the parse error to surface")
	}
}

func TestNodeKeyOrder(t *testing.T) {
	var n Node
	n.Put("z", 1)
	n.Put("a", 2)
	n.Put("m", 3)
	n.Put("z", 4) // update must not reorder

	want := []string{"z", "a", "m"}
	got := n.Keys()
	if len(got) != len(want) {
		t.Fatalf("keys: %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("key %d: got %q, want %q", i, got[i], want[i])
		}
	}
	if n.Get("z") != 4 {
		t.Errorf("updated value lost: %v", n.Get("z"))
	}
}

func TestNodeRemove(t *testing.T) {
	var n Node
	n.Put("a", 1)
	n.Put("b", 2)
	n.Put("c", 3)
	n.Remove("b")

	if n.Has("b") {
		t.Error("Remove left the key behind")
	}
	if n.Len() != 2 || n.Get("c") != 3 {
		t.Errorf("later entries lost: keys=%v", n.Keys())
	}
	n.Remove("missing") // no-op
	if n.Len() != 2 {
		t.Errorf("removing a missing key changed the node: %v", n.Keys())
	}
}

func TestNodeForEach(t *testing.T) {
	var n Node
	n.Put("a", 1)
	n.Put("b", 2)
	n.Put("c", 3)

	var seen []string
	n.ForEach(func(key string, value any) bool {
		seen = append(seen, key)
		return key != "b" // stop after b
	})
	if len(seen) != 2 || seen[0] != "a" || seen[1] != "b" {
		t.Errorf("got %v", seen)
	}
}

func TestNodeJSONPreservesOrder(t *testing.T) {
	tree := collect(t, `<r><z>1</z><a>2</a></r>`)
	js, err := tree.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	s := string(js)
	if zi, ai := strings.Index(s, `"z"`), strings.Index(s, `"a"`); zi < 0 || ai < 0 || zi > ai {
		t.Errorf("document order lost in %s", s)
	}
}

func TestNodeDump(t *testing.T) {
	tree := collect(t, `<r><v>1</v></r>`)
	dump := tree.Dump()
	if !strings.Contains(dump, "\n") || !strings.Contains(dump, `"v"`) {
		t.Errorf("Dump should be indented JSON, got %s", dump)
	}
}

func TestNodeMarshalXML(t *testing.T) {
	tree := collect(t, `<r><!-- hi --><name>Ana</name><tag v="1"/><item>a</item><item>b</item></r>`)
	root := tree.GetNode("r")
	if root == nil {
		t.Fatal("root node missing")
	}
	out, err := encxml.Marshal(root)
	if err != nil {
		t.Fatal(err)
	}
	s := string(out)
	for _, want := range []string{"<!-- hi -->", "<name>Ana</name>", `v="1"`, "<item>a</item><item>b</item>"} {
		if !strings.Contains(s, want) {
			t.Errorf("marshaled output missing %q: %s", want, s)
		}
	}
}
