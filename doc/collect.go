package doc

import (
	"fmt"

	pullxml "github.com/brennanwhit/xmlpull/xml"
)

// frame is one open element while collecting: its tag name and the Node
// its content accumulates into.
type frame struct {
	tag  string
	node *Node
}

// CollectTree drains r completely and rebuilds a Node document tree
// from its event stream, for callers that want a whole small document
// in memory rather than pull events. The synthetic root Node holds the
// document's single root element (plus any prolog comments or PIs), so
// paths start with the root element's name.
func CollectTree(r *pullxml.Reader) (*Node, error) {
	root := &Node{}
	stack := []frame{{node: root}}

	for {
		ev, err := r.NextEvent()
		if err != nil {
			if err == pullxml.ErrIncomplete {
				return nil, fmt.Errorf("doc: CollectTree requires a fully buffered source, got Incomplete: %w", err)
			}
			return nil, err
		}

		top := stack[len(stack)-1].node
		switch e := ev.(type) {
		case *pullxml.StartTagEvent:
			stack = append(stack, frame{tag: e.Name.Full, node: newElement(e.Attrs)})

		case *pullxml.EmptyTagEvent:
			top.addChild(e.Name.Full, newElement(e.Attrs).simplify())

		case *pullxml.TextEvent:
			if !e.WhitespaceOnly {
				top.addText(e.Text)
			}

		case *pullxml.CDataEvent:
			top.addText(e.Text)

		case *pullxml.CommentEvent:
			top.addComment(e.Text)

		case *pullxml.PIEvent:
			top.addProcInst(e.Target, e.Data)

		case *pullxml.EndTagEvent:
			closed := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			stack[len(stack)-1].node.addChild(closed.tag, closed.node.simplify())

		case pullxml.EOFEvent:
			return root, nil
		}
	}
}

// newElement starts a Node for an opened element, seeding it with the
// tag's attributes under their "@" keys.
func newElement(attrs *pullxml.Attributes) *Node {
	n := &Node{}
	for _, a := range attrs.All() {
		n.Put(attrPrefix+a.Name.Full, a.Value)
	}
	return n
}
