// Package doc provides an optional, order-preserving document tree on
// top of the xml package's event stream, for callers that want a
// tree rather than pull events.
package doc

import (
	"encoding/json"
	encxml "encoding/xml"
	"fmt"
	"strings"
)

// Key conventions inside a Node: attributes are stored under "@name",
// accumulated character data under "#text", and collected comments and
// processing instructions under their own reserved keys. Everything
// else is a child element.
const (
	attrPrefix = "@"
	textKey    = "#text"
	commentKey = "#comments"
	piKey      = "#pi"
)

// ProcInst records a processing instruction encountered while
// collecting a document.
type ProcInst struct {
	Target string
	Data   string
}

// entry is one key/value pair of a Node, in document order.
type entry struct {
	key   string
	value any
}

// Node is one element of a collected document: an ordered sequence of
// entries (attributes, text, children) with O(1) lookup by key.
// Child values are either a bare string (a text-only element), a *Node,
// or a []any grouping repeated same-named siblings in document order.
// The zero value is an empty element ready for use.
type Node struct {
	entries []entry
	index   map[string]int
}

// Put inserts or replaces a value under key. A new key is appended,
// preserving document order; an existing key keeps its position.
func (n *Node) Put(key string, value any) {
	if i, ok := n.index[key]; ok {
		n.entries[i].value = value
		return
	}
	if n.index == nil {
		n.index = make(map[string]int)
	}
	n.index[key] = len(n.entries)
	n.entries = append(n.entries, entry{key: key, value: value})
}

// Get retrieves the value under key at this level, or nil.
func (n *Node) Get(key string) any {
	if i, ok := n.index[key]; ok {
		return n.entries[i].value
	}
	return nil
}

// Has reports whether key exists at this level.
func (n *Node) Has(key string) bool {
	_, ok := n.index[key]
	return ok
}

// Remove deletes a key, shifting later entries up one position.
func (n *Node) Remove(key string) {
	i, ok := n.index[key]
	if !ok {
		return
	}
	n.entries = append(n.entries[:i], n.entries[i+1:]...)
	delete(n.index, key)
	for j := i; j < len(n.entries); j++ {
		n.index[n.entries[j].key] = j
	}
}

// Len returns the number of entries at this level.
func (n *Node) Len() int { return len(n.entries) }

// Keys returns the keys in document order.
func (n *Node) Keys() []string {
	out := make([]string, len(n.entries))
	for i, e := range n.entries {
		out[i] = e.key
	}
	return out
}

// ForEach iterates entries in document order, stopping early if fn
// returns false.
func (n *Node) ForEach(fn func(key string, value any) bool) {
	for _, e := range n.entries {
		if !fn(e.key, e.value) {
			return
		}
	}
}

// Text returns the element's accumulated character data.
func (n *Node) Text() string {
	s, _ := n.Get(textKey).(string)
	return s
}

// Attr returns the value of the named attribute and whether it is set.
func (n *Node) Attr(name string) (string, bool) {
	v, ok := n.Get(attrPrefix + name).(string)
	return v, ok
}

// GetPath navigates a "/"-separated path of child names ("@name" and
// "#text" segments address attributes and character data). It returns
// nil when any segment is missing or lands on a non-element value.
func (n *Node) GetPath(path string) any {
	var cur any = n
	for _, part := range strings.Split(path, "/") {
		node, ok := cur.(*Node)
		if !ok {
			return nil
		}
		cur = node.Get(part)
	}
	return cur
}

// GetNode returns the *Node at path, or nil if the path is missing or
// holds a simplified (non-element) value.
func (n *Node) GetNode(path string) *Node {
	node, _ := n.GetPath(path).(*Node)
	return node
}

// addText appends character data to the element.
func (n *Node) addText(s string) {
	if cur, ok := n.Get(textKey).(string); ok {
		n.Put(textKey, cur+s)
		return
	}
	n.Put(textKey, s)
}

// addComment records a comment body in document order.
func (n *Node) addComment(body string) {
	list, _ := n.Get(commentKey).([]string)
	n.Put(commentKey, append(list, body))
}

// addProcInst records a processing instruction in document order.
func (n *Node) addProcInst(target, data string) {
	list, _ := n.Get(piKey).([]ProcInst)
	n.Put(piKey, append(list, ProcInst{Target: target, Data: data}))
}

// addChild attaches a completed child element. The first child under a
// name is stored directly; repeated same-named siblings are grouped
// into a []any, keeping document order.
func (n *Node) addChild(name string, value any) {
	switch prev := n.Get(name).(type) {
	case nil:
		n.Put(name, value)
	case []any:
		n.Put(name, append(prev, value))
	default:
		n.Put(name, []any{prev, value})
	}
}

// simplify collapses an element holding nothing but character data to
// its bare string, so leaf values read naturally from GetPath.
func (n *Node) simplify() any {
	if len(n.entries) == 1 && n.entries[0].key == textKey {
		return n.entries[0].value
	}
	return n
}

// MarshalJSON renders the node as a JSON object with keys in document
// order, unlike encoding/json's sorted treatment of map[string]any.
func (n *Node) MarshalJSON() ([]byte, error) {
	out := append([]byte(nil), '{')
	for i, e := range n.entries {
		if i > 0 {
			out = append(out, ',')
		}
		key, err := json.Marshal(e.key)
		if err != nil {
			return nil, err
		}
		out = append(out, key...)
		out = append(out, ':')
		val, err := json.Marshal(e.value)
		if err != nil {
			return nil, err
		}
		out = append(out, val...)
	}
	return append(out, '}'), nil
}

// Dump renders the node as indented JSON, for logging.
func (n *Node) Dump() string {
	b, err := json.MarshalIndent(n, "", "  ")
	if err != nil {
		return fmt.Sprintf("<dump error: %v>", err)
	}
	return string(b)
}

// MarshalXML implements encoding/xml.Marshaler, so a collected tree can
// be re-serialized with the standard encoder: "@" entries become
// attributes, "#text" becomes character data, collected comments and
// processing instructions are re-emitted as comment and PI tokens, and
// everything else becomes child elements (repeated siblings share the
// element name).
func (n *Node) MarshalXML(e *encxml.Encoder, start encxml.StartElement) error {
	elem := start.Copy()
	for _, en := range n.entries {
		if strings.HasPrefix(en.key, attrPrefix) {
			elem.Attr = append(elem.Attr, encxml.Attr{
				Name:  encxml.Name{Local: en.key[len(attrPrefix):]},
				Value: fmt.Sprint(en.value),
			})
		}
	}
	if err := e.EncodeToken(elem); err != nil {
		return err
	}
	for _, en := range n.entries {
		if err := encodeEntry(e, en); err != nil {
			return err
		}
	}
	return e.EncodeToken(elem.End())
}

func encodeEntry(e *encxml.Encoder, en entry) error {
	switch en.key {
	case textKey:
		return e.EncodeToken(encxml.CharData(fmt.Sprint(en.value)))
	case commentKey:
		for _, body := range en.value.([]string) {
			if err := e.EncodeToken(encxml.Comment(body)); err != nil {
				return err
			}
		}
		return nil
	case piKey:
		for _, pi := range en.value.([]ProcInst) {
			if err := e.EncodeToken(encxml.ProcInst{Target: pi.Target, Inst: []byte(pi.Data)}); err != nil {
				return err
			}
		}
		return nil
	}
	if strings.HasPrefix(en.key, attrPrefix) {
		return nil
	}
	name := encxml.StartElement{Name: encxml.Name{Local: en.key}}
	if list, ok := en.value.([]any); ok {
		for _, item := range list {
			if err := e.EncodeElement(item, name); err != nil {
				return err
			}
		}
		return nil
	}
	return e.EncodeElement(en.value, name)
}
