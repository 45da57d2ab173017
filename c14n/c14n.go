// Package c14n implements Exclusive Canonical XML canonicalization
// ("c14n") over an xmlpull event stream.
//
// https://www.w3.org/TR/xml-exc-c14n/
package c14n

import (
	"bytes"
	"fmt"
	"io"
	"sort"

	"github.com/brennanwhit/xmlpull/xml"
)

// EventSource is the event stream Canonicalize consumes. *xml.Reader
// implements it directly; any other producer of xml.Event values works
// as long as it emits them in document order.
type EventSource interface {
	NextEvent() (xml.Event, error)
}

// renderState carries the two namespace stacks the exclusive-c14n
// algorithm tracks: every namespace declared in the input, and every
// namespace already rendered into the output. A prefix is (re)rendered
// on an element only when it is visibly used there and its binding is
// not already in effect in the output.
type renderState struct {
	knownNames    Stack
	renderedNames Stack
	buf           bytes.Buffer
}

// Canonicalize drains r and returns the exclusive canonical form of its
// root element. Events before the root (comments, PIs, the XML
// declaration, DOCTYPE) are skipped; it returns once the root element
// closes.
//
// The input stream is assumed well-formed; the Reader has already
// enforced that by the time events come out of it.
func Canonicalize(r EventSource) ([]byte, error) {
	var st renderState
	started := false

	for {
		ev, err := r.NextEvent()
		if err != nil {
			return nil, err
		}

		switch t := ev.(type) {
		case *xml.StartTagEvent:
			started = true
			st.renderStart(t.Name, t.Attrs)

		case *xml.EmptyTagEvent:
			// An empty tag canonicalizes as a start/end pair.
			started = true
			st.renderStart(t.Name, t.Attrs)
			if st.renderEnd(t.Name) {
				return st.buf.Bytes(), nil
			}

		case *xml.EndTagEvent:
			if st.renderEnd(t.Name) {
				return st.buf.Bytes(), nil
			}

		case *xml.TextEvent:
			if started {
				st.buf.Write(escapeText([]byte(t.Text)))
			}

		case *xml.CDataEvent:
			// CDATA sections are replaced by their character content in
			// the canonical form.
			if started {
				st.buf.Write(escapeText([]byte(t.Text)))
			}

		case *xml.PIEvent:
			if started {
				fmt.Fprintf(&st.buf, "<?%s", t.Target)
				if len(t.Data) > 0 {
					st.buf.WriteByte(' ')
					st.buf.WriteString(t.Data)
				}
				st.buf.WriteString("?>")
			}

		case xml.EOFEvent:
			return nil, io.ErrUnexpectedEOF
		}
	}
}

// renderStart writes "<name attrs...>" with the namespace axis resolved
// per the exclusive-c14n rules.
func (st *renderState) renderStart(name xml.Name, attrs *xml.Attributes) {
	names := map[string]string{}              // prefixes declared by this element
	visiblyUsed := map[string]struct{}{}      // prefixes visibly used by it
	visiblyUsed[name.Prefix()] = struct{}{}

	for _, attr := range attrs.All() {
		if prefix, ok := nsDecl(attr); ok {
			names[prefix] = attr.Value
		} else {
			visiblyUsed[attr.Name.Prefix()] = struct{}{}
		}
	}

	// xmlns="" is special-cased against the default namespace in effect
	// on the parent, so capture it before pushing this element's frame.
	prevDefault, _ := st.knownNames.Get("")
	st.knownNames.Push(names)

	toRender := map[string]struct{}{}
	for prefix, uri := range st.knownNames.GetAll() {
		var should bool
		if prefix == "" && uri == "" {
			// Render xmlns="" only when the default namespace is visibly
			// used here, this element does not redeclare the parent's
			// binding, and a non-empty default was already rendered.
			_, used := visiblyUsed[""]
			declaredValue, declared := names[""]
			_, wasRendered := st.renderedNames.Get("")
			should = used && (!declared || declaredValue != prevDefault) && wasRendered
		} else {
			// Render a prefix only when visibly used and not already in
			// effect (same prefix, same URI) in the output.
			_, used := visiblyUsed[prefix]
			renderedValue, wasRendered := st.renderedNames.Get(prefix)
			should = used && (!wasRendered || renderedValue != uri)
		}
		if should {
			toRender[prefix] = struct{}{}
		}
	}

	out := []xml.Attr{}
	for _, attr := range attrs.All() {
		if _, ok := nsDecl(attr); !ok {
			out = append(out, attr)
		}
	}

	renderedValues := map[string]string{}
	for prefix := range toRender {
		uri, _ := st.knownNames.Get(prefix)
		renderedValues[prefix] = uri
		if prefix == "" {
			out = append(out, xml.Attr{Name: xml.NewName("xmlns"), Value: uri})
		} else {
			out = append(out, xml.Attr{Name: xml.NewName("xmlns:" + prefix), Value: uri})
		}
	}
	st.renderedNames.Push(renderedValues)

	sort.Sort(SortAttr{Stack: &st.knownNames, Attrs: out})

	// The QName in the output must use the same prefix that appeared in
	// the input document, which Name.Full already carries verbatim.
	fmt.Fprintf(&st.buf, "<%s", name.Full)
	for _, attr := range out {
		fmt.Fprintf(&st.buf, " %s=\"", attr.Name.Full)
		st.buf.Write(escapeAttr([]byte(attr.Value)))
		st.buf.WriteByte('"')
	}
	st.buf.WriteByte('>')
}

// renderEnd writes "</name>" and pops both namespace stacks, reporting
// whether the root element just closed.
func (st *renderState) renderEnd(name xml.Name) bool {
	fmt.Fprintf(&st.buf, "</%s>", name.Full)
	st.knownNames.Pop()
	st.renderedNames.Pop()
	return st.knownNames.Len() == 0
}

// nsDecl reports the prefix declared by attr ("" for xmlns="..."), and
// whether attr is a namespace declaration at all.
func nsDecl(attr xml.Attr) (string, bool) {
	if attr.Name.Full == "xmlns" {
		return "", true
	}
	if attr.Name.Prefix() == "xmlns" {
		return attr.Name.Local(), true
	}
	return "", false
}

// escapeText applies the c14n text-node escaping: &, <, > and #xD become
// character/entity references, everything else passes through verbatim
// (notably newlines, which encoding/xml's EscapeText would mangle).
func escapeText(val []byte) []byte {
	val = bytes.ReplaceAll(val, amp, escAmp)
	val = bytes.ReplaceAll(val, lt, escLt)
	val = bytes.ReplaceAll(val, gt, escGt)
	val = bytes.ReplaceAll(val, cr, escCr)
	return val
}

// escapeAttr applies the c14n attribute-value escaping: &, <, ", #x9,
// #xA and #xD become references; single quotes stay literal.
func escapeAttr(val []byte) []byte {
	val = bytes.ReplaceAll(val, amp, escAmp)
	val = bytes.ReplaceAll(val, lt, escLt)
	val = bytes.ReplaceAll(val, quot, escQuot)
	val = bytes.ReplaceAll(val, tab, escTab)
	val = bytes.ReplaceAll(val, nl, escNl)
	val = bytes.ReplaceAll(val, cr, escCr)
	return val
}

var (
	amp     = []byte("&")
	escAmp  = []byte("&amp;")
	lt      = []byte("<")
	escLt   = []byte("&lt;")
	gt      = []byte(">")
	escGt   = []byte("&gt;")
	cr      = []byte("\r")
	escCr   = []byte("&#xD;")
	quot    = []byte("\"")
	escQuot = []byte("&quot;")
	tab     = []byte("\t")
	escTab  = []byte("&#x9;")
	nl      = []byte("\n")
	escNl   = []byte("&#xA;")
)
