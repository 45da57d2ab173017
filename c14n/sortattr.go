package c14n

import (
	"github.com/brennanwhit/xmlpull/xml"
)

// SortAttr orders a start tag's attributes per the c14n document-order
// rules: the default namespace node first, then namespace nodes by local
// name, then ordinary attributes by (namespace URI, local name).
//
// https://www.w3.org/TR/2001/REC-xml-c14n-20010315#DocumentOrder
type SortAttr struct {
	Stack *Stack
	Attrs []xml.Attr
}

// Len implements sort.Interface.
func (s SortAttr) Len() int { return len(s.Attrs) }

// Swap implements sort.Interface.
func (s SortAttr) Swap(i, j int) { s.Attrs[i], s.Attrs[j] = s.Attrs[j], s.Attrs[i] }

// Less implements sort.Interface.
func (s SortAttr) Less(i, j int) bool {
	ni, nj := s.Attrs[i].Name, s.Attrs[j].Name

	// "Namespace nodes have a lesser document order position than
	// attribute nodes", and the default namespace node, having no local
	// name, is lexicographically least among them.
	if ni.Full == "xmlns" {
		return true
	}
	if nj.Full == "xmlns" {
		return false
	}

	iNS, jNS := ni.Prefix() == "xmlns", nj.Prefix() == "xmlns"
	if iNS && !jNS {
		return true
	}
	if !iNS && jNS {
		return false
	}
	if iNS && jNS {
		return ni.Local() < nj.Local()
	}

	// Ordinary attributes sort with namespace URI as the primary key and
	// local name as the secondary key; an undeclared prefix resolves to
	// "", which is lexicographically least.
	uriI, _ := s.Stack.Get(ni.Prefix())
	uriJ, _ := s.Stack.Get(nj.Prefix())
	if uriI != uriJ {
		return uriI < uriJ
	}
	return ni.Local() < nj.Local()
}
