package xml

import "strings"

// Name is a qualified XML name: the raw source text plus, derived on
// demand, the (prefix, local) split on the first colon. It is a plain
// string rather than a reused byte slice, since Event values are handed
// to callers by value and must stay valid past the next NextEvent call.
type Name struct {
	Full string
}

// NewName builds a Name from raw source text (everything between '<' or
// '</' and the first whitespace/'>'/'/').
func NewName(full string) Name { return Name{Full: full} }

// Prefix returns the portion before the first colon, or "" if there is
// none.
func (n Name) Prefix() string {
	if i := strings.IndexByte(n.Full, ':'); i >= 0 {
		return n.Full[:i]
	}
	return ""
}

// Local returns the portion after the first colon, or the whole name if
// there is no colon.
func (n Name) Local() string {
	if i := strings.IndexByte(n.Full, ':'); i >= 0 {
		return n.Full[i+1:]
	}
	return n.Full
}

func (n Name) String() string { return n.Full }
