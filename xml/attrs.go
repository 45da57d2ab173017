package xml

// Attr is a single decoded (name, value) attribute pair in source order.
type Attr struct {
	Name  Name
	Value string
}

// Attributes is the ordered, duplicate-checked attribute list carried by
// StartTag/EmptyTag events: a slice preserves source order, a map gives
// O(1) duplicate detection and lookup.
type Attributes struct {
	list  []Attr
	index map[string]int
}

func newAttributes() *Attributes {
	return &Attributes{index: make(map[string]int)}
}

// add inserts an attribute, returning false if name already exists
// (caller should raise KindDuplicateAttribute).
func (a *Attributes) add(name Name, value string) bool {
	if _, exists := a.index[name.Full]; exists {
		return false
	}
	a.index[name.Full] = len(a.list)
	a.list = append(a.list, Attr{Name: name, Value: value})
	return true
}

// Len returns the number of attributes.
func (a *Attributes) Len() int {
	if a == nil {
		return 0
	}
	return len(a.list)
}

// Get returns the decoded value of the named attribute and whether it
// was present.
func (a *Attributes) Get(name string) (string, bool) {
	if a == nil {
		return "", false
	}
	i, ok := a.index[name]
	if !ok {
		return "", false
	}
	return a.list[i].Value, true
}

// At returns the i'th attribute in source order.
func (a *Attributes) At(i int) Attr { return a.list[i] }

// All returns the attributes in source order. The returned slice must
// not be mutated.
func (a *Attributes) All() []Attr {
	if a == nil {
		return nil
	}
	return a.list
}

// scanAttributes parses the attribute list of a start/empty tag starting
// right after the tag name. It returns the parsed attributes, whether
// the tag is self-closing ("/>"), and the index of the first byte after
// the terminating '>'.
//
// buf is the whole buffered window, which may end before the tag does;
// running off its end returns KindUnexpectedEOF, and scanTagAttributes
// (tokenizer.go) decides whether that means more bytes are needed.
func scanAttributes(buf []byte, start int, pos Position, opts decodeOptions) (attrs *Attributes, selfClosing bool, next int, err error) {
	attrs = newAttributes()
	i := start

	for {
		wsStart := i
		i = skipWhitespace(buf, i)
		if i >= len(buf) {
			return nil, false, 0, newError(KindUnexpectedEOF, pos, "unterminated tag")
		}

		if buf[i] == '/' {
			if i+1 >= len(buf) || buf[i+1] != '>' {
				return nil, false, 0, newError(KindMalformedTag, pos, "expected '/>' ")
			}
			return attrs, true, i + 2, nil
		}
		if buf[i] == '>' {
			return attrs, false, i + 1, nil
		}

		// Whitespace is required before each attribute, including the
		// first one right after the tag name.
		if i == wsStart {
			return nil, false, 0, newError(KindMalformedTag, pos, "whitespace required before attribute name")
		}
		if !isNameStartByte(buf[i]) {
			return nil, false, 0, newError(KindMalformedTag, pos, "expected attribute name, '/' or '>'")
		}

		nameStart := i
		for i < len(buf) && isNameContByte(buf[i]) {
			i++
		}
		name := NewName(string(buf[nameStart:i]))

		i = skipWhitespace(buf, i)
		if i >= len(buf) || buf[i] != '=' {
			return nil, false, 0, newError(KindMalformedTag, pos, "expected '=' after attribute name %q", name.Full)
		}
		i++
		i = skipWhitespace(buf, i)
		if i >= len(buf) || (buf[i] != '"' && buf[i] != '\'') {
			return nil, false, 0, newError(KindMalformedTag, pos, "expected quoted value for attribute %q", name.Full)
		}
		quote := buf[i]
		i++
		valStart := i
		for i < len(buf) && buf[i] != quote {
			if buf[i] == '<' {
				return nil, false, 0, newError(KindMalformedTag, pos, "literal '<' in attribute value")
			}
			i++
		}
		if i >= len(buf) {
			return nil, false, 0, newError(KindUnexpectedEOF, pos, "unterminated attribute value")
		}
		raw := string(buf[valStart:i])
		i++ // consume closing quote

		value, derr := decodeAttrValue(raw, pos, opts)
		if derr != nil {
			return nil, false, 0, derr
		}

		if !attrs.add(name, value) {
			e := newError(KindDuplicateAttribute, pos, "duplicate attribute")
			e.Name = name.Full
			return nil, false, 0, e
		}
	}
}

func skipWhitespace(buf []byte, i int) int {
	for i < len(buf) && isASCIIWhitespace(buf[i]) {
		i++
	}
	return i
}

func isASCIIWhitespace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

// isNameStartByte/isNameContByte are byte-level gates used while
// scanning attribute names (and entity and pseudo-attribute names);
// element names are classified rune by rune via IsNameStart/
// IsNameContinue by the tokenizer. ASCII bytes are checked against the
// Name grammar, but every byte with the high bit set is accepted, so a
// non-ASCII character in an attribute name is not checked against the
// NameStartChar/NameChar ranges.
func isNameStartByte(b byte) bool {
	return IsNameStart(rune(b)) || b >= 0x80
}

func isNameContByte(b byte) bool {
	return IsNameContinue(rune(b)) || b >= 0x80
}
