package xml

import (
	"strconv"
	"strings"
)

// maxEntityDepth bounds nested entity expansion. Direct and mutual
// recursion are caught by the expanding-set check; the depth bound is a
// backstop against deeply chained non-recursive definitions.
const maxEntityDepth = 32

// entityValue is what the entity table maps a name to: either literal
// replacement text, or an "external" marker for SYSTEM/PUBLIC-declared
// entities whose content lives outside the document.
type entityValue struct {
	text     string
	external bool
}

// entityTable maps entity names to their replacement text. It is seeded
// with the five built-ins and extended (first-wins) by the DOCTYPE
// internal subset parser.
type entityTable struct {
	m map[string]entityValue
}

func newEntityTable() *entityTable {
	t := &entityTable{m: map[string]entityValue{
		"lt":   {text: "<"},
		"gt":   {text: ">"},
		"amp":  {text: "&"},
		"apos": {text: "'"},
		"quot": {text: "\""},
	}}
	return t
}

// declare inserts a general entity declaration. A later duplicate
// declaration for an existing name is ignored (first-wins, per the XML
// spec's binding rule for multiple declarations).
func (t *entityTable) declare(name, text string, external bool) {
	if _, exists := t.m[name]; exists {
		return
	}
	t.m[name] = entityValue{text: text, external: external}
}

func (t *entityTable) lookup(name string) (entityValue, bool) {
	v, ok := t.m[name]
	return v, ok
}

// decodeContext selects the well-formedness rules that differ between
// text content and attribute values when decoding references.
type decodeContext int

const (
	ctxText decodeContext = iota
	ctxAttrValue
	ctxEntityValue // a DTD entity-value literal: char refs expand, general entity refs bypass
)

// decodeOptions groups the knobs decode needs from the Reader's config
// and from the DOCTYPE subset parser (entity values bypass general
// entity expansion).
type decodeOptions struct {
	entities         *entityTable
	expandEntities   bool
	strictUnknownRef bool // strict mode for unresolved &name; references
	ctx              decodeContext
}

// decodeText expands character/entity references in a raw (already
// CR/CRLF-normalized) string. pos is the position of the first byte of
// raw, used to anchor any error raised while decoding.
func decodeText(raw string, pos Position, opts decodeOptions) (string, error) {
	return decodeTextDepth(raw, pos, opts, nil, 0)
}

func decodeTextDepth(raw string, pos Position, opts decodeOptions, expanding map[string]bool, depth int) (string, error) {
	if depth > maxEntityDepth {
		return "", newError(KindRecursiveEntity, pos, "entity expansion exceeded maximum depth")
	}

	if !opts.expandEntities && opts.ctx != ctxEntityValue {
		return raw, nil
	}

	var b strings.Builder
	b.Grow(len(raw))

	i := 0
	for i < len(raw) {
		c := raw[i]
		if c != '&' {
			b.WriteByte(c)
			i++
			continue
		}

		semi := strings.IndexByte(raw[i:], ';')
		if semi < 0 {
			return "", newError(KindInvalidReference, pos, "unterminated reference")
		}
		ref := raw[i+1 : i+semi]
		full := raw[i : i+semi+1]

		switch {
		case strings.HasPrefix(ref, "#x") || strings.HasPrefix(ref, "#X"):
			cp, err := strconv.ParseInt(ref[2:], 16, 32)
			if err != nil || !IsXMLChar(rune(cp)) {
				return "", newError(KindInvalidReference, pos, "invalid hex character reference %q", full)
			}
			b.WriteRune(rune(cp))
		case strings.HasPrefix(ref, "#"):
			cp, err := strconv.ParseInt(ref[1:], 10, 32)
			if err != nil || !IsXMLChar(rune(cp)) {
				return "", newError(KindInvalidReference, pos, "invalid decimal character reference %q", full)
			}
			b.WriteRune(rune(cp))
		default:
			if !isEntityNameRef(ref) {
				return "", newError(KindInvalidReference, pos, "'&' does not begin a valid reference")
			}
			if opts.ctx == ctxEntityValue {
				// General-entity references inside a DTD entity value are
				// left unexpanded; they are re-scanned when the entity is
				// used ("included in literal", XML 1.0 section 4.4.5).
				b.WriteString(full)
				break
			}

			val, ok := opts.entities.lookup(ref)
			if !ok {
				if opts.strictUnknownRef {
					e := newError(KindUnknownEntity, pos, "unknown entity")
					e.Name = ref
					return "", e
				}
				// Lenient: preserve the reference verbatim.
				b.WriteString(full)
				break
			}
			if val.external {
				e := newError(KindUnknownEntity, pos, "reference to external/unparsed entity")
				e.Name = ref
				return "", e
			}
			if ref == "lt" || ref == "gt" || ref == "amp" || ref == "apos" || ref == "quot" {
				// The predefined entities stand for their character
				// literally; their replacement text is not rescanned.
				b.WriteString(val.text)
				break
			}
			if expanding[ref] {
				e := newError(KindRecursiveEntity, pos, "recursive entity expansion")
				e.Name = ref
				return "", e
			}
			next := map[string]bool{ref: true}
			for k := range expanding {
				next[k] = true
			}
			expanded, err := decodeTextDepth(val.text, pos, opts, next, depth+1)
			if err != nil {
				return "", err
			}
			b.WriteString(expanded)
		}

		i += semi + 1
	}

	return b.String(), nil
}

// isEntityNameRef reports whether ref is a syntactically valid entity
// name (NameStartChar NameChar*), distinguishing a malformed reference
// (InvalidReference) from a well-formed one that is merely undeclared
// (UnknownEntity).
func isEntityNameRef(ref string) bool {
	if ref == "" {
		return false
	}
	for i, r := range ref {
		if i == 0 {
			if !IsNameStart(r) {
				return false
			}
			continue
		}
		if !IsNameContinue(r) {
			return false
		}
	}
	return true
}

// normalizeNewlines implements the CR/CRLF -> LF normalization of XML
// 1.0 section 2.11. It runs before entity expansion, so a CR produced
// by a character reference is never rewritten.
func normalizeNewlines(s string) string {
	if !strings.ContainsAny(s, "\r") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\r' {
			b.WriteByte('\n')
			if i+1 < len(s) && s[i+1] == '\n' {
				i++
			}
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
