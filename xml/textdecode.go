package xml

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// decodeCharData decodes a character-data (Text) segment: newline
// normalization followed by entity/character reference expansion.
// Attribute-value whitespace normalization does not apply to character
// data.
func decodeCharData(raw string, pos Position, opts decodeOptions) (string, error) {
	normalized := normalizeNewlines(raw)
	opts.ctx = ctxText
	return decodeText(normalized, pos, opts)
}

// decodeAttrValue decodes an attribute value: newline normalization,
// reference expansion, and attribute-value normalization per XML 1.0
// section 3.3.3. Each whitespace character in the value becomes a
// single space, except whitespace introduced by character references,
// which is preserved verbatim.
func decodeAttrValue(raw string, pos Position, opts decodeOptions) (string, error) {
	normalized := normalizeNewlines(raw)
	opts.ctx = ctxAttrValue

	var runes []rune
	var protected []bool

	var walk func(s string, depth int, expanding map[string]bool) error
	walk = func(s string, depth int, expanding map[string]bool) error {
		if depth > maxEntityDepth {
			return newError(KindRecursiveEntity, pos, "entity expansion exceeded maximum depth")
		}
		i := 0
		for i < len(s) {
			c := s[i]
			if c == '<' {
				return newError(KindMalformedTag, pos, "literal '<' in attribute value")
			}
			if c != '&' {
				r, size := utf8.DecodeRuneInString(s[i:])
				runes = append(runes, r)
				protected = append(protected, false)
				i += size
				continue
			}

			semi := strings.IndexByte(s[i:], ';')
			if semi < 0 {
				return newError(KindInvalidReference, pos, "unterminated reference")
			}
			ref := s[i+1 : i+semi]
			full := s[i : i+semi+1]

			switch {
			case strings.HasPrefix(ref, "#x") || strings.HasPrefix(ref, "#X"):
				cp, err := strconv.ParseInt(ref[2:], 16, 32)
				if err != nil || !IsXMLChar(rune(cp)) {
					return newError(KindInvalidReference, pos, "invalid hex character reference %q", full)
				}
				runes = append(runes, rune(cp))
				protected = append(protected, true)
			case strings.HasPrefix(ref, "#"):
				cp, err := strconv.ParseInt(ref[1:], 10, 32)
				if err != nil || !IsXMLChar(rune(cp)) {
					return newError(KindInvalidReference, pos, "invalid decimal character reference %q", full)
				}
				runes = append(runes, rune(cp))
				protected = append(protected, true)
			default:
				if !isEntityNameRef(ref) {
					return newError(KindInvalidReference, pos, "'&' does not begin a valid reference")
				}
				val, ok := opts.entities.lookup(ref)
				if !ok {
					if opts.strictUnknownRef {
						e := newError(KindUnknownEntity, pos, "unknown entity")
						e.Name = ref
						return e
					}
					for _, r := range full {
						runes = append(runes, r)
						protected = append(protected, false)
					}
					break
				}
				if val.external {
					e := newError(KindUnknownEntity, pos, "reference to external/unparsed entity")
					e.Name = ref
					return e
				}
				if ref == "lt" || ref == "gt" || ref == "amp" || ref == "apos" || ref == "quot" {
					// The predefined entities stand for their character
					// literally; their replacement text is not rescanned.
					for _, r := range val.text {
						runes = append(runes, r)
						protected = append(protected, false)
					}
					break
				}
				if expanding[ref] {
					e := newError(KindRecursiveEntity, pos, "recursive entity expansion")
					e.Name = ref
					return e
				}
				next := map[string]bool{ref: true}
				for k := range expanding {
					next[k] = true
				}
				if err := walk(val.text, depth+1, next); err != nil {
					return err
				}
			}
			i += semi + 1
		}
		return nil
	}

	if !opts.expandEntities {
		var b strings.Builder
		for i := 0; i < len(normalized); i++ {
			if IsXMLWhitespace(rune(normalized[i])) {
				b.WriteByte(' ')
			} else {
				b.WriteByte(normalized[i])
			}
		}
		return b.String(), nil
	}

	if err := walk(normalized, 0, map[string]bool{}); err != nil {
		return "", err
	}

	var b strings.Builder
	for i, r := range runes {
		if !protected[i] && IsXMLWhitespace(r) {
			b.WriteByte(' ')
		} else {
			b.WriteRune(r)
		}
	}
	return b.String(), nil
}
