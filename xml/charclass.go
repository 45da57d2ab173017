package xml

import "sort"

// IsXMLWhitespace reports whether r is XML whitespace: space, tab, LF
// or CR.
func IsXMLWhitespace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r':
		return true
	}
	return false
}

// IsXMLChar reports whether r is a legal XML 1.0 character:
// #x9 | #xA | #xD | [#x20-#xD7FF] | [#xE000-#xFFFD] | [#x10000-#x10FFFF].
func IsXMLChar(r rune) bool {
	switch {
	case r == 0x9 || r == 0xA || r == 0xD:
		return true
	case r >= 0x20 && r <= 0xD7FF:
		return true
	case r >= 0xE000 && r <= 0xFFFD:
		return true
	case r >= 0x10000 && r <= 0x10FFFF:
		return true
	}
	return false
}

// IsNameStart reports whether r may begin an XML Name, per the
// NameStartChar production of the XML 1.0 Fifth Edition grammar:
//
//	NameStartChar ::= ":" | [A-Z] | "_" | [a-z]
//	                | [#xC0-#xD6] | [#xD8-#xF6] | [#xF8-#x2FF]
//	                | [#x370-#x37D] | [#x37F-#x1FFF] | [#x200C-#x200D]
//	                | [#x2070-#x218F] | [#x2C00-#x2FEF] | [#x3001-#xD7FF]
//	                | [#xF900-#xFDCF] | [#xFDF0-#xFFFD] | [#x10000-#xEFFFF]
//
// See charclass_tables.go for the interval table covering the ranges
// above #x7F.
func IsNameStart(r rune) bool {
	switch {
	case r == ':' || r == '_':
		return true
	case r >= 'A' && r <= 'Z':
		return true
	case r >= 'a' && r <= 'z':
		return true
	case r < 0x80:
		return false
	}
	return inIntervals(nameStartIntervals, r)
}

// IsNameContinue reports whether r may occur after the first character
// of an XML Name, per the NameChar production:
//
//	NameChar ::= NameStartChar | "-" | "." | [0-9] | #xB7
//	           | [#x0300-#x036F] | [#x203F-#x2040]
func IsNameContinue(r rune) bool {
	switch {
	case r == '-' || r == '.':
		return true
	case r >= '0' && r <= '9':
		return true
	case r == 0xB7:
		return true
	}
	if IsNameStart(r) {
		return true
	}
	if r < 0x80 {
		return false
	}
	return inIntervals(nameContinueExtraIntervals, r)
}

type runeInterval struct {
	lo, hi rune
}

func inIntervals(table []runeInterval, r rune) bool {
	i := sort.Search(len(table), func(i int) bool { return table[i].hi >= r })
	return i < len(table) && table[i].lo <= r
}
