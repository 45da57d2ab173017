package xml

import (
	"strings"
	"unicode/utf8"
)

// scanNext is the lexical state machine: classify the next byte window
// into exactly one Event (or loop internally when TrimText suppresses
// an all-whitespace Text event). It is the sole entry point the Reader
// calls to advance.
//
// Incremental sources follow one convention throughout: return
// ErrIncomplete instead of blocking, and a retry re-scans from the
// same, uncommitted position.
func (r *Reader) scanNext() (Event, error) {
	for {
		ev, commitTo, err := r.scanOnce()
		if err != nil {
			return nil, err
		}
		r.commit(commitTo)
		if ev == nil {
			// TrimText suppressed an all-whitespace Text event: loop to
			// produce the next real event instead.
			continue
		}
		return ev, nil
	}
}

// scanOnce performs one classification pass without committing the read
// position, so that an ErrIncomplete return leaves the Reader free to be
// retried verbatim once more bytes are fed. The one state it does touch
// is the entity table: a DOCTYPE scan declares entities as it goes, and
// a retried scan declares them again, which first-wins makes a no-op.
func (r *Reader) scanOnce() (ev Event, commitTo int, err error) {
	buf := r.source.Bytes()
	i := r.pos
	pos := r.tr.position()

	if i >= len(buf) {
		if r.source.IsEOF() {
			return EOFEvent{base{pos}}, i, nil
		}
		return nil, 0, ErrIncomplete
	}

	if buf[i] == '<' {
		return r.scanMarkup(buf, i, pos)
	}
	return r.scanText(buf, i, pos)
}

// want asks the source to make the byte at index i available, returning
// ErrIncomplete when it is not buffered yet but may still arrive. A nil
// return with a buffer that still ends before i means the input has
// truly ended, and the caller reports UnexpectedEof (or Eof) itself.
func (r *Reader) want(i int) error {
	return r.source.Request(i + 1)
}

func (r *Reader) decodeOpts() decodeOptions {
	return decodeOptions{
		entities:         r.entities,
		expandEntities:   r.cfg.expandEntities,
		strictUnknownRef: true, // an unknown entity changes semantics, so it stays an error even in lenient mode
	}
}

// isRecognizedMarkupStart reports whether buf[i:] ('<' at i) begins one
// of the markup constructs the tokenizer recognizes, without fully
// parsing it. Used by scanText to decide where literal text must stop.
func isRecognizedMarkupStart(buf []byte, i int) bool {
	if i+1 >= len(buf) {
		return false
	}
	switch buf[i+1] {
	case '?', '/':
		return true
	case '!':
		return hasPrefixAt(buf, i, "<!--") || hasPrefixAt(buf, i, "<![CDATA[") || hasPrefixAt(buf, i, "<!DOCTYPE")
	}
	r, size := utf8.DecodeRune(buf[i+1:])
	if r == utf8.RuneError && size <= 1 {
		return false
	}
	return IsNameStart(r)
}

// scanText consumes character data up to (but not including) the next
// recognized markup start. In lenient mode (the default), a '<' that
// does not begin recognized markup is literal text instead of an error.
func (r *Reader) scanText(buf []byte, start int, pos Position) (Event, int, error) {
	j := start
	for {
		if j >= len(buf) {
			if err := r.want(j); err != nil {
				return nil, 0, err
			}
			break
		}
		if buf[j] != '<' {
			j++
			continue
		}
		if j+1 >= len(buf) {
			if err := r.want(j + 1); err != nil {
				return nil, 0, err
			}
		}
		if isRecognizedMarkupStart(buf, j) {
			break
		}
		if r.cfg.strict {
			return nil, 0, newError(KindInvalidChar, offsetPos(pos, buf, start, j), "'<' not followed by a name start character")
		}
		j++ // lenient: '<' is literal text; keep scanning.
	}

	raw := buf[start:j]
	if bytesContains(raw, "]]>") {
		return nil, 0, newError(KindInvalidCDataTerminator, pos, "']]>' not allowed in character data")
	}

	decoded, derr := decodeCharData(string(raw), pos, r.decodeOpts())
	if derr != nil {
		return nil, 0, derr
	}

	wsOnly := isAllWhitespace(decoded)
	if r.cfg.trimText {
		trimmed := strings.TrimFunc(decoded, func(rn rune) bool { return IsXMLWhitespace(rn) })
		if trimmed == "" {
			// Suppressed: advance past this text with no event.
			return nil, j, nil
		}
		decoded = trimmed
		wsOnly = false
	}
	if len(raw) == 0 {
		// Nothing to consume (immediately at a recognized markup start);
		// scanMarkup handles it on the next iteration. This only occurs
		// when start == j, i.e. scanText was entered right before genuine
		// markup, which scanOnce never does directly, but defensively
		// avoid emitting a phantom empty Text event.
		return nil, j, nil
	}
	return &TextEvent{base: base{pos}, Text: decoded, WhitespaceOnly: wsOnly}, j, nil
}

func (r *Reader) scanMarkup(buf []byte, i int, pos Position) (Event, int, error) {
	if i+1 >= len(buf) {
		if err := r.want(i + 1); err != nil {
			return nil, 0, err
		}
		return nil, 0, newError(KindUnexpectedEOF, pos, "unterminated '<'")
	}

	switch buf[i+1] {
	case '?':
		return r.scanPIOrDecl(buf, i, pos)
	case '!':
		return r.scanBang(buf, i, pos)
	case '/':
		return r.scanEndTag(buf, i, pos)
	}

	rn, size := utf8.DecodeRune(buf[i+1:])
	if rn == utf8.RuneError && size <= 1 {
		// A multi-byte rune may be straddling the window boundary.
		if i+5 > len(buf) {
			if err := r.want(i + 4); err != nil {
				return nil, 0, err
			}
		}
		return nil, 0, newError(KindInvalidEncoding, pos, "invalid UTF-8 sequence")
	}
	if IsNameStart(rn) {
		return r.scanStartOrEmptyTag(buf, i, pos)
	}
	if r.cfg.strict {
		return nil, 0, newError(KindInvalidChar, pos, "'<' not followed by a name start character")
	}
	// Lenient: this '<' is literal text; re-dispatch through scanText so
	// the same "stop at next recognized markup" logic applies uniformly.
	return r.scanText(buf, i, pos)
}

func (r *Reader) scanEndTag(buf []byte, i int, pos Position) (Event, int, error) {
	j := i + 2
	if j >= len(buf) {
		if err := r.want(j); err != nil {
			return nil, 0, err
		}
		return nil, 0, newError(KindUnexpectedEOF, pos, "unterminated end tag")
	}
	nameStart := j
	rn, size := utf8.DecodeRune(buf[j:])
	if !IsNameStart(rn) {
		return nil, 0, newError(KindMalformedTag, pos, "expected name after '</'")
	}
	j += size
	for j < len(buf) {
		rn, size := utf8.DecodeRune(buf[j:])
		if !IsNameContinue(rn) {
			break
		}
		j += size
	}
	name := string(buf[nameStart:j])

	j = skipWhitespace(buf, j)
	if j >= len(buf) {
		if err := r.want(j); err != nil {
			return nil, 0, err
		}
		return nil, 0, newError(KindUnexpectedEOF, pos, "unterminated end tag")
	}
	if buf[j] != '>' {
		return nil, 0, newError(KindMalformedTag, pos, "expected '>' to close end tag")
	}
	return &EndTagEvent{base: base{pos}, Name: NewName(name)}, j + 1, nil
}

func (r *Reader) scanStartOrEmptyTag(buf []byte, i int, pos Position) (Event, int, error) {
	j := i + 1
	nameStart := j
	rn, size := utf8.DecodeRune(buf[j:])
	_ = rn
	j += size
	for j < len(buf) {
		rn, size := utf8.DecodeRune(buf[j:])
		if !IsNameContinue(rn) {
			break
		}
		j += size
	}
	// Need to know whether a name-continue run might still be incomplete
	// at the buffer boundary (a multi-byte rune straddling the window).
	if j >= len(buf) {
		if err := r.want(j); err != nil {
			return nil, 0, err
		}
	}
	name := string(buf[nameStart:j])

	attrs, selfClosing, next, err := r.scanTagAttributes(buf, j, pos)
	if err != nil {
		return nil, 0, err
	}
	if selfClosing {
		return &EmptyTagEvent{base: base{pos}, Name: NewName(name), Attrs: attrs}, next, nil
	}
	return &StartTagEvent{base: base{pos}, Name: NewName(name), Attrs: attrs}, next, nil
}

// scanTagAttributes wraps scanAttributes with incremental-source
// awareness: when the attribute list runs off the end of the buffer,
// ask the source for more bytes before treating it as real truncation.
func (r *Reader) scanTagAttributes(buf []byte, start int, pos Position) (*Attributes, bool, int, error) {
	attrs, selfClosing, next, err := scanAttributes(buf, start, pos, r.decodeOpts())
	if err != nil {
		if ae, ok := err.(*Error); ok && ae.Kind == KindUnexpectedEOF {
			if werr := r.want(len(buf)); werr != nil {
				return nil, false, 0, werr
			}
		}
		return nil, false, 0, err
	}
	return attrs, selfClosing, next, nil
}

func (r *Reader) scanBang(buf []byte, i int, pos Position) (Event, int, error) {
	const maxPrefix = len("<![CDATA[")
	if len(buf)-i < maxPrefix {
		// Not enough bytes yet to disambiguate comment/CDATA/doctype from
		// a shorter unknown declaration; ask for more.
		if err := r.want(i + maxPrefix - 1); err != nil {
			return nil, 0, err
		}
	}

	switch {
	case hasPrefixAt(buf, i, "<!--"):
		return r.scanComment(buf, i, pos)
	case hasPrefixAt(buf, i, "<![CDATA["):
		return r.scanCData(buf, i, pos)
	case hasPrefixAt(buf, i, "<!DOCTYPE"):
		return r.scanDocTypeEvent(buf, i, pos)
	}
	return nil, 0, newError(KindMalformedTag, pos, "unknown declaration")
}

func (r *Reader) scanComment(buf []byte, i int, pos Position) (Event, int, error) {
	start := i + 4
	end := indexOf(buf, start, "-->")
	if end < 0 {
		if err := r.want(len(buf)); err != nil {
			return nil, 0, err
		}
		return nil, 0, newError(KindUnexpectedEOF, pos, "unterminated comment")
	}
	body := string(buf[start:end])
	if strings.Contains(body, "--") {
		return nil, 0, newError(KindInvalidComment, pos, "'--' not allowed inside a comment")
	}
	return &CommentEvent{base: base{pos}, Text: body}, end + 3, nil
}

func (r *Reader) scanCData(buf []byte, i int, pos Position) (Event, int, error) {
	start := i + len("<![CDATA[")
	end := indexOf(buf, start, "]]>")
	if end < 0 {
		if err := r.want(len(buf)); err != nil {
			return nil, 0, err
		}
		return nil, 0, newError(KindUnexpectedEOF, pos, "unterminated CDATA section")
	}
	return &CDataEvent{base: base{pos}, Text: string(buf[start:end])}, end + 3, nil
}

func (r *Reader) scanDocTypeEvent(buf []byte, i int, pos Position) (Event, int, error) {
	if r.doctypeSeen {
		return nil, 0, newError(KindDoctypeError, pos, "a document may have at most one DOCTYPE")
	}
	if r.rootStarted {
		return nil, 0, newError(KindDoctypeError, pos, "DOCTYPE must appear before the root element")
	}
	start := i + len("<!DOCTYPE")
	body, next, err := scanDoctype(buf, start, pos, r.entities, r.decodeOpts())
	if err != nil {
		if ae, ok := err.(*Error); ok && ae.Kind == KindUnexpectedEOF {
			if werr := r.want(len(buf)); werr != nil {
				return nil, 0, werr
			}
		}
		return nil, 0, err
	}
	return &DocTypeEvent{base: base{pos}, Body: strings.TrimPrefix(body, " ")}, next, nil
}

func (r *Reader) scanPIOrDecl(buf []byte, i int, pos Position) (Event, int, error) {
	start := i + 2
	j := start
	for j < len(buf) {
		rn, size := utf8.DecodeRune(buf[j:])
		if !IsNameContinue(rn) && !(j == start && IsNameStart(rn)) {
			break
		}
		j += size
	}
	if j >= len(buf) {
		if err := r.want(j); err != nil {
			return nil, 0, err
		}
	}
	target := string(buf[start:j])

	if r.cfg.strict {
		if target == "" {
			return nil, 0, newError(KindMalformedTag, pos, "processing instruction target must not be empty")
		}
		if rn, _ := utf8.DecodeRuneInString(target); !IsNameStart(rn) {
			return nil, 0, newError(KindMalformedTag, pos, "processing instruction target must begin with a name start character")
		}
	}
	// Lenient: an empty or oddly-shaped target still yields a PI event.

	dataStart := j
	if j < len(buf) && isASCIIWhitespace(buf[j]) {
		dataStart = j + 1
	}
	end := indexOf(buf, j, "?>")
	if end < 0 {
		if err := r.want(len(buf)); err != nil {
			return nil, 0, err
		}
		return nil, 0, newError(KindUnexpectedEOF, pos, "unterminated processing instruction")
	}
	if dataStart > end {
		dataStart = end
	}
	data := string(buf[dataStart:end])
	next := end + 2

	if target == "xml" && r.tokenCount == 0 {
		return r.parseDecl(data, pos, next)
	}
	// "<?xml ...?>" anywhere but the very first token is an ordinary PI.
	return &PIEvent{base: base{pos}, Target: target, Data: data}, next, nil
}

func (r *Reader) parseDecl(data string, pos Position, next int) (Event, int, error) {
	if r.declSeen {
		return nil, 0, newError(KindMalformedTag, pos, "duplicate XML declaration")
	}
	attrs, err := parsePseudoAttrs(data)
	if err != nil {
		return nil, 0, newError(KindMalformedTag, pos, "malformed XML declaration: %v", err)
	}
	version, ok := attrs.Get("version")
	if !ok {
		return nil, 0, newError(KindMalformedTag, pos, "XML declaration missing required 'version'")
	}
	encoding, _ := attrs.Get("encoding")
	if encoding != "" && !isCanonicalEncName(encoding) && r.cfg.strict {
		return nil, 0, newError(KindInvalidEncoding, pos, "non-canonical encoding name %q", encoding)
	}
	standalone, _ := attrs.Get("standalone")
	if standalone != "" && standalone != "yes" && standalone != "no" {
		return nil, 0, newError(KindMalformedTag, pos, "standalone must be 'yes' or 'no'")
	}
	return &DeclEvent{base: base{pos}, Version: version, Encoding: encoding, Standalone: standalone}, next, nil
}

// parsePseudoAttrs parses the pseudo-attribute list of an XML
// declaration ("version=\"1.0\" encoding=\"UTF-8\""): the same
// Name Eq Quoted grammar as real attributes, but with no entity
// expansion, since Decl pseudo-attributes are plain tokens rather than
// decoded text.
func parsePseudoAttrs(data string) (*Attributes, error) {
	attrs := newAttributes()
	buf := []byte(data)
	i := 0
	for {
		i = skipWhitespace(buf, i)
		if i >= len(buf) {
			return attrs, nil
		}
		nameStart := i
		for i < len(buf) && isNameContByte(buf[i]) {
			i++
		}
		if i == nameStart {
			return nil, newError(KindMalformedTag, Position{}, "expected pseudo-attribute name")
		}
		name := string(buf[nameStart:i])
		i = skipWhitespace(buf, i)
		if i >= len(buf) || buf[i] != '=' {
			return nil, newError(KindMalformedTag, Position{}, "expected '=' after %q", name)
		}
		i++
		i = skipWhitespace(buf, i)
		if i >= len(buf) || (buf[i] != '"' && buf[i] != '\'') {
			return nil, newError(KindMalformedTag, Position{}, "expected quoted value for %q", name)
		}
		quote := buf[i]
		i++
		valStart := i
		for i < len(buf) && buf[i] != quote {
			i++
		}
		if i >= len(buf) {
			return nil, newError(KindUnexpectedEOF, Position{}, "unterminated pseudo-attribute value")
		}
		value := string(buf[valStart:i])
		i++
		if !attrs.add(NewName(name), value) {
			e := newError(KindDuplicateAttribute, Position{}, "duplicate pseudo-attribute")
			e.Name = name
			return nil, e
		}
	}
}

func isCanonicalEncName(s string) bool {
	if len(s) == 0 {
		return false
	}
	first := s[0]
	if !((first >= 'A' && first <= 'Z') || (first >= 'a' && first <= 'z')) {
		return false
	}
	for i := 1; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '.', c == '_', c == '-':
		default:
			return false
		}
	}
	return true
}

func isAllWhitespace(s string) bool {
	for _, r := range s {
		if !IsXMLWhitespace(r) {
			return false
		}
	}
	return true
}

func bytesContains(b []byte, sub string) bool {
	return strings.Contains(string(b), sub)
}

// offsetPos derives a Position for a byte somewhere inside the current
// scan window, used when an error is detected partway through a Text
// run rather than at its start.
func offsetPos(start Position, buf []byte, from, to int) Position {
	p := start
	for i := from; i < to; i++ {
		p.Offset++
		if buf[i] == '\n' {
			p.Line++
			p.Col = 1
		} else {
			p.Col++
		}
	}
	return p
}
