package xml

import (
	"io"
)

// Reader is a streaming, non-validating XML 1.0 + Namespaces 1.0 pull
// parser. It owns the nesting stack (well-formedness of tag matching),
// the namespace scope stack, and the entity table; the tokenizer
// (tokenizer.go) does the lexical classification on its behalf.
type Reader struct {
	source ByteSource
	pos    int
	tr     *tracker
	cfg    config

	entities *entityTable
	ns       *namespaceStack
	resolver ExternalEntityResolver

	stack []string

	tokenCount  int
	declSeen    bool
	doctypeSeen bool
	rootStarted bool
	rootEnded   bool

	poisoned  bool
	poisonErr *Error
}

func newReader(source ByteSource, opts []Option) *Reader {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	return &Reader{
		source:   source,
		tr:       newTracker(),
		cfg:      cfg,
		entities: newEntityTable(),
		ns:       newNamespaceStack(),
	}
}

// NewReader fully buffers r and returns a Reader over it. Use
// NewReaderSource with a StreamSource for incremental feeding.
func NewReader(r io.Reader, opts ...Option) (*Reader, error) {
	src, err := NewBufferSourceReader(r)
	if err != nil {
		return nil, err
	}
	return newReader(src, opts), nil
}

// NewReaderBytes wraps an in-memory buffer with no copy of opts needed
// at call sites that already have the whole document in hand.
func NewReaderBytes(b []byte, opts ...Option) *Reader {
	return newReader(NewBufferSource(b), opts)
}

// NewReaderString is a convenience wrapper around NewReaderBytes.
func NewReaderString(s string, opts ...Option) *Reader {
	return NewReaderBytes([]byte(s), opts...)
}

// NewReaderSource builds a Reader over a caller-supplied ByteSource,
// typically a *StreamSource fed incrementally across multiple
// NextEvent/ErrIncomplete round trips.
func NewReaderSource(src ByteSource, opts ...Option) *Reader {
	return newReader(src, opts)
}

// SetOption applies additional options to an already-constructed
// Reader, e.g. toggling TrimText mid-stream.
func (r *Reader) SetOption(opts ...Option) {
	for _, o := range opts {
		o(&r.cfg)
	}
}

// SetExternalEntityResolver stores res on the Reader. The Reader never
// calls it and offers no accessor for it: a reference to a SYSTEM or
// PUBLIC entity in content is still reported as UnknownEntity, and the
// parser never dereferences external entities on its own.
func (r *Reader) SetExternalEntityResolver(res ExternalEntityResolver) {
	r.resolver = res
}

// Position reports the Reader's current position in the input, i.e. the
// position the next NextEvent call would start scanning from.
func (r *Reader) Position() Position { return r.tr.position() }

// Depth reports the current element nesting depth (0 at the prolog or
// epilog).
func (r *Reader) Depth() int { return len(r.stack) }

// ResolveNamespace resolves prefix against the namespace scopes
// currently in effect.
func (r *Reader) ResolveNamespace(prefix string) (string, bool) {
	return r.ns.resolve(prefix)
}

func (r *Reader) commit(newPos int) {
	r.tr.advance(r.source.Bytes()[r.pos:newPos])
	r.pos = newPos
}

func (r *Reader) fail(err error) (Event, error) {
	r.poisoned = true
	if ae, ok := err.(*Error); ok {
		r.poisonErr = ae
	} else {
		r.poisonErr = newError(KindMalformedTag, r.tr.position(), "%v", err)
	}
	return nil, r.poisonErr
}

// NextEvent returns the next Event in the document, or ErrIncomplete if
// the underlying ByteSource needs more bytes before one can be produced
// (the call may simply be retried once more bytes are fed). Any other
// error poisons the Reader: every subsequent NextEvent call returns the
// same error.
func (r *Reader) NextEvent() (Event, error) {
	if r.poisoned {
		return nil, r.poisonErr
	}

	ev, err := r.scanNext()
	if err != nil {
		if err == ErrIncomplete {
			return nil, ErrIncomplete
		}
		return r.fail(err)
	}

	if err := r.apply(ev); err != nil {
		return r.fail(err)
	}
	r.tokenCount++
	return ev, nil
}

// apply performs the structural bookkeeping that belongs to the Reader
// rather than the tokenizer: nesting stack, namespace scope stack, and
// the well-formedness invariants that span more than one token (one
// root element, balanced nesting, whitespace-only text in the prolog
// and epilog).
func (r *Reader) apply(ev Event) error {
	switch e := ev.(type) {
	case *DeclEvent:
		r.declSeen = true

	case *DocTypeEvent:
		r.doctypeSeen = true

	case *StartTagEvent:
		if r.rootEnded {
			return newError(KindMalformedTag, e.Pos(), "a document may have only one root element")
		}
		r.ns.push(scopeFromAttrs(e.Attrs))
		if len(r.stack) == 0 {
			if r.rootStarted {
				return newError(KindMalformedTag, e.Pos(), "a document may have only one root element")
			}
			r.rootStarted = true
		}
		r.stack = append(r.stack, e.Name.Full)

	case *EmptyTagEvent:
		if r.rootEnded {
			return newError(KindMalformedTag, e.Pos(), "a document may have only one root element")
		}
		r.ns.push(scopeFromAttrs(e.Attrs))
		r.ns.pop()
		if len(r.stack) == 0 {
			if r.rootStarted {
				return newError(KindMalformedTag, e.Pos(), "a document may have only one root element")
			}
			r.rootStarted = true
			r.rootEnded = true
		}

	case *EndTagEvent:
		if len(r.stack) == 0 {
			if r.cfg.checkEndNames && !r.cfg.allowUnmatchedEnds {
				return newError(KindMismatchedEnd, e.Pos(), "end tag %q has no matching start tag", e.Name.Full)
			}
			return nil
		}
		top := r.stack[len(r.stack)-1]
		if r.cfg.checkEndNames && top != e.Name.Full && !r.cfg.allowUnmatchedEnds {
			err := newError(KindMismatchedEnd, e.Pos(), "mismatched end tag: expected %q, found %q", top, e.Name.Full)
			err.Expected, err.Found = top, e.Name.Full
			return err
		}
		r.stack = r.stack[:len(r.stack)-1]
		r.ns.pop()
		if len(r.stack) == 0 {
			r.rootEnded = true
		}

	case *TextEvent:
		if len(r.stack) == 0 && !e.WhitespaceOnly {
			return newError(KindMalformedTag, e.Pos(), "non-whitespace text is not allowed outside the root element")
		}

	case EOFEvent:
		if len(r.stack) != 0 {
			return newError(KindUnexpectedEOF, e.Pos(), "document ended with %d unclosed element(s)", len(r.stack))
		}
		if !r.rootStarted {
			return newError(KindUnexpectedEOF, e.Pos(), "document has no root element")
		}
	}
	return nil
}

// ExternalEntityResolver looks up the bytes an external (SYSTEM or
// PUBLIC) entity reference names. The parser never calls this on its
// own; it exists for callers that choose to resolve external entities
// explicitly and feed the result back through a nested Reader.
type ExternalEntityResolver interface {
	ResolveExternal(name, systemID, publicID string) ([]byte, error)
}
