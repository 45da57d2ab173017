package xml

// config holds the Reader's tunable behavior. defaultConfig is what a
// Reader gets before any Option is applied.
type config struct {
	strict             bool
	expandEntities     bool
	trimText           bool
	checkEndNames      bool
	allowUnmatchedEnds bool
}

func defaultConfig() config {
	return config{
		strict:             false,
		expandEntities:     true,
		trimText:           false,
		checkEndNames:      true,
		allowUnmatchedEnds: false,
	}
}

// Option configures a Reader. Options are applied in order, so later
// options override earlier ones.
type Option func(*config)

// Strict disables the tokenizer leniencies: a '<' not followed by a
// name-start character, an empty or oddly-shaped PI target, and a
// non-canonical Decl encoding attribute are all rejected instead of
// tolerated.
func Strict(strict bool) Option {
	return func(c *config) { c.strict = strict }
}

// ExpandEntities controls whether Text events have their entity and
// character references resolved. When false, Text payloads retain the
// raw "&name;"/"&#N;" source bytes and the entity table is never
// consulted for document content (DOCTYPE entity declarations are still
// collected, since that does not require a lookup).
func ExpandEntities(expand bool) Option {
	return func(c *config) { c.expandEntities = expand }
}

// TrimText strips leading/trailing XML whitespace from Text events. A
// Text event that becomes empty after trimming is suppressed entirely
// (NextEvent skips straight to the following event).
func TrimText(trim bool) Option {
	return func(c *config) { c.trimText = trim }
}

// CheckEndNames enables the nesting-stack well-formedness check: an
// EndTag's name must byte-equal the top of the stack.
func CheckEndNames(check bool) Option {
	return func(c *config) { c.checkEndNames = check }
}

// AllowUnmatchedEnds permits an EndTag whose name does not match the
// stack top to still be emitted as an event instead of raising
// MismatchedEnd. It only has an effect when CheckEndNames is enabled.
func AllowUnmatchedEnds(allow bool) Option {
	return func(c *config) { c.allowUnmatchedEnds = allow }
}
