package xml

// nsScope is one level of the namespace stack: prefix ("" for the
// default namespace) -> URI, declared by the xmlns*/xmlns attributes of
// one StartTag.
type nsScope map[string]string

// namespaceStack tracks the prefix bindings in effect at the current
// nesting depth: one scope is pushed per StartTag (after its xmlns*
// attributes are scanned) and popped at the matching EndTag, or
// immediately for an EmptyTag.
type namespaceStack struct {
	scopes []nsScope
}

func newNamespaceStack() *namespaceStack {
	return &namespaceStack{}
}

func (s *namespaceStack) push(scope nsScope) { s.scopes = append(s.scopes, scope) }

func (s *namespaceStack) pop() {
	if len(s.scopes) > 0 {
		s.scopes = s.scopes[:len(s.scopes)-1]
	}
}

// resolve finds the URI bound to prefix, walking from the innermost
// scope outward. ok is false if no scope declares prefix.
func (s *namespaceStack) resolve(prefix string) (uri string, ok bool) {
	for i := len(s.scopes) - 1; i >= 0; i-- {
		if uri, ok = s.scopes[i][prefix]; ok {
			return uri, true
		}
	}
	return "", false
}

// depth reports the current scope-stack depth, equal to the nesting
// stack depth once namespaces mode is active.
func (s *namespaceStack) depth() int { return len(s.scopes) }

// scopeFromAttrs extracts the xmlns/xmlns:prefix declarations from an
// attribute list into the scope pushed for the tag that carries them,
// so the declaring tag's own names already resolve against it.
func scopeFromAttrs(attrs *Attributes) nsScope {
	scope := nsScope{}
	for _, a := range attrs.All() {
		switch {
		case a.Name.Full == "xmlns":
			scope[""] = a.Value
		case a.Name.Prefix() == "xmlns":
			scope[a.Name.Local()] = a.Value
		}
	}
	return scope
}
