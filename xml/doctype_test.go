package xml

import (
	"errors"
	"strings"
	"testing"
)

func firstDoctype(t *testing.T, input string) *DocTypeEvent {
	t.Helper()
	r := NewReaderString(input)
	ev, err := r.NextEvent()
	if err != nil {
		t.Fatalf("parse %q: %v", input, err)
	}
	dt, ok := ev.(*DocTypeEvent)
	if !ok {
		t.Fatalf("first event is %T, want *DocTypeEvent", ev)
	}
	return dt
}

func TestDoctypePayload(t *testing.T) {
	tests := []struct {
		name  string
		input string
		body  string
	}{
		{
			name:  "bare name",
			input: `<!DOCTYPE greeting><greeting/>`,
			body:  "greeting",
		},
		{
			name:  "system identifier",
			input: `<!DOCTYPE r SYSTEM "r.dtd"><r/>`,
			body:  `r SYSTEM "r.dtd"`,
		},
		{
			name:  "public identifier",
			input: `<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.0//EN" "xhtml1.dtd"><html/>`,
			body:  `html PUBLIC "-//W3C//DTD XHTML 1.0//EN" "xhtml1.dtd"`,
		},
		{
			name:  "internal subset included verbatim",
			input: `<!DOCTYPE r [<!ENTITY g "X">]><r/>`,
			body:  `r [<!ENTITY g "X">]`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dt := firstDoctype(t, tt.input)
			if dt.Body != tt.body {
				t.Errorf("got %q, want %q", dt.Body, tt.body)
			}
		})
	}
}

func TestDoctypeBalancing(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{
			name:  "bracket inside quoted entity value",
			input: `<!DOCTYPE r [<!ENTITY e "a]b">]><r/>`,
		},
		{
			name:  "gt inside quoted entity value",
			input: `<!DOCTYPE r [<!ENTITY e "a>b">]><r/>`,
		},
		{
			name:  "comment with gt inside subset",
			input: `<!DOCTYPE r [<!-- > not the end -->]><r/>`,
		},
		{
			name:  "pi inside subset",
			input: `<!DOCTYPE r [<?keep going?>]><r/>`,
		},
		{
			name:  "element and attlist declarations skipped",
			input: `<!DOCTYPE r [<!ELEMENT r (#PCDATA)><!ATTLIST r a CDATA #IMPLIED>]><r/>`,
		},
		{
			name:  "notation declaration skipped",
			input: `<!DOCTYPE r [<!NOTATION gif SYSTEM "viewer">]><r/>`,
		},
		{
			name:  "parameter entity reference balanced not expanded",
			input: `<!DOCTYPE r [<!ENTITY % pe "ignored">%pe;]><r/>`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := drain(NewReaderString(tt.input)); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestDoctypeEntityValueDecoding(t *testing.T) {
	// Character references in an entity value are expanded at declaration
	// time; general-entity references are bypassed and re-scanned at use.
	input := `<!DOCTYPE r [<!ENTITY b "B"><!ENTITY a "x&#65;&b;">]><r>&a;</r>`
	got, err := drain(NewReaderString(input))
	if err != nil {
		t.Fatal(err)
	}
	if got[2] != "text:xAB" {
		t.Errorf("got %q, want text:xAB", got[2])
	}
}

func TestDoctypeParameterEntityNotDeclared(t *testing.T) {
	// A parameter entity must not become referenceable as a general
	// entity.
	input := `<!DOCTYPE r [<!ENTITY % pe "val">]><r>&pe;</r>`
	_, err := drain(NewReaderString(input))
	var pe *Error
	if !errors.As(err, &pe) || pe.Kind != KindUnknownEntity {
		t.Fatalf("got %v, want UnknownEntity", err)
	}
}

func TestDoctypeExternalEntityMarker(t *testing.T) {
	dt := firstDoctype(t, `<!DOCTYPE r [<!ENTITY pic SYSTEM "pic.svg">]><r/>`)
	if !strings.Contains(dt.Body, "SYSTEM") {
		t.Errorf("body lost the external declaration: %q", dt.Body)
	}
}

func TestDoctypeErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		kind  ErrorKind
	}{
		{"unterminated doctype", `<!DOCTYPE r [`, KindUnexpectedEOF},
		{"unterminated subset string", `<!DOCTYPE r [<!ENTITY e "oops]><r/>`, KindUnexpectedEOF},
		{"entity without name", `<!DOCTYPE r [<!ENTITY >]><r/>`, KindDoctypeError},
		{"entity without value", `<!DOCTYPE r [<!ENTITY e >]><r/>`, KindDoctypeError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := drain(NewReaderString(tt.input))
			var pe *Error
			if !errors.As(err, &pe) || pe.Kind != tt.kind {
				t.Fatalf("got %v, want %v", err, tt.kind)
			}
		})
	}
}
