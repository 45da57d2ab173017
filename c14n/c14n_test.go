package c14n_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/brennanwhit/xmlpull/c14n"
	"github.com/brennanwhit/xmlpull/xml"
)

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		out  string
	}{
		{
			name: "plain nesting passes through",
			in:   "<foo><bar>baz</bar></foo>",
			out:  "<foo><bar>baz</bar></foo>",
		},
		{
			name: "empty tag expands to start/end pair",
			in:   "<foo/>",
			out:  "<foo></foo>",
		},
		{
			name: "attributes sort by name",
			in:   `<foo b="2" a="1"/>`,
			out:  `<foo a="1" b="2"></foo>`,
		},
		{
			name: "unused namespace declaration pushed down to first use",
			in:   `<foo xmlns:a="urn:a"><a:bar>x</a:bar></foo>`,
			out:  `<foo><a:bar xmlns:a="urn:a">x</a:bar></foo>`,
		},
		{
			name: "default namespace rendered once",
			in:   `<foo xmlns="urn:f"><bar>x</bar></foo>`,
			out:  `<foo xmlns="urn:f"><bar>x</bar></foo>`,
		},
		{
			name: "namespace node sorts before ordinary attributes",
			in:   `<a:foo xmlns:a="urn:a" z="1"/>`,
			out:  `<a:foo xmlns:a="urn:a" z="1"></a:foo>`,
		},
		{
			name: "text escaping",
			in:   "<a>1 &lt; 2 &amp; 3</a>",
			out:  "<a>1 &lt; 2 &amp; 3</a>",
		},
		{
			name: "carriage return from character reference stays escaped",
			in:   "<a>x&#xD;y</a>",
			out:  "<a>x&#xD;y</a>",
		},
		{
			name: "attribute value escaping",
			in:   `<a b="x&quot;y&amp;z"/>`,
			out:  `<a b="x&quot;y&amp;z"></a>`,
		},
		{
			name: "cdata replaced by escaped character content",
			in:   "<a><![CDATA[<&>]]></a>",
			out:  "<a>&lt;&amp;&gt;</a>",
		},
		{
			name: "comments dropped",
			in:   "<a><!-- hi -->x</a>",
			out:  "<a>x</a>",
		},
		{
			name: "declaration and prolog skipped",
			in:   "<?xml version=\"1.0\"?>\n<a>x</a>",
			out:  "<a>x</a>",
		},
		{
			name: "processing instruction inside root kept",
			in:   "<a><?target data?></a>",
			out:  "<a><?target data?></a>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actual, err := c14n.Canonicalize(xml.NewReaderString(tt.in))
			assert.NoError(t, err)
			assert.Equal(t, tt.out, string(actual))
		})
	}
}

func TestCanonicalize_NoStartElement(t *testing.T) {
	_, err := c14n.Canonicalize(xml.NewReaderString("<!-- foo -->"))
	assert.Error(t, err)
}
