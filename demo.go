package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/brennanwhit/xmlpull/c14n"
	"github.com/brennanwhit/xmlpull/doc"
	"github.com/brennanwhit/xmlpull/xml"
)

// demoRegistry binds each "demo [name]" argument to its runner.
var demoRegistry = map[string]func(){
	"basic":    demoBasicEvents,
	"entities": demoEntities,
	"doctype":  demoDoctype,
	"lenient":  demoLenient,
	"stream":   demoStreaming,
	"tree":     demoTree,
	"c14n":     demoC14N,
}

// demoSequence runs the demos in a stable, didactic order rather than
// map iteration order.
var demoSequence = []string{
	"basic", "entities", "doctype", "lenient", "stream", "tree", "c14n",
}

// RunDemos is the dispatcher main() calls for the "demo" subcommand.
func RunDemos(arg string) {
	if arg == "all" || arg == "" {
		for _, name := range demoSequence {
			printDemoHeader(name)
			demoRegistry[name]()
		}
		return
	}
	fn, exists := demoRegistry[arg]
	if !exists {
		slog.Error("demo not found", "name", arg, "available", demoSequence)
		return
	}
	printDemoHeader(arg)
	fn()
}

func printDemoHeader(name string) {
	fmt.Printf("\n>>> Demo: [%s] <<<\n", strings.ToUpper(name))
	fmt.Println(strings.Repeat("-", 40))
}

func dumpAll(r *xml.Reader) {
	for {
		ev, err := r.NextEvent()
		if err != nil {
			fmt.Printf("  error: %v\n", err)
			return
		}
		printEvent(ev)
		if ev.Kind() == xml.KindEOF {
			return
		}
	}
}

func demoBasicEvents() {
	fmt.Println("Pull events from a small document.")
	input := `<?xml version="1.0" encoding="UTF-8"?>
<library><book id="1">The Little Prince</book><shelf/></library>`
	dumpAll(xml.NewReaderString(input))
}

func demoEntities() {
	fmt.Println("Built-in entities and character references expand in text and attributes.")
	input := `<p title="a&amp;b">&lt;&#65;&#x42;&gt;</p>`
	dumpAll(xml.NewReaderString(input))

	fmt.Println("With ExpandEntities(false) the raw references survive:")
	dumpAll(xml.NewReaderString(input, xml.ExpandEntities(false)))
}

func demoDoctype() {
	fmt.Println("General entities declared in the internal subset resolve in content.")
	input := `<!DOCTYPE r [<!ENTITY greeting "hello">]><r>&greeting; world</r>`
	dumpAll(xml.NewReaderString(input))
}

func demoLenient() {
	fmt.Println("Lenient mode (default) treats a stray '<' as literal text.")
	input := `<math>1 < 2</math>`
	dumpAll(xml.NewReaderString(input))

	fmt.Println("Strict mode rejects it:")
	dumpAll(xml.NewReaderString(input, xml.Strict(true)))
}

func demoStreaming() {
	fmt.Println("An incrementally fed source reports Incomplete until bytes arrive.")
	src := xml.NewStreamSource()
	r := xml.NewReaderSource(src)

	chunks := []string{"<doc><item>fir", "st</item><item>second</i", "tem></doc>"}
	for _, chunk := range chunks {
		for {
			ev, err := r.NextEvent()
			if err == xml.ErrIncomplete {
				fmt.Printf("  need more data, feeding %q\n", chunk)
				break
			}
			if err != nil {
				fmt.Printf("  error: %v\n", err)
				return
			}
			printEvent(ev)
		}
		src.Feed([]byte(chunk))
	}
	src.Close()
	dumpAll(r)
}

func demoTree() {
	fmt.Println("CollectTree turns the event stream into an ordered document tree.")
	input := `<invoice id="42"><customer>ACME</customer><total currency="EUR">99.50</total></invoice>`
	tree, err := doc.CollectTree(xml.NewReaderString(input))
	if err != nil {
		slog.Error("collect failed", "err", err)
		return
	}
	fmt.Println(tree.Dump())
	fmt.Printf("customer: %v\n", tree.GetPath("invoice/customer"))
	fmt.Printf("currency: %v\n", tree.GetPath("invoice/total/@currency"))
}

func demoC14N() {
	fmt.Println("Exclusive canonicalization sorts attributes and prunes unused namespaces.")
	input := `<foo xmlns:a="urn:a" b="2" a="1"><a:bar>x</a:bar></foo>`
	out, err := c14n.Canonicalize(xml.NewReaderString(input))
	if err != nil {
		slog.Error("canonicalize failed", "err", err)
		return
	}
	fmt.Printf("in : %s\nout: %s\n", input, out)
}
