package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/brennanwhit/xmlpull/c14n"
	"github.com/brennanwhit/xmlpull/doc"
	"github.com/brennanwhit/xmlpull/xml"
)

func main() {
	if len(os.Args) < 2 {
		printHelp()
		os.Exit(0)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "dump":
		cliDump(args)
	case "tree":
		cliTree(args)
	case "c14n":
		cliC14N(args)
	case "demo":
		target := "all"
		if len(args) > 0 {
			target = args[0]
		}
		RunDemos(target)
	default:
		slog.Error("unknown command", "command", command)
		printHelp()
		os.Exit(1)
	}
}

func openInput(args []string) *xml.Reader {
	if len(args) < 1 {
		slog.Error("missing input file argument")
		os.Exit(1)
	}
	f, err := os.Open(args[0])
	if err != nil {
		slog.Error("cannot open input", "path", args[0], "err", err)
		os.Exit(1)
	}
	defer f.Close()
	r, err := xml.NewReader(f)
	if err != nil {
		slog.Error("cannot read input", "path", args[0], "err", err)
		os.Exit(1)
	}
	return r
}

// cliDump prints the raw event stream, one event per line.
func cliDump(args []string) {
	r := openInput(args)
	for {
		ev, err := r.NextEvent()
		if err != nil {
			slog.Error("parse error", "err", err)
			os.Exit(1)
		}
		printEvent(ev)
		if ev.Kind() == xml.KindEOF {
			return
		}
	}
}

func printEvent(ev xml.Event) {
	pos := ev.Pos()
	prefix := fmt.Sprintf("%5d:%-3d %-8s", pos.Line, pos.Col, ev.Kind())
	switch e := ev.(type) {
	case *xml.StartTagEvent:
		fmt.Printf("%s <%s> attrs=%d\n", prefix, e.Name, e.Attrs.Len())
	case *xml.EmptyTagEvent:
		fmt.Printf("%s <%s/> attrs=%d\n", prefix, e.Name, e.Attrs.Len())
	case *xml.EndTagEvent:
		fmt.Printf("%s </%s>\n", prefix, e.Name)
	case *xml.TextEvent:
		fmt.Printf("%s %q ws=%v\n", prefix, e.Text, e.WhitespaceOnly)
	case *xml.CDataEvent:
		fmt.Printf("%s %q\n", prefix, e.Text)
	case *xml.CommentEvent:
		fmt.Printf("%s %q\n", prefix, e.Text)
	case *xml.PIEvent:
		fmt.Printf("%s target=%s data=%q\n", prefix, e.Target, e.Data)
	case *xml.DeclEvent:
		fmt.Printf("%s version=%s encoding=%s standalone=%s\n", prefix, e.Version, e.Encoding, e.Standalone)
	case *xml.DocTypeEvent:
		fmt.Printf("%s %q\n", prefix, e.Body)
	default:
		fmt.Println(prefix)
	}
}

// cliTree collects the document into an ordered tree and prints it as
// indented JSON.
func cliTree(args []string) {
	tree, err := doc.CollectTree(openInput(args))
	if err != nil {
		slog.Error("parse error", "err", err)
		os.Exit(1)
	}
	fmt.Println(tree.Dump())
}

// cliC14N writes the exclusive canonical form of the document to stdout.
func cliC14N(args []string) {
	out, err := c14n.Canonicalize(openInput(args))
	if err != nil {
		slog.Error("canonicalization error", "err", err)
		os.Exit(1)
	}
	os.Stdout.Write(out)
}

func printHelp() {
	fmt.Println("xmlpull - streaming XML pull parser")
	fmt.Println("Usage: xmlpull [command] [arguments]")
	fmt.Println("\nCommands:")
	fmt.Println("  dump  <file>   : Print the event stream, one event per line")
	fmt.Println("  tree  <file>   : Collect the document into a tree and print it as JSON")
	fmt.Println("  c14n  <file>   : Write the exclusive canonical form to stdout")
	fmt.Println("  demo           : Run all built-in demos")
	fmt.Println("  demo [name]    : Run one specific demo")
}
