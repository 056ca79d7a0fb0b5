// Command bjson encodes text documents into binary documents and inspects
// binary documents.
//
// Usage:
//
//	bjson encode [-config file] [-o out] input
//	bjson batch [-config file] -out dir inputs|dirs...
//	bjson dump [-config file] [-json] file
//	bjson get -key key [-type auto|string|i32|u32] file
//	bjson prefixes
//
// Every subcommand also accepts -log_level (debug, info, warning, error).
//
// The exit status is 0 on success, 2 for a bad command line, 3 when get
// finds no such key, 4 for input that cannot be encoded, 5 for a file that
// is not a valid document and 1 for any other failure.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/MikhailWahib/bjson/internal/batch"
	"github.com/MikhailWahib/bjson/internal/codec"
	"github.com/MikhailWahib/bjson/internal/config"
	"github.com/MikhailWahib/bjson/internal/derrors"
	"github.com/MikhailWahib/bjson/internal/diskmanager"
	"github.com/MikhailWahib/bjson/internal/docfile"
	"github.com/MikhailWahib/bjson/internal/document"
	"github.com/MikhailWahib/bjson/internal/dump"
	"github.com/MikhailWahib/bjson/internal/log"
	"github.com/MikhailWahib/bjson/internal/record"
	"github.com/MikhailWahib/bjson/internal/schema"
)

// errUsage is returned for bad command lines; the usage text has already
// been printed.
var errUsage = errors.New("usage")

type command struct {
	name  string
	usage string
	run   func(ctx context.Context, fs *flag.FlagSet, args []string, stdout io.Writer) error
}

var commands = []command{
	{"encode", "[-config file] [-o out] input", runEncode},
	{"batch", "[-config file] -out dir inputs|dirs...", runBatch},
	{"dump", "[-config file] [-json] file", runDump},
	{"get", "-key key [-type auto|string|i32|u32] file", runGet},
	{"prefixes", "", runPrefixes},
}

func usage(w io.Writer) {
	fmt.Fprintf(w, "usage: bjson <command> [flags] [args]\n\ncommands:\n")
	for _, c := range commands {
		fmt.Fprintf(w, "  %-9s %s\n", c.name, c.usage)
	}
}

func main() {
	err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr)
	switch code := exitCode(err); code {
	case 0:
	case 1:
		log.Fatalf("%v", err)
	default:
		if !errors.Is(err, errUsage) {
			log.Errorf("%v", err)
		}
		os.Exit(code)
	}
}

// exitCode maps the error returned by run to the process exit status.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	if errors.Is(err, errUsage) {
		return 2
	}
	switch derrors.Kind(err) {
	case derrors.NotFound:
		return 3
	case derrors.SyntaxError, derrors.TypeOrRange, derrors.BufferTooSmall, derrors.InvalidArgument:
		return 4
	case derrors.BadMagic, derrors.Truncated:
		return 5
	default:
		return 1
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		usage(stderr)
		return errUsage
	}
	for _, c := range commands {
		if c.name != args[0] {
			continue
		}
		fs := flag.NewFlagSet("bjson "+c.name, flag.ContinueOnError)
		fs.SetOutput(stderr)
		fs.Usage = func() {
			fmt.Fprintf(stderr, "usage: bjson %s %s\n", c.name, c.usage)
			fs.PrintDefaults()
		}
		return c.run(ctx, fs, args[1:], stdout)
	}
	fmt.Fprintf(stderr, "bjson: unknown command %q\n", args[0])
	usage(stderr)
	return errUsage
}

// parse registers the flags shared by every command, parses args and applies
// the log level. It returns the loaded configuration.
func parse(fs *flag.FlagSet, args []string, nargs int) (*config.Config, error) {
	configPath := fs.String("config", "", "path to a YAML config file")
	logLevel := fs.String("log_level", "info", "minimum log level: debug, info, warning or error")
	if err := fs.Parse(args); err != nil {
		return nil, errUsage
	}
	if (nargs >= 0 && fs.NArg() != nargs) || (nargs < 0 && fs.NArg() == 0) {
		fs.Usage()
		return nil, errUsage
	}
	level, err := log.ParseLevel(*logLevel)
	if err != nil {
		return nil, err
	}
	log.SetLevel(level)
	if *configPath == "" {
		return config.DefaultConfig(), nil
	}
	return config.Load(*configPath)
}

func runEncode(ctx context.Context, fs *flag.FlagSet, args []string, stdout io.Writer) error {
	out := fs.String("o", "", "output path (default: input with its extension replaced by "+docfile.Ext+")")
	cfg, err := parse(fs, args, 1)
	if err != nil {
		return err
	}
	input := fs.Arg(0)
	if *out == "" {
		*out = batch.OutputPath(input, filepath.Dir(input))
	}

	dm := diskmanager.NewDiskManager()
	text, err := docfile.ReadText(ctx, dm, input)
	if err != nil {
		return err
	}
	log.Debugf("read %d bytes from %s", len(text), input)
	buf, err := codec.New(cfg).Marshal(text)
	if err != nil {
		return err
	}
	if err := docfile.Write(ctx, dm, *out, buf); err != nil {
		return err
	}
	log.Infof("encoded size = %d bytes", len(buf))
	fmt.Fprintf(stdout, "%s: %d bytes\n", *out, len(buf))
	return nil
}

func runBatch(ctx context.Context, fs *flag.FlagSet, args []string, stdout io.Writer) error {
	outDir := fs.String("out", "", "output directory (required)")
	cfg, err := parse(fs, args, -1)
	if err != nil {
		return err
	}
	if *outDir == "" {
		fs.Usage()
		return errUsage
	}
	if err := os.MkdirAll(*outDir, 0755); err != nil {
		return err
	}

	dm := diskmanager.NewDiskManager()
	inputs := batch.ExpandInputs(dm, fs.Args())
	if len(inputs) == 0 {
		return fmt.Errorf("no %s files in %v: %w", batch.TextExt, fs.Args(), derrors.InvalidArgument)
	}
	results, err := batch.EncodeFiles(ctx, dm, cfg, inputs, *outDir)
	for _, r := range results {
		if r.Err == nil {
			fmt.Fprintf(stdout, "%s: %d bytes\n", r.Output, r.Size)
		}
	}
	if err != nil {
		return fmt.Errorf("%d of %d files failed: %w", failed(results), len(results), err)
	}
	return nil
}

func failed(results []batch.Result) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}

func runDump(ctx context.Context, fs *flag.FlagSet, args []string, stdout io.Writer) error {
	fromText := fs.Bool("json", false, "treat the input as text and encode it before dumping")
	cfg, err := parse(fs, args, 1)
	if err != nil {
		return err
	}

	dm := diskmanager.NewDiskManager()
	var buf []byte
	if *fromText {
		text, err := docfile.ReadText(ctx, dm, fs.Arg(0))
		if err != nil {
			return err
		}
		if buf, err = codec.New(cfg).Marshal(text); err != nil {
			return err
		}
		log.Infof("encoded size = %d bytes", len(buf))
	} else {
		doc, err := docfile.Read(ctx, dm, fs.Arg(0))
		if err != nil {
			return err
		}
		buf = doc.Bytes()
	}
	return dump.Document(stdout, buf, dump.Options{ValueLimit: cfg.DumpValueLimit})
}

func runGet(ctx context.Context, fs *flag.FlagSet, args []string, stdout io.Writer) error {
	key := fs.String("key", "", "key to look up (required)")
	typ := fs.String("type", "auto", "accessor: auto, string, i32 or u32")
	if _, err := parse(fs, args, 1); err != nil {
		return err
	}
	switch {
	case *key == "":
		fs.Usage()
		return errUsage
	case *typ != "auto" && *typ != "string" && *typ != "i32" && *typ != "u32":
		fmt.Fprintf(fs.Output(), "bjson get: unknown type %q\n", *typ)
		fs.Usage()
		return errUsage
	}

	doc, err := docfile.Read(ctx, diskmanager.NewDiskManager(), fs.Arg(0))
	if err != nil {
		return err
	}
	var v any
	switch *typ {
	case "auto":
		v, err = lookup(doc, *key)
	case "string":
		var s []byte
		s, err = doc.GetString(*key)
		v = string(s)
	case "i32":
		v, err = doc.GetI32(*key)
	case "u32":
		v, err = doc.GetU32(*key)
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, v)
	return nil
}

// lookup returns the value of key as a string or an int64, whichever its
// stored type is.
func lookup(doc *document.Document, key string) (_ any, err error) {
	defer derrors.Wrap(&err, "lookup(%q)", key)
	e, ok := doc.FindString(key)
	if !ok {
		return nil, derrors.NotFound
	}
	if e.Type == record.TypeString {
		return string(e.Value), nil
	}
	return e.Int()
}

func runPrefixes(_ context.Context, fs *flag.FlagSet, args []string, stdout io.Writer) error {
	if _, err := parse(fs, args, 0); err != nil {
		return err
	}
	for _, p := range schema.Prefixes() {
		c, err := schema.Classify([]byte(p))
		if err != nil {
			return err
		}
		if c.Type == record.TypeString {
			fmt.Fprintf(stdout, "%-9s %s, at most %d bytes\n", p, c.Type, c.MaxLen)
		} else {
			fmt.Fprintf(stdout, "%-9s %s\n", p, c.Type)
		}
	}
	return nil
}
