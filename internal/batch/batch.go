// Package batch encodes many text files concurrently.
package batch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/MikhailWahib/bjson/internal/codec"
	"github.com/MikhailWahib/bjson/internal/config"
	"github.com/MikhailWahib/bjson/internal/derrors"
	"github.com/MikhailWahib/bjson/internal/diskmanager"
	"github.com/MikhailWahib/bjson/internal/docfile"
	"github.com/MikhailWahib/bjson/internal/log"
	"golang.org/x/sync/errgroup"
)

// Result is the outcome of encoding one input file.
type Result struct {
	Input  string
	Output string
	// Size is the encoded size in bytes.
	Size int
	Err  error
}

// TextExt is the extension of the text files picked up from a directory.
const TextExt = ".json"

// OutputPath returns the document path for input inside outDir: the base
// name of input with its extension replaced by docfile.Ext.
func OutputPath(input, outDir string) string {
	base := filepath.Base(input)
	return filepath.Join(outDir, strings.TrimSuffix(base, filepath.Ext(base))+docfile.Ext)
}

// ExpandInputs replaces every directory in paths with the TextExt files it
// contains, in name order. Paths that cannot be listed are kept as they are.
func ExpandInputs(dm diskmanager.DiskManager, paths []string) []string {
	var inputs []string
	for _, p := range paths {
		names, err := dm.List(p, TextExt)
		if err != nil {
			inputs = append(inputs, p)
			continue
		}
		for _, name := range names {
			if filepath.Ext(name) == TextExt {
				inputs = append(inputs, filepath.Join(p, name))
			}
		}
	}
	return inputs
}

// EncodeFiles encodes every input file into a document in outDir. At most
// cfg.Workers files are processed at once, each with its own arena.
//
// A file that fails to encode does not stop the others; its Result carries
// the error and the returned error joins all failures. Results are in input
// order. Canceling ctx stops files that have not started yet.
//
// An input listed more than once is encoded once. Distinct inputs that map
// to the same output path all fail with derrors.InvalidArgument and none of
// them is written.
func EncodeFiles(ctx context.Context, dm diskmanager.DiskManager, cfg *config.Config, inputs []string, outDir string) (_ []Result, err error) {
	defer derrors.Wrap(&err, "batch.EncodeFiles(%d files, %q)", len(inputs), outDir)

	c := codec.New(cfg)
	cc := c.Config()
	results := make([]Result, len(inputs))
	jobs := plan(inputs, outDir, results)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cc.Workers)
	for i, first := range jobs {
		if first != i {
			continue
		}
		g.Go(func() error {
			results[i] = encodeFile(gctx, dm, c, inputs[i], results[i].Output)
			return nil
		})
	}
	// Workers never fail the group; per-file errors are in results.
	_ = g.Wait()

	var errs []error
	for i, first := range jobs {
		if first >= 0 && first != i {
			results[i] = results[first]
			results[i].Input = inputs[i]
			continue
		}
		if results[i].Err != nil {
			errs = append(errs, results[i].Err)
		}
	}
	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, errors.Join(errs...)
}

// plan fills in the output path of every result and returns, for each
// input, the index of the first occurrence of the same input, or -1 if the
// input must not be encoded. Colliding inputs get their error recorded in
// results.
func plan(inputs []string, outDir string, results []Result) []int {
	jobs := make([]int, len(inputs))
	first := make(map[string]int)
	owners := make(map[string][]string)
	for i, input := range inputs {
		out := OutputPath(input, outDir)
		results[i] = Result{Input: input, Output: out}
		key := filepath.Clean(input)
		if j, ok := first[key]; ok {
			jobs[i] = j
			continue
		}
		first[key] = i
		jobs[i] = i
		owners[out] = append(owners[out], key)
	}
	for i, input := range inputs {
		out := results[i].Output
		if len(owners[out]) < 2 {
			continue
		}
		jobs[i] = -1
		results[i].Err = fmt.Errorf("%s: output %s is shared with %s: %w",
			input, out, strings.Join(others(owners[out], filepath.Clean(input)), ", "), derrors.InvalidArgument)
		log.Errorf("batch: %v", results[i].Err)
	}
	return jobs
}

func others(inputs []string, self string) []string {
	var out []string
	for _, in := range inputs {
		if in != self {
			out = append(out, in)
		}
	}
	return out
}

func encodeFile(ctx context.Context, dm diskmanager.DiskManager, c *codec.Codec, input, output string) Result {
	r := Result{Input: input, Output: output}
	r.Size, r.Err = func() (int, error) {
		text, err := docfile.ReadText(ctx, dm, input)
		if err != nil {
			return 0, err
		}
		buf, err := c.Marshal(text)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", input, err)
		}
		if err := docfile.Write(ctx, dm, output, buf); err != nil {
			return 0, err
		}
		return len(buf), nil
	}()
	if r.Err != nil {
		log.Errorf("batch: %v", r.Err)
		return r
	}
	log.Debugf("batch: %s -> %s (%d bytes)", input, output, r.Size)
	return r
}
