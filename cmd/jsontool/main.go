// Command jsontool parses, serializes, queries, and patches JSON documents.
//
// Stable ABI:
//
//	jsontool parse     [--indent] [file|-]
//	jsontool minify    [file|-]
//	jsontool get       <pointer> [file|-]
//	jsontool patch     <patch-file> [file|-]
//	jsontool diff      <file-a> <file-b>
//	jsontool merge     <patch-file> [file|-]
//	jsontool mergediff <file-a> <file-b>
//	jsontool --help
//	jsontool --version
//
// Exit codes come from jsonerr.FailureClass.ExitCode(): 0 on success, 2 for
// CLI usage errors, 1 for document-level failures (syntax errors, missing
// paths, failed "test" operations, and the like), 10 for internal/IO
// failures.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/corvid-labs/jsontree/jsonerr"
	"github.com/corvid-labs/jsontree/jsonmerge"
	"github.com/corvid-labs/jsontree/jsonmin"
	"github.com/corvid-labs/jsontree/jsonparse"
	"github.com/corvid-labs/jsontree/jsonpatch"
	"github.com/corvid-labs/jsontree/jsonptr"
	"github.com/corvid-labs/jsontree/jsonval"
	"github.com/corvid-labs/jsontree/jsonwrite"
)

const defaultMaxInputSize = 64 << 20

var version = "v0.0.0-dev"

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 1 {
		switch args[0] {
		case "--help", "-h":
			_ = writeGlobalHelp(stdout)
			return 0
		case "--version":
			_ = writeLine(stdout, "jsontool "+version)
			return 0
		}
	}

	if len(args) == 0 {
		_ = writeGlobalHelp(stderr)
		return jsonerr.CLIUsage.ExitCode()
	}

	switch args[0] {
	case "parse":
		return cmdParse(args[1:], stdin, stdout, stderr)
	case "minify":
		return cmdMinify(args[1:], stdin, stdout, stderr)
	case "get":
		return cmdGet(args[1:], stdin, stdout, stderr)
	case "patch":
		return cmdPatch(args[1:], stdin, stdout, stderr)
	case "diff":
		return cmdDiff(args[1:], stdout, stderr)
	case "merge":
		return cmdMerge(args[1:], stdin, stdout, stderr)
	case "mergediff":
		return cmdMergeDiff(args[1:], stdout, stderr)
	default:
		_ = writef(stderr, "unknown command: %s\n", args[0])
		_ = writeGlobalHelp(stderr)
		return jsonerr.CLIUsage.ExitCode()
	}
}

type flags struct {
	indent bool
	fold   bool
}

func parseFlags(args []string) (flags, []string, error) {
	var f flags
	var positional []string
	consumeAsPositional := false
	for _, arg := range args {
		if consumeAsPositional {
			positional = append(positional, arg)
			continue
		}
		switch arg {
		case "--indent":
			f.indent = true
		case "--fold":
			f.fold = true
		case "--":
			consumeAsPositional = true
		case "-":
			positional = append(positional, arg)
		default:
			if strings.HasPrefix(arg, "-") {
				return flags{}, nil, fmt.Errorf("unknown option: %s", arg)
			}
			positional = append(positional, arg)
		}
	}
	return f, positional, nil
}

func cmdParse(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fl, positional, err := parseFlags(args)
	if err != nil {
		return writeErrorAndReturn(stderr, jsonerr.CLIUsage.ExitCode(), "error: %v\n", err)
	}
	if exitCode, bad := ensureSingleInput(positional, stderr); bad {
		return exitCode
	}
	input, err := readInput(positional, stdin)
	if err != nil {
		return writeClassifiedError(stderr, err)
	}
	v, err := jsonparse.Parse(input)
	if err != nil {
		return writeClassifiedError(stderr, err)
	}
	format := jsonwrite.Compact
	if fl.indent {
		format = jsonwrite.Indented
	}
	out, err := jsonwrite.Write(v, format)
	if err != nil {
		return writeClassifiedError(stderr, err)
	}
	return writeResult(stdout, stderr, out)
}

func cmdMinify(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	_, positional, err := parseFlags(args)
	if err != nil {
		return writeErrorAndReturn(stderr, jsonerr.CLIUsage.ExitCode(), "error: %v\n", err)
	}
	if exitCode, bad := ensureSingleInput(positional, stderr); bad {
		return exitCode
	}
	input, err := readInput(positional, stdin)
	if err != nil {
		return writeClassifiedError(stderr, err)
	}
	out, err := jsonmin.Minify(input)
	if err != nil {
		return writeClassifiedError(stderr, err)
	}
	return writeResult(stdout, stderr, out)
}

func cmdGet(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fl, positional, err := parseFlags(args)
	if err != nil {
		return writeErrorAndReturn(stderr, jsonerr.CLIUsage.ExitCode(), "error: %v\n", err)
	}
	if len(positional) == 0 {
		return writeErrorAndReturn(stderr, jsonerr.CLIUsage.ExitCode(), "error: get requires a json pointer argument\n")
	}
	pointerArg := positional[0]
	rest := positional[1:]
	if exitCode, bad := ensureSingleInput(rest, stderr); bad {
		return exitCode
	}
	input, err := readInput(rest, stdin)
	if err != nil {
		return writeClassifiedError(stderr, err)
	}
	doc, err := jsonparse.Parse(input)
	if err != nil {
		return writeClassifiedError(stderr, err)
	}
	p, err := jsonptr.Parse(pointerArg)
	if err != nil {
		return writeClassifiedError(stderr, err)
	}
	var found *jsonval.Value
	if fl.fold {
		found, err = jsonptr.ResolveFold(doc, p)
	} else {
		found, err = jsonptr.Resolve(doc, p)
	}
	if err != nil {
		return writeClassifiedError(stderr, err)
	}
	out, err := jsonwrite.Write(found, jsonwrite.Compact)
	if err != nil {
		return writeClassifiedError(stderr, err)
	}
	return writeResult(stdout, stderr, out)
}

func cmdPatch(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	_, positional, err := parseFlags(args)
	if err != nil {
		return writeErrorAndReturn(stderr, jsonerr.CLIUsage.ExitCode(), "error: %v\n", err)
	}
	if len(positional) == 0 {
		return writeErrorAndReturn(stderr, jsonerr.CLIUsage.ExitCode(), "error: patch requires a patch-file argument\n")
	}
	patchPath := positional[0]
	rest := positional[1:]
	if exitCode, bad := ensureSingleInput(rest, stderr); bad {
		return exitCode
	}
	patchData, err := readFile(patchPath)
	if err != nil {
		return writeClassifiedError(stderr, err)
	}
	patchDoc, err := jsonparse.Parse(patchData)
	if err != nil {
		return writeClassifiedError(stderr, err)
	}
	patch, err := jsonpatch.ParsePatch(patchDoc)
	if err != nil {
		return writeClassifiedError(stderr, err)
	}
	input, err := readInput(rest, stdin)
	if err != nil {
		return writeClassifiedError(stderr, err)
	}
	doc, err := jsonparse.Parse(input)
	if err != nil {
		return writeClassifiedError(stderr, err)
	}
	result, err := jsonpatch.Apply(doc, patch)
	if err != nil {
		return writeClassifiedError(stderr, err)
	}
	out, err := jsonwrite.Write(result, jsonwrite.Compact)
	if err != nil {
		return writeClassifiedError(stderr, err)
	}
	return writeResult(stdout, stderr, out)
}

func cmdDiff(args []string, stdout, stderr io.Writer) int {
	_, positional, err := parseFlags(args)
	if err != nil {
		return writeErrorAndReturn(stderr, jsonerr.CLIUsage.ExitCode(), "error: %v\n", err)
	}
	if len(positional) != 2 {
		return writeErrorAndReturn(stderr, jsonerr.CLIUsage.ExitCode(), "error: diff requires exactly two file arguments\n")
	}
	a, err := readFile(positional[0])
	if err != nil {
		return writeClassifiedError(stderr, err)
	}
	b, err := readFile(positional[1])
	if err != nil {
		return writeClassifiedError(stderr, err)
	}
	av, err := jsonparse.Parse(a)
	if err != nil {
		return writeClassifiedError(stderr, err)
	}
	bv, err := jsonparse.Parse(b)
	if err != nil {
		return writeClassifiedError(stderr, err)
	}
	patch := jsonpatch.Diff(av, bv)
	out, err := jsonwrite.Write(jsonpatch.MarshalPatch(patch), jsonwrite.Compact)
	if err != nil {
		return writeClassifiedError(stderr, err)
	}
	return writeResult(stdout, stderr, out)
}

func cmdMerge(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	_, positional, err := parseFlags(args)
	if err != nil {
		return writeErrorAndReturn(stderr, jsonerr.CLIUsage.ExitCode(), "error: %v\n", err)
	}
	if len(positional) == 0 {
		return writeErrorAndReturn(stderr, jsonerr.CLIUsage.ExitCode(), "error: merge requires a patch-file argument\n")
	}
	patchPath := positional[0]
	rest := positional[1:]
	if exitCode, bad := ensureSingleInput(rest, stderr); bad {
		return exitCode
	}
	patchData, err := readFile(patchPath)
	if err != nil {
		return writeClassifiedError(stderr, err)
	}
	patch, err := jsonparse.Parse(patchData)
	if err != nil {
		return writeClassifiedError(stderr, err)
	}
	input, err := readInput(rest, stdin)
	if err != nil {
		return writeClassifiedError(stderr, err)
	}
	target, err := jsonparse.Parse(input)
	if err != nil {
		return writeClassifiedError(stderr, err)
	}
	result := jsonmerge.Apply(target, patch)
	out, err := jsonwrite.Write(result, jsonwrite.Compact)
	if err != nil {
		return writeClassifiedError(stderr, err)
	}
	return writeResult(stdout, stderr, out)
}

func cmdMergeDiff(args []string, stdout, stderr io.Writer) int {
	_, positional, err := parseFlags(args)
	if err != nil {
		return writeErrorAndReturn(stderr, jsonerr.CLIUsage.ExitCode(), "error: %v\n", err)
	}
	if len(positional) != 2 {
		return writeErrorAndReturn(stderr, jsonerr.CLIUsage.ExitCode(), "error: mergediff requires exactly two file arguments\n")
	}
	a, err := readFile(positional[0])
	if err != nil {
		return writeClassifiedError(stderr, err)
	}
	b, err := readFile(positional[1])
	if err != nil {
		return writeClassifiedError(stderr, err)
	}
	av, err := jsonparse.Parse(a)
	if err != nil {
		return writeClassifiedError(stderr, err)
	}
	bv, err := jsonparse.Parse(b)
	if err != nil {
		return writeClassifiedError(stderr, err)
	}
	patch, ok := jsonmerge.Diff(av, bv)
	if !ok {
		patch = jsonval.NewObject()
	}
	out, err := jsonwrite.Write(patch, jsonwrite.Compact)
	if err != nil {
		return writeClassifiedError(stderr, err)
	}
	return writeResult(stdout, stderr, out)
}

func writeResult(stdout, stderr io.Writer, out []byte) int {
	if _, err := stdout.Write(out); err != nil {
		return writeErrorAndReturn(stderr, jsonerr.InternalIO.ExitCode(), "error: writing output: %v\n", err)
	}
	if _, err := io.WriteString(stdout, "\n"); err != nil {
		return writeErrorAndReturn(stderr, jsonerr.InternalIO.ExitCode(), "error: writing output: %v\n", err)
	}
	return 0
}

func writeClassifiedError(stderr io.Writer, err error) int {
	var je *jsonerr.Error
	if errors.As(err, &je) {
		_ = writef(stderr, "error: %v\n", err)
		return je.Class.ExitCode()
	}
	return writeErrorAndReturn(stderr, jsonerr.InternalError.ExitCode(), "error: %v\n", err)
}

func readInput(positional []string, stdin io.Reader) ([]byte, error) {
	if len(positional) == 0 || positional[0] == "-" {
		return readBounded(stdin, defaultMaxInputSize)
	}
	return readFile(positional[0])
}

func readFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, jsonerr.Wrap(jsonerr.CLIUsage, -1, fmt.Sprintf("read file %q", path), err)
	}
	defer func() { _ = f.Close() }()

	data, err := readBounded(f, defaultMaxInputSize)
	if err != nil {
		var je *jsonerr.Error
		if errors.As(err, &je) && je.Class == jsonerr.CapacityExceeded {
			return nil, err
		}
		return nil, jsonerr.Wrap(jsonerr.CLIUsage, -1, fmt.Sprintf("read file %q", path), err)
	}
	return data, nil
}

func readBounded(r io.Reader, maxInputSize int) ([]byte, error) {
	lr := io.LimitReader(r, int64(maxInputSize)+1)
	data, err := io.ReadAll(lr)
	if err != nil {
		return nil, jsonerr.Wrap(jsonerr.InternalIO, -1, "read input stream", err)
	}
	if len(data) > maxInputSize {
		return nil, jsonerr.Newf(jsonerr.CapacityExceeded, 0, "input exceeds maximum size %d bytes", maxInputSize)
	}
	return data, nil
}

func ensureSingleInput(positional []string, stderr io.Writer) (int, bool) {
	if len(positional) <= 1 {
		return 0, false
	}
	_ = writeLine(stderr, "error: multiple input files specified")
	return jsonerr.CLIUsage.ExitCode(), true
}

func writeErrorAndReturn(stderr io.Writer, code int, format string, args ...any) int {
	_ = writef(stderr, format, args...)
	return code
}

func writeGlobalHelp(w io.Writer) error {
	lines := []string{
		"usage: jsontool <command> [options] [args]",
		"       jsontool --help",
		"       jsontool --version",
		"",
		"commands:",
		"  parse     [--indent] [file|-]        validate and re-serialize",
		"  minify    [file|-]                   strip insignificant whitespace",
		"  get       <pointer> [--fold] [file|-] resolve a json pointer",
		"  patch     <patch-file> [file|-]      apply an RFC 6902 patch",
		"  diff      <file-a> <file-b>          generate an RFC 6902 patch",
		"  merge     <patch-file> [file|-]      apply an RFC 7386 merge patch",
		"  mergediff <file-a> <file-b>          generate an RFC 7386 merge patch",
	}
	for _, line := range lines {
		if err := writeLine(w, line); err != nil {
			return err
		}
	}
	return nil
}

func writeLine(w io.Writer, msg string) error {
	return writef(w, "%s\n", msg)
}

func writef(w io.Writer, format string, args ...any) error {
	if _, err := fmt.Fprintf(w, format, args...); err != nil {
		return fmt.Errorf("write stream: %w", err)
	}
	return nil
}
