package main

import (
	"context"
	"io"
	"os"
	"regexp"
	"slices"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/kbukum/asyncseq/errors"
	"github.com/kbukum/asyncseq/logger"
	"github.com/kbukum/asyncseq/seq"
	"github.com/kbukum/asyncseq/stream"
)

// stdinPath stands for standard input in a file list.
const stdinPath = "-"

// Line is one line of one input file.
type Line struct {
	File string `json:"file"`
	N    int    `json:"n"`
	Text string `json:"text"`
}

// Type returns the file name.
func (l Line) Type() string { return l.File }

// Selection narrows the line sequence.
type Selection struct {
	Skip  int
	Limit int
	Match *regexp.Regexp
}

// NewSelection compiles match. An empty match selects every line.
func NewSelection(skip, limit int, match string) (Selection, error) {
	sel := Selection{Skip: skip, Limit: limit}
	if match == "" {
		return sel, nil
	}
	re, err := regexp.Compile(match)
	if err != nil {
		return sel, errors.InvalidInput("match", err.Error()).WithCause(err)
	}
	sel.Match = re
	return sel, nil
}

// Expand resolves glob patterns to a file list. Matches of one pattern are
// sorted; a file matched by several patterns is listed once. "-" passes
// through as standard input. A pattern without magic must name an
// existing file; a pattern with magic may match nothing.
func Expand(patterns []string) ([]string, error) {
	var files []string
	seen := make(map[string]bool)
	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}
	for _, pattern := range patterns {
		if pattern == stdinPath {
			add(stdinPath)
			continue
		}
		if !doublestar.ValidatePattern(pattern) {
			return nil, errors.InvalidInput("pattern", "invalid glob "+pattern)
		}
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly(), doublestar.WithFailOnIOErrors())
		if err != nil {
			return nil, errors.InvalidInput("pattern", err.Error()).WithCause(err)
		}
		if len(matches) == 0 && !hasMagic(pattern) {
			return nil, errors.InvalidInput("pattern", "no such file "+pattern)
		}
		slices.Sort(matches)
		for _, m := range matches {
			add(m)
		}
	}
	return files, nil
}

func hasMagic(pattern string) bool {
	return slices.ContainsFunc([]rune(pattern), func(r rune) bool {
		return r == '*' || r == '?' || r == '[' || r == '{'
	})
}

// Lines returns the selected lines of files, in file order. A file is opened
// when its first line is pulled and closed before the next file is opened.
func Lines(files []string, sel Selection, log *logger.Logger) *seq.Sequence[Line] {
	all := seq.FlatMap(seq.FromSlice(files), func(_ context.Context, path string) (*seq.Sequence[Line], error) {
		return fileLines(path, log)
	})

	out := all.Drop(sel.Skip)
	if sel.Match != nil {
		out = out.Filter(func(l Line) bool { return sel.Match.MatchString(l.Text) })
	}
	if sel.Limit > 0 {
		out = out.Take(sel.Limit)
	}
	return out
}

func fileLines(path string, log *logger.Logger) (*seq.Sequence[Line], error) {
	var rc io.ReadCloser
	if path == stdinPath {
		rc = io.NopCloser(os.Stdin)
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, errors.SourceUnavailable("file", err).WithDetail("path", path)
		}
		rc = f
	}

	n := 0
	text := stream.From(stream.Lines(rc), stream.WithLogger(log), stream.WithName(path))
	return seq.Map(text, func(_ context.Context, s string) (Line, error) {
		n++
		return Line{File: path, N: n, Text: s}, nil
	}), nil
}
