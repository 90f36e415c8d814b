package storage

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// DiffOp marks a line as unchanged, added or removed.
type DiffOp int

const (
	DiffEqual DiffOp = iota
	DiffInsert
	DiffDelete
)

// DiffLine is one line of a line-level diff.
type DiffLine struct {
	Op   DiffOp
	Text string
}

// DiffLines computes a line-level diff between two documents.
func DiffLines(oldText, newText string) []DiffLine {
	dmp := diffmatchpatch.New()
	a, b, lineArray := dmp.DiffLinesToChars(oldText, newText)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lineArray)

	var lines []DiffLine
	for _, d := range diffs {
		op := DiffEqual
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			op = DiffInsert
		case diffmatchpatch.DiffDelete:
			op = DiffDelete
		}
		for _, text := range strings.Split(strings.TrimSuffix(d.Text, "\n"), "\n") {
			lines = append(lines, DiffLine{Op: op, Text: text})
		}
	}
	return lines
}

// HasChanges reports whether any line was added or removed.
func HasChanges(lines []DiffLine) bool {
	for _, l := range lines {
		if l.Op != DiffEqual {
			return true
		}
	}
	return false
}

// TrimContext drops unchanged lines further than context lines away from a
// change. Dropped runs are replaced by a single DiffEqual line holding "...".
func TrimContext(lines []DiffLine, context int) []DiffLine {
	keep := make([]bool, len(lines))
	for i, l := range lines {
		if l.Op == DiffEqual {
			continue
		}
		for j := max(0, i-context); j <= min(len(lines)-1, i+context); j++ {
			keep[j] = true
		}
	}

	var out []DiffLine
	skipping := false
	for i, l := range lines {
		if keep[i] {
			out = append(out, l)
			skipping = false
			continue
		}
		if !skipping {
			out = append(out, DiffLine{Op: DiffEqual, Text: "..."})
			skipping = true
		}
	}
	return out
}
