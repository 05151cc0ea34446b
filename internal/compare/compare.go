// Package compare computes entry-level and line-level differences between
// two zip containers.
package compare

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/mcdonaldj/archivist/internal/ports"
)

// Containers compares the entries of two containers by size and CRC32.
func Containers(reader ports.Archiver, path1, path2 string) (*ports.DiffResult, error) {
	files1, err := reader.List(path1)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filepath.Base(path1), err)
	}

	files2, err := reader.List(path2)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filepath.Base(path2), err)
	}

	result := &ports.DiffResult{
		Container1: filepath.Base(path1),
		Container2: filepath.Base(path2),
	}

	allNames := make(map[string]bool)
	for name := range files1 {
		allNames[name] = true
	}
	for name := range files2 {
		allNames[name] = true
	}

	for name := range allNames {
		info1, in1 := files1[name]
		info2, in2 := files2[name]

		change := ports.Change{Name: name}
		switch {
		case in1 && !in2:
			change.Status = 'D'
			change.Size1 = info1.Size
			result.Deleted++
		case !in1 && in2:
			change.Status = 'A'
			change.Size2 = info2.Size
			result.Added++
		case info1.CRC32 != info2.CRC32 || info1.Size != info2.Size:
			change.Status = 'M'
			change.Size1 = info1.Size
			change.Size2 = info2.Size
			result.Modified++
		default:
			continue
		}

		result.Changes = append(result.Changes, change)
	}

	// Sort changes: M, A, D then by name
	order := map[rune]int{'M': 0, 'A': 1, 'D': 2}
	sort.Slice(result.Changes, func(i, j int) bool {
		if result.Changes[i].Status != result.Changes[j].Status {
			return order[result.Changes[i].Status] < order[result.Changes[j].Status]
		}
		return result.Changes[i].Name < result.Changes[j].Name
	})

	return result, nil
}

// Entry computes the line diff of one changed entry. Read failures are
// reported in FileDiff.Error rather than returned.
func Entry(reader ports.Archiver, path1, path2 string, change ports.Change) *ports.FileDiff {
	result := &ports.FileDiff{
		Name:       change.Name,
		Container1: filepath.Base(path1),
		Container2: filepath.Base(path2),
	}

	var content1, content2 string
	var err error

	switch change.Status {
	case 'A':
		content2, err = reader.ReadFile(path2, change.Name)
		if err != nil {
			result.Error = fmt.Sprintf("Error reading entry: %v", err)
			return result
		}
	case 'D':
		content1, err = reader.ReadFile(path1, change.Name)
		if err != nil {
			result.Error = fmt.Sprintf("Error reading entry: %v", err)
			return result
		}
	default:
		content1, err = reader.ReadFile(path1, change.Name)
		if err != nil {
			result.Error = fmt.Sprintf("Error reading %s: %v", result.Container1, err)
			return result
		}
		content2, err = reader.ReadFile(path2, change.Name)
		if err != nil {
			result.Error = fmt.Sprintf("Error reading %s: %v", result.Container2, err)
			return result
		}
	}

	if IsBinaryContent(content1) || IsBinaryContent(content2) {
		result.IsBinary = true
		return result
	}

	result.Lines = Lines(content1, content2)
	return result
}

// IsBinaryContent checks if content appears to be binary
func IsBinaryContent(content string) bool {
	if len(content) == 0 {
		return false
	}
	// Check first 8000 bytes for null bytes or invalid UTF-8
	checkLen := len(content)
	if checkLen > 8000 {
		checkLen = 8000
	}
	sample := content[:checkLen]

	if strings.Contains(sample, "\x00") {
		return true
	}
	return !utf8.ValidString(sample)
}

// Lines returns a line-oriented diff of two texts. A missing final newline
// is not reported as a change.
func Lines(content1, content2 string) []ports.DiffLine {
	dmp := diffmatchpatch.New()
	chars1, chars2, lineArray := dmp.DiffLinesToChars(terminate(content1), terminate(content2))
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(chars1, chars2, false), lineArray)

	var lines []ports.DiffLine
	n1, n2 := 0, 0
	for _, d := range diffs {
		for _, text := range splitLines(d.Text) {
			switch d.Type {
			case diffmatchpatch.DiffEqual:
				n1++
				n2++
				lines = append(lines, ports.DiffLine{LineNum1: n1, LineNum2: n2, Type: ' ', Content: text})
			case diffmatchpatch.DiffDelete:
				n1++
				lines = append(lines, ports.DiffLine{LineNum1: n1, Type: '-', Content: text})
			case diffmatchpatch.DiffInsert:
				n2++
				lines = append(lines, ports.DiffLine{LineNum2: n2, Type: '+', Content: text})
			}
		}
	}
	return lines
}

func terminate(s string) string {
	if s == "" || strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}

// splitLines splits a run of newline-terminated lines.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}
