package ports

// Change represents an entry that differs between two containers.
type Change struct {
	Name   string
	Status rune // 'M' modified, 'A' added, 'D' deleted
	Size1  int64
	Size2  int64
}

// DiffResult contains the entry-level comparison of two containers.
type DiffResult struct {
	Container1 string
	Container2 string
	Changes    []Change
	Added      int
	Modified   int
	Deleted    int
}

// DiffLine represents a single line in a file diff.
type DiffLine struct {
	LineNum1 int    // Line number in container 1 (0 if added)
	LineNum2 int    // Line number in container 2 (0 if deleted)
	Type     rune   // '+' added, '-' deleted, ' ' unchanged
	Content  string // Line content
}

// FileDiff contains the line-by-line diff of one entry.
type FileDiff struct {
	Name       string
	Container1 string
	Container2 string
	Lines      []DiffLine
	IsBinary   bool
	Error      string
}
