// Package session runs the interactive archiving session: folder prompt,
// classification, mode selection, archiving and optional deletion.
package session

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"

	"github.com/mcdonaldj/archivist/internal/adapters/osfs"
	"github.com/mcdonaldj/archivist/internal/adapters/ziparchiver"
	"github.com/mcdonaldj/archivist/internal/archive"
	"github.com/mcdonaldj/archivist/internal/config"
	"github.com/mcdonaldj/archivist/internal/deletion"
	"github.com/mcdonaldj/archivist/internal/ports"
	"github.com/mcdonaldj/archivist/internal/prompt"
	"github.com/mcdonaldj/archivist/internal/scan"
)

const (
	folderPrompt      = "Please enter the folder location: "
	folderRetryPrompt = "Please re-enter the folder location: "
	endingsPrompt     = "Please enter the file endings separated by comma: "
	deletePrompt      = "Do you want to delete the files after archiving? (y/n)"
	confirmPrompt     = "Are you sure you want to delete the files? (y/n)"

	menu = "Choose an option:\n" +
		"1 - All files in one archive\n" +
		"2 - Separate archives for each file type\n" +
		"3 - Select specific file types for archiving (one archive per selected file type)\n"
)

var (
	errNoFileTypes    = errors.New("No file types available for selection")
	errInvalidEndings = errors.New("Invalid file endings, please try again")
)

// Selection is the outcome of the mode menu.
type Selection struct {
	Mode       archive.Mode
	Extensions []string // selected extensions, mode Selected only
}

// Session holds the dependencies of one interactive run.
type Session struct {
	In      io.Reader
	Out     io.Writer
	Err     io.Writer
	Version string

	Config   *config.Config
	FS       ports.FileSystem
	Archiver ports.Archiver
	Clock    ports.Clock

	// ExecutableName is the running binary's file name; it is never archived
	// or deleted.
	ExecutableName string

	green  func(a ...interface{}) string
	yellow func(a ...interface{}) string
	cyan   func(a ...interface{}) string
	gray   func(a ...interface{}) string
	red    func(a ...interface{}) string
}

// New creates a session on the process's standard streams.
func New(cfg *config.Config, version string) *Session {
	exe := ""
	if path, err := os.Executable(); err == nil {
		exe = filepath.Base(path)
	}
	return &Session{
		In:             os.Stdin,
		Out:            os.Stdout,
		Err:            os.Stderr,
		Version:        version,
		Config:         cfg,
		FS:             osfs.New(),
		Archiver:       ziparchiver.New(),
		Clock:          ports.RealClock{},
		ExecutableName: exe,
		green:          color.New(color.FgGreen, color.Bold).SprintFunc(),
		yellow:         color.New(color.FgYellow).SprintFunc(),
		cyan:           color.New(color.FgCyan).SprintFunc(),
		gray:           color.New(color.FgHiBlack).SprintFunc(),
		red:            color.New(color.FgRed).SprintFunc(),
	}
}

// NewForTesting creates a session without colors on the given streams.
func NewForTesting(in io.Reader, out, errOut io.Writer, cfg *config.Config, fs ports.FileSystem, archiver ports.Archiver, clock ports.Clock) *Session {
	noColor := func(a ...interface{}) string { return fmt.Sprint(a...) }
	return &Session{
		In:             in,
		Out:            out,
		Err:            errOut,
		Version:        "test",
		Config:         cfg,
		FS:             fs,
		Archiver:       archiver,
		Clock:          clock,
		ExecutableName: "archivist",
		green:          noColor,
		yellow:         noColor,
		cyan:           noColor,
		gray:           noColor,
		red:            noColor,
	}
}

// Run executes the session. dir, when not empty, is the first folder
// attempt. The returned error means the process should exit with status 1.
func (s *Session) Run(dir string) error {
	p := prompt.New(s.In, s.Out)

	s.banner()

	folder, err := s.collectFolder(p, dir)
	if err != nil {
		return err
	}

	inv, err := scan.Classify(s.FS, folder, scan.Options{
		ExecutableName:   s.ExecutableName,
		BinaryExtensions: s.Config.BinaryExtensions,
		IgnorePatterns:   s.Config.Ignore,
	})
	if err != nil {
		fmt.Fprintf(s.Err, "%s %v\n", s.red("Error reading directory:"), errors.Unwrap(err))
		return err
	}
	s.report(inv)

	sel, err := s.selectMode(p, inv)
	if err != nil {
		return err
	}

	containers, err := s.build(inv, sel)
	if err != nil {
		return err
	}

	if err := s.offerDeletion(p, inv, sel, containers); err != nil {
		return err
	}

	s.finish(p, inv)
	return nil
}

func (s *Session) banner() {
	fmt.Fprintln(s.Out, s.cyan("archivist"), s.gray("- build "+s.Version))
	fmt.Fprintln(s.Out)
	fmt.Fprintln(s.Out, "This tool will archive files in a folder and optionally delete them after archiving")
	fmt.Fprintln(s.Out, "Folders can be archived entirely or by file type")
	fmt.Fprintln(s.Out)
}

// collectFolder asks until a readable directory is given.
func (s *Session) collectFolder(p *prompt.Prompter, initial string) (string, error) {
	readable := func(answer string) (string, error) {
		path := config.ExpandPath(answer)
		if _, err := s.FS.ReadDir(path); err != nil {
			return "", err
		}
		return path, nil
	}
	reject := func(err error) {
		fmt.Fprintf(s.Err, "%s %v\n", s.red("Error reading directory:"), err)
	}

	text := folderPrompt
	if initial != "" {
		path, err := readable(initial)
		if err == nil {
			return path, nil
		}
		reject(err)
		text = folderRetryPrompt
	}

	return prompt.Ask(p, prompt.Question[string]{
		Text:    text,
		Retry:   folderRetryPrompt,
		Parse:   readable,
		Invalid: reject,
	})
}

func (s *Session) report(inv *scan.Inventory) {
	fmt.Fprintln(s.Out, s.gray(prompt.Rule))
	fmt.Fprintf(s.Out, "Number of files in the folder [%d]\n", inv.FileCount())
	fmt.Fprintln(s.Out, s.gray(prompt.Rule))
	fmt.Fprintln(s.Out)

	if len(inv.BinaryExcluded) > 0 {
		fmt.Fprintln(s.Out, s.yellow("Binary files detected, excluding them from archiving"))
		fmt.Fprintln(s.Out, s.gray(prompt.Rule))
		fmt.Fprintln(s.Out)
	}

	fmt.Fprintf(s.Out, "Filetypes detected: %s\n", s.cyan(fmt.Sprint(inv.Extensions)))
	fmt.Fprintln(s.Out, s.gray(prompt.Rule))
	fmt.Fprintln(s.Out)

	for _, ext := range inv.Extensions {
		fmt.Fprintf(s.Out, "Number of [*.%s] files in the folder [%d]\n", ext, inv.Counts[ext])
		fmt.Fprintln(s.Out)
	}
}

func (s *Session) selectMode(p *prompt.Prompter, inv *scan.Inventory) (Selection, error) {
	mode, err := prompt.Ask(p, prompt.Question[archive.Mode]{
		Text: menu,
		Parse: func(answer string) (archive.Mode, error) {
			switch answer {
			case "1":
				return archive.All, nil
			case "2":
				return archive.PerExtension, nil
			case "3":
				if len(inv.Extensions) == 0 {
					return 0, errNoFileTypes
				}
				return archive.Selected, nil
			}
			return 0, prompt.ErrInvalidOption
		},
	})
	if err != nil {
		return Selection{}, err
	}

	sel := Selection{Mode: mode}
	if mode != archive.Selected {
		return sel, nil
	}

	sel.Extensions, err = prompt.Ask(p, prompt.Question[[]string]{
		Text: endingsPrompt,
		Parse: func(answer string) ([]string, error) {
			items := ParseEndings(answer)
			fmt.Fprintf(s.Out, "File endings input: %v\n", items)
			for _, item := range items {
				if !inv.HasExtension(item) {
					return nil, errInvalidEndings
				}
			}
			return items, nil
		},
	})
	return sel, err
}

// ParseEndings splits a comma separated list, trims each item and drops
// repeated items, keeping the first occurrence.
func ParseEndings(answer string) []string {
	seen := make(map[string]bool)
	items := []string{}
	for _, raw := range strings.Split(answer, ",") {
		item := strings.TrimSpace(raw)
		if seen[item] {
			continue
		}
		seen[item] = true
		items = append(items, item)
	}
	return items
}

func (s *Session) method() ports.Method {
	if s.Config.Compression == config.CompressionDeflate {
		return ports.Deflate
	}
	return ports.Store
}

func (s *Session) build(inv *scan.Inventory, sel Selection) ([]archive.Container, error) {
	b := &archive.Builder{
		FS:          s.FS,
		Archiver:    s.Archiver,
		Clock:       s.Clock,
		ArchiveDir:  s.Config.ArchiveDir,
		Method:      s.method(),
		UniqueNames: s.Config.UniqueNames,
	}

	containers, err := b.Build(inv, archive.Plan(inv, sel.Mode, sel.Extensions))
	for _, c := range containers {
		s.reportContainer(c)
	}

	if err != nil {
		var setupErr *archive.SetupError
		if errors.As(err, &setupErr) && setupErr.Op == archive.OpMkdir {
			fmt.Fprintf(s.Err, "%s %v\n", s.red("Error creating archive directory:"), setupErr.Err)
		} else if errors.As(err, &setupErr) {
			fmt.Fprintf(s.Err, "%s %v\n", s.red("Error creating zip file "+setupErr.Path+":"), setupErr.Err)
		} else {
			fmt.Fprintf(s.Err, "%s %v\n", s.red("Error:"), err)
		}
		return containers, err
	}

	if s.Config.Manifest {
		if err := b.Record(inv.Dir, containers); err != nil {
			fmt.Fprintf(s.Err, "%s %v\n", s.yellow("Warning: manifest not updated:"), err)
		}
	}
	return containers, nil
}

func (s *Session) reportContainer(c archive.Container) {
	for _, f := range c.Failures {
		fmt.Fprintf(s.Err, "%s %v\n", s.red("Error adding file "+f.Path+" to zip:"), f.Err)
	}
	if c.FinalizeErr != nil {
		fmt.Fprintf(s.Err, "%s %v\n", s.red("Error finishing zip file "+c.Path+":"), c.FinalizeErr)
	}
	fmt.Fprintln(s.Out, s.gray(prompt.Rule))
	fmt.Fprintf(s.Out, "%s %s\n", s.green("Archive created:"), c.Path)
	fmt.Fprintln(s.Out, s.gray(prompt.Rule))
}

func (s *Session) offerDeletion(p *prompt.Prompter, inv *scan.Inventory, sel Selection, containers []archive.Container) error {
	yes, err := prompt.Confirm(p, deletePrompt)
	if err != nil || !yes {
		return err
	}

	fmt.Fprintln(s.Out, s.yellow("Warning - This action is irreversible!"))
	fmt.Fprintln(s.Out, s.gray(prompt.Rule))
	sure, err := prompt.Confirm(p, confirmPrompt)
	if err != nil || !sure {
		return err
	}

	targets := deletion.Plan(s.Config.DeleteScope, sel.Mode, inv, containers, sel.Extensions)
	sum := deletion.Delete(s.FS, targets)
	for _, f := range sum.Failures {
		fmt.Fprintf(s.Err, "%s %v\n", s.red("Error deleting file "+f.Path+":"), f.Err)
	}
	fmt.Fprintf(s.Out, "%s %d file(s)\n", s.green("Deleted"), len(sum.Deleted))
	return nil
}

func (s *Session) finish(p *prompt.Prompter, inv *scan.Inventory) {
	if ignored := inv.Ignore.Names(); len(ignored) > 0 {
		fmt.Fprintf(s.Out, "Files that were ignored: %s\n", s.gray(fmt.Sprint(ignored)))
	}

	if s.Config.PauseOnExit {
		// A closed input here only means there is nobody to wait for.
		_, _ = p.ReadLine("Press enter to exit\n")
	}
	fmt.Fprintln(s.Out, "Exiting...")
}
