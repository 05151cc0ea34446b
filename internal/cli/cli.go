// Package cli provides the command-line interface with injectable io.Writer for testing.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"github.com/mcdonaldj/archivist/internal/adapters/ziparchiver"
	"github.com/mcdonaldj/archivist/internal/archive"
	"github.com/mcdonaldj/archivist/internal/compare"
	"github.com/mcdonaldj/archivist/internal/config"
	"github.com/mcdonaldj/archivist/internal/manifest"
	"github.com/mcdonaldj/archivist/internal/ports"
	"github.com/mcdonaldj/archivist/internal/recovery"
	"github.com/mcdonaldj/archivist/internal/session"
	"github.com/mcdonaldj/archivist/internal/tui"
)

// ConfigService provides configuration operations for the CLI.
type ConfigService interface {
	Load() (*config.Config, error)
	Save(cfg *config.Config) error
	ConfigPath() string
	DefaultConfig() *config.Config
}

// SessionService runs the interactive archiving session.
type SessionService interface {
	Run(cfg *config.Config, dir string) error
}

// RecoveryService provides recovery operations for the CLI.
type RecoveryService interface {
	ListContainers(cfg *config.Config, dir string) ([]manifest.ContainerEntry, error)
	Verify(cfg *config.Config, dir, file string) (*manifest.ContainerEntry, error)
	Extract(cfg *config.Config, zipPath, destDir string) error
}

// CompareService compares two containers.
type CompareService interface {
	Containers(path1, path2 string) (*ports.DiffResult, error)
	Entry(path1, path2 string, change ports.Change) *ports.FileDiff
}

// UIService launches the terminal UI.
type UIService interface {
	Run(dir string) error
}

// CLI represents the command-line interface with injectable dependencies.
type CLI struct {
	Out     io.Writer // Standard output
	Err     io.Writer // Standard error
	Version string    // Application version
	Args    []string  // Command arguments (like os.Args)

	// Exit function for testability (defaults to os.Exit)
	Exit func(code int)

	// Injectable dependencies (nil means use defaults)
	ConfigSvc   ConfigService
	SessionSvc  SessionService
	RecoverySvc RecoveryService
	CompareSvc  CompareService
	UISvc       UIService

	// Color functions (can be disabled for testing)
	green  func(a ...interface{}) string
	yellow func(a ...interface{}) string
	cyan   func(a ...interface{}) string
	gray   func(a ...interface{}) string
	red    func(a ...interface{}) string
}

// New creates a new CLI with default settings.
func New(version string) *CLI {
	return &CLI{
		Out:     os.Stdout,
		Err:     os.Stderr,
		Version: version,
		Args:    os.Args,
		Exit:    os.Exit,
		green:   color.New(color.FgGreen, color.Bold).SprintFunc(),
		yellow:  color.New(color.FgYellow).SprintFunc(),
		cyan:    color.New(color.FgCyan).SprintFunc(),
		gray:    color.New(color.FgHiBlack).SprintFunc(),
		red:     color.New(color.FgRed).SprintFunc(),
	}
}

// NewForTesting creates a CLI configured for testing (no colors, captured output).
func NewForTesting(out, errOut io.Writer, args []string) *CLI {
	noColor := func(a ...interface{}) string { return fmt.Sprint(a...) }
	exitCode := 0
	return &CLI{
		Out:     out,
		Err:     errOut,
		Version: "test",
		Args:    args,
		Exit:    func(code int) { exitCode = code; _ = exitCode },
		green:   noColor,
		yellow:  noColor,
		cyan:    noColor,
		gray:    noColor,
		red:     noColor,
	}
}

// defaultConfigService wraps the config package functions.
type defaultConfigService struct{}

func (d *defaultConfigService) Load() (*config.Config, error) { return config.Load() }
func (d *defaultConfigService) Save(cfg *config.Config) error { return cfg.Save() }
func (d *defaultConfigService) ConfigPath() string            { return config.ConfigPath() }
func (d *defaultConfigService) DefaultConfig() *config.Config { return config.DefaultConfig() }

// defaultSessionService runs a session on the process's standard streams.
type defaultSessionService struct {
	version string
}

func (d *defaultSessionService) Run(cfg *config.Config, dir string) error {
	return session.New(cfg, d.version).Run(dir)
}

// defaultRecoveryService wraps the recovery package functions.
type defaultRecoveryService struct{}

func (d *defaultRecoveryService) ListContainers(cfg *config.Config, dir string) ([]manifest.ContainerEntry, error) {
	return recovery.ListContainers(cfg, dir)
}
func (d *defaultRecoveryService) Verify(cfg *config.Config, dir, file string) (*manifest.ContainerEntry, error) {
	return recovery.Verify(cfg, dir, file)
}
func (d *defaultRecoveryService) Extract(cfg *config.Config, zipPath, destDir string) error {
	return recovery.Extract(cfg, zipPath, destDir)
}

// defaultCompareService compares containers on disk.
type defaultCompareService struct {
	archiver ports.Archiver
}

func (d *defaultCompareService) Containers(path1, path2 string) (*ports.DiffResult, error) {
	return compare.Containers(d.archiver, config.ExpandPath(path1), config.ExpandPath(path2))
}
func (d *defaultCompareService) Entry(path1, path2 string, change ports.Change) *ports.FileDiff {
	return compare.Entry(d.archiver, config.ExpandPath(path1), config.ExpandPath(path2), change)
}

// defaultUIService wraps tui.Run.
type defaultUIService struct{}

func (d *defaultUIService) Run(dir string) error { return tui.Run(dir) }

// Helper methods to get the service or default
func (c *CLI) configSvc() ConfigService {
	if c.ConfigSvc != nil {
		return c.ConfigSvc
	}
	return &defaultConfigService{}
}

func (c *CLI) sessionSvc() SessionService {
	if c.SessionSvc != nil {
		return c.SessionSvc
	}
	return &defaultSessionService{version: c.Version}
}

func (c *CLI) recoverySvc() RecoveryService {
	if c.RecoverySvc != nil {
		return c.RecoverySvc
	}
	return &defaultRecoveryService{}
}

func (c *CLI) compareSvc() CompareService {
	if c.CompareSvc != nil {
		return c.CompareSvc
	}
	return &defaultCompareService{archiver: ziparchiver.New()}
}

func (c *CLI) uiSvc() UIService {
	if c.UISvc != nil {
		return c.UISvc
	}
	return &defaultUIService{}
}

// Run executes the CLI with the configured arguments.
func (c *CLI) Run() {
	if len(c.Args) < 2 {
		c.RunSession()
		return
	}

	switch c.Args[1] {
	case "run":
		c.RunSession()
	case "list":
		c.ListContainers()
	case "verify":
		c.RunVerify()
	case "compare":
		c.RunCompare()
	case "extract":
		c.RunExtract()
	case "ui", "tui":
		c.RunUI()
	case "init":
		c.InitConfig()
	case "version", "-v", "--version":
		fmt.Fprintf(c.Out, "archivist v%s\n", c.Version)
	case "help", "-h", "--help":
		c.PrintUsage()
	default:
		fmt.Fprintf(c.Err, "Unknown command: %s\n", c.Args[1])
		c.PrintUsage()
		c.Exit(1)
	}
}

// PrintUsage prints the help message.
func (c *CLI) PrintUsage() {
	fmt.Fprintln(c.Out, `archivist - Folder Archiving Tool

Usage:
  archivist                                Start an interactive archiving session
  archivist run [dir]                      Start a session, trying dir as the folder first
  archivist list <dir>                     List containers recorded for a folder
  archivist verify <dir> [file]            Verify container integrity (latest by default)
  archivist compare <a.zip> <b.zip> [entry]
                                           Compare two containers, or one entry line by line
  archivist extract <zip> <dest>           Unpack a container
  archivist ui [dir]                       Browse containers in a terminal UI
  archivist init                           Create default config file
  archivist version, -v                    Show version
  archivist help, -h                       Show this help

Config: ~/.archivist/config.yaml`)
}

// loadConfig loads the config, reporting failures. ok is false after Exit.
func (c *CLI) loadConfig() (*config.Config, bool) {
	cfg, err := c.configSvc().Load()
	if err != nil {
		fmt.Fprintf(c.Err, "Error loading config: %v\n", err)
		c.Exit(1)
		return nil, false
	}
	return cfg, true
}

// InitConfig creates the default config file.
func (c *CLI) InitConfig() {
	svc := c.configSvc()
	if err := svc.Save(svc.DefaultConfig()); err != nil {
		fmt.Fprintf(c.Err, "Error saving config: %v\n", err)
		c.Exit(1)
		return
	}
	fmt.Fprintf(c.Out, "Created config at %s\n", svc.ConfigPath())
}

// RunSession runs the interactive archiving session.
func (c *CLI) RunSession() {
	cfg, ok := c.loadConfig()
	if !ok {
		return
	}

	dir := ""
	if len(c.Args) > 2 {
		dir = c.Args[2]
	}

	// The session reports its own failures; only the exit status is left.
	if err := c.sessionSvc().Run(cfg, dir); err != nil {
		c.Exit(1)
	}
}

// ListContainers lists the containers recorded for a folder.
func (c *CLI) ListContainers() {
	if len(c.Args) < 3 {
		fmt.Fprintln(c.Out, "Usage: archivist list <dir>")
		c.Exit(1)
		return
	}

	cfg, ok := c.loadConfig()
	if !ok {
		return
	}

	dir := c.Args[2]
	containers, err := c.recoverySvc().ListContainers(cfg, dir)
	if err != nil {
		fmt.Fprintf(c.Err, "Error: %v\n", err)
		c.Exit(1)
		return
	}

	if len(containers) == 0 {
		fmt.Fprintf(c.Out, "No containers recorded for %s\n", dir)
		return
	}

	fmt.Fprintf(c.Out, "Containers for %s:\n\n", c.cyan(dir))
	fmt.Fprintf(c.Out, "  %-10s %-40s %10s %8s %s\n", "LABEL", "FILE", "SIZE", "ENTRIES", "CREATED")
	fmt.Fprintf(c.Out, "  %-10s %-40s %10s %8s %s\n", "-----", "----", "----", "-------", "-------")

	for _, e := range containers {
		fmt.Fprintf(c.Out, "  %-10s %-40s %10s %8d %s\n",
			e.Label,
			e.File,
			archive.FormatSize(e.SizeBytes),
			e.EntryCount,
			e.CreatedAt.Format("2006-01-02 15:04"))
	}
}

// RunVerify verifies a recorded container.
func (c *CLI) RunVerify() {
	if len(c.Args) < 3 {
		fmt.Fprintln(c.Out, "Usage: archivist verify <dir> [file]")
		c.Exit(1)
		return
	}

	cfg, ok := c.loadConfig()
	if !ok {
		return
	}

	dir := c.Args[2]
	file := ""
	if len(c.Args) > 3 {
		file = c.Args[3]
	}

	entry, err := c.recoverySvc().Verify(cfg, dir, file)
	if err != nil {
		fmt.Fprintf(c.Err, "Verification failed: %v\n", err)
		c.Exit(1)
		return
	}

	fmt.Fprintf(c.Out, "%s Checksum verified for %s\n", c.green("*"), entry.File)
}

// RunCompare prints the entry-level diff of two containers, or the line
// diff of one entry when a third argument is given.
func (c *CLI) RunCompare() {
	if len(c.Args) < 4 {
		fmt.Fprintln(c.Out, "Usage: archivist compare <a.zip> <b.zip> [entry]")
		c.Exit(1)
		return
	}

	svc := c.compareSvc()
	path1, path2 := c.Args[2], c.Args[3]

	result, err := svc.Containers(path1, path2)
	if err != nil {
		fmt.Fprintf(c.Err, "Error: %v\n", err)
		c.Exit(1)
		return
	}

	if len(c.Args) > 4 {
		c.printEntryDiff(svc, path1, path2, result, c.Args[4])
		return
	}

	fmt.Fprintf(c.Out, "Comparing %s -> %s\n\n", c.cyan(result.Container1), c.cyan(result.Container2))
	if len(result.Changes) == 0 {
		fmt.Fprintln(c.Out, "No differences")
		return
	}

	for _, ch := range result.Changes {
		switch ch.Status {
		case 'M':
			fmt.Fprintf(c.Out, "  %s %s %s\n", c.yellow("M"), ch.Name,
				c.gray(fmt.Sprintf("(%s -> %s)", archive.FormatSize(ch.Size1), archive.FormatSize(ch.Size2))))
		case 'A':
			fmt.Fprintf(c.Out, "  %s %s %s\n", c.green("A"), ch.Name, c.gray("("+archive.FormatSize(ch.Size2)+")"))
		case 'D':
			fmt.Fprintf(c.Out, "  %s %s %s\n", c.red("D"), ch.Name, c.gray("("+archive.FormatSize(ch.Size1)+")"))
		}
	}

	fmt.Fprintln(c.Out)
	fmt.Fprintf(c.Out, "%d changes: %d added, %d modified, %d deleted\n",
		len(result.Changes), result.Added, result.Modified, result.Deleted)
}

func (c *CLI) printEntryDiff(svc CompareService, path1, path2 string, result *ports.DiffResult, name string) {
	var change *ports.Change
	for i := range result.Changes {
		if result.Changes[i].Name == name {
			change = &result.Changes[i]
			break
		}
	}
	if change == nil {
		fmt.Fprintf(c.Out, "No differences in %s\n", name)
		return
	}

	diff := svc.Entry(path1, path2, *change)
	if diff.Error != "" {
		fmt.Fprintf(c.Err, "Error: %s\n", diff.Error)
		c.Exit(1)
		return
	}

	fmt.Fprintf(c.Out, "%s %s\n", c.red("---"), diff.Container1+"/"+diff.Name)
	fmt.Fprintf(c.Out, "%s %s\n", c.green("+++"), diff.Container2+"/"+diff.Name)
	if diff.IsBinary {
		fmt.Fprintln(c.Out, c.gray("Binary entry, no line diff"))
		return
	}

	for _, line := range diff.Lines {
		text := string(line.Type) + line.Content
		switch line.Type {
		case '+':
			fmt.Fprintln(c.Out, c.green(text))
		case '-':
			fmt.Fprintln(c.Out, c.red(text))
		default:
			fmt.Fprintln(c.Out, text)
		}
	}
}

// RunExtract unpacks a container.
func (c *CLI) RunExtract() {
	if len(c.Args) < 4 {
		fmt.Fprintln(c.Out, "Usage: archivist extract <zip> <dest>")
		c.Exit(1)
		return
	}

	cfg, ok := c.loadConfig()
	if !ok {
		return
	}

	zipPath, dest := c.Args[2], c.Args[3]
	fmt.Fprintf(c.Out, "Extracting %s to %s...\n", zipPath, dest)

	if err := c.recoverySvc().Extract(cfg, zipPath, dest); err != nil {
		fmt.Fprintf(c.Err, "Extraction failed: %v\n", err)
		c.Exit(1)
		return
	}

	fmt.Fprintf(c.Out, "%s Extracted %s\n", c.green("*"), zipPath)
}

// RunUI launches the terminal UI for a folder (current directory by default).
func (c *CLI) RunUI() {
	dir := "."
	if len(c.Args) > 2 {
		dir = c.Args[2]
	}

	if err := c.uiSvc().Run(dir); err != nil {
		fmt.Fprintf(c.Err, "Error: %v\n", err)
		c.Exit(1)
	}
}
