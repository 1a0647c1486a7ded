package reporter

import (
	"cmp"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/fenilsonani/flclean/internal/backup"
	"github.com/fenilsonani/flclean/internal/progress"
	"github.com/fenilsonani/flclean/internal/retention"
	"github.com/fenilsonani/flclean/internal/scanner"
	"gopkg.in/yaml.v3"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatTable   OutputFormat = "table"
	FormatJSON    OutputFormat = "json"
	FormatYAML    OutputFormat = "yaml"
	FormatSummary OutputFormat = "summary"
)

// ParseFormat validates a user-supplied format name
func ParseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(s)); f {
	case FormatTable, FormatJSON, FormatYAML, FormatSummary:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported format: %s", s)
	}
}

// Snapshot is one backup file in a report
type Snapshot struct {
	Path      string    `json:"path" yaml:"path"`
	Timestamp string    `json:"timestamp" yaml:"timestamp"`
	Size      int64     `json:"size" yaml:"size"`
	ModTime   time.Time `json:"mod_time" yaml:"mod_time"`
	Keep      bool      `json:"keep" yaml:"keep"`
}

// Project groups the snapshots of one project folder, newest first
type Project struct {
	Folder        string     `json:"folder" yaml:"folder"`
	Name          string     `json:"name" yaml:"name"`
	Snapshots     []Snapshot `json:"snapshots" yaml:"snapshots"`
	Redundant     int        `json:"redundant" yaml:"redundant"`
	RedundantSize int64      `json:"redundant_size" yaml:"redundant_size"`
}

// Report is the serializable view of a scan
type Report struct {
	Timestamp           string    `json:"timestamp" yaml:"timestamp"`
	Roots               []string  `json:"roots" yaml:"roots"`
	IncompleteRoots     []string  `json:"incomplete_roots,omitempty" yaml:"incomplete_roots,omitempty"`
	Cancelled           bool      `json:"cancelled" yaml:"cancelled"`
	FilesScanned        int64     `json:"files_scanned" yaml:"files_scanned"`
	Duration            string    `json:"duration" yaml:"duration"`
	TotalBackups        int       `json:"total_backups" yaml:"total_backups"`
	TotalSize           int64     `json:"total_size" yaml:"total_size"`
	Redundant           int       `json:"redundant" yaml:"redundant"`
	ReclaimableSize     int64     `json:"reclaimable_size" yaml:"reclaimable_size"`
	ReclaimableReadable string    `json:"reclaimable_size_formatted" yaml:"reclaimable_size_formatted"`
	Projects            []Project `json:"projects" yaml:"projects"`
}

// Build assembles a report. found is not modified.
func Build(summary *scanner.Summary, found backup.Found) *Report {
	rep := &Report{
		Timestamp: time.Now().Format(time.RFC3339),
		Projects:  make([]Project, 0, len(found)),
	}
	if summary != nil {
		rep.Roots = summary.Roots
		rep.IncompleteRoots = summary.IncompleteRoots
		rep.Cancelled = summary.Cancelled
		rep.FilesScanned = summary.Scanned
		rep.Duration = progress.FormatDuration(summary.Duration)
	}

	for key, files := range found {
		sorted := slices.Clone(files)
		retention.SortByRecency(sorted)

		p := Project{Folder: key.Folder, Name: key.Project}
		for i, f := range sorted {
			p.Snapshots = append(p.Snapshots, Snapshot{
				Path:      f.Path,
				Timestamp: f.Timestamp,
				Size:      f.Size,
				ModTime:   f.ModTime,
				Keep:      i == 0,
			})
			rep.TotalBackups++
			rep.TotalSize += f.Size
			if i > 0 {
				p.Redundant++
				p.RedundantSize += f.Size
			}
		}
		rep.Redundant += p.Redundant
		rep.ReclaimableSize += p.RedundantSize
		rep.Projects = append(rep.Projects, p)
	}

	slices.SortFunc(rep.Projects, func(a, b Project) int {
		if c := cmp.Compare(a.Folder, b.Folder); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	rep.ReclaimableReadable = progress.FormatBytes(rep.ReclaimableSize)

	return rep
}

// Reporter handles report generation
type Reporter struct {
	writer io.Writer
	format OutputFormat
}

// New creates a new Reporter
func New(writer io.Writer, format OutputFormat) *Reporter {
	return &Reporter{
		writer: writer,
		format: format,
	}
}

// Report writes rep in the reporter's format
func (r *Reporter) Report(rep *Report) error {
	switch r.format {
	case FormatTable:
		return r.reportTable(rep)
	case FormatJSON:
		return r.reportJSON(rep)
	case FormatYAML:
		return r.reportYAML(rep)
	case FormatSummary:
		return r.reportSummary(rep)
	default:
		return fmt.Errorf("unsupported format: %s", r.format)
	}
}

// reportSummary generates a summary report
func (r *Reporter) reportSummary(rep *Report) error {
	fmt.Fprintf(r.writer, "=== Backup Scan Summary ===\n")
	fmt.Fprintf(r.writer, "Files Scanned: %s\n", progress.FormatCount(rep.FilesScanned))
	fmt.Fprintf(r.writer, "Backups Found: %d (%s)\n", rep.TotalBackups, progress.FormatBytes(rep.TotalSize))
	fmt.Fprintf(r.writer, "Projects: %d\n", len(rep.Projects))
	fmt.Fprintf(r.writer, "Redundant: %d (%s reclaimable)\n", rep.Redundant, rep.ReclaimableReadable)
	if rep.Duration != "" {
		fmt.Fprintf(r.writer, "Duration: %s\n", rep.Duration)
	}

	withRedundant := 0
	for _, p := range rep.Projects {
		if p.Redundant > 0 {
			withRedundant++
		}
	}
	if withRedundant > 0 {
		fmt.Fprintf(r.writer, "\nProjects with redundant snapshots:\n")
		for _, p := range rep.Projects {
			if p.Redundant == 0 {
				continue
			}
			fmt.Fprintf(r.writer, "  %s (%s): %d redundant, %s\n",
				p.Name, p.Folder, p.Redundant, progress.FormatBytes(p.RedundantSize))
		}
	}

	if rep.Cancelled {
		fmt.Fprintf(r.writer, "\nScan was cancelled; results are partial.\n")
	}
	if len(rep.IncompleteRoots) > 0 {
		fmt.Fprintf(r.writer, "\nIncomplete roots: %s\n", strings.Join(rep.IncompleteRoots, ", "))
	}

	return nil
}

// reportTable generates a table report
func (r *Reporter) reportTable(rep *Report) error {
	rule := strings.Repeat("-", 100)

	// Print header
	fmt.Fprintf(r.writer, "%-60s | %-8s | %-10s | %s\n", "Path", "Time", "Size", "Action")
	fmt.Fprintf(r.writer, "%s\n", rule)

	// Print rows
	for _, p := range rep.Projects {
		for _, s := range p.Snapshots {
			path := s.Path
			if len(path) > 60 {
				path = "..." + path[len(path)-57:]
			}

			action := "delete"
			if s.Keep {
				action = "keep"
			}

			fmt.Fprintf(r.writer, "%-60s | %-8s | %-10s | %s\n",
				path,
				s.Timestamp,
				progress.FormatBytes(s.Size),
				action)
		}
	}

	// Print summary
	fmt.Fprintf(r.writer, "%s\n", rule)
	fmt.Fprintf(r.writer, "Total: %d backups in %d projects, %d redundant (%s)\n",
		rep.TotalBackups, len(rep.Projects), rep.Redundant, rep.ReclaimableReadable)

	return nil
}

// reportJSON generates a JSON report
func (r *Reporter) reportJSON(rep *Report) error {
	encoder := json.NewEncoder(r.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(rep)
}

// reportYAML generates a YAML report
func (r *Reporter) reportYAML(rep *Report) error {
	encoder := yaml.NewEncoder(r.writer)
	defer encoder.Close()
	return encoder.Encode(rep)
}

// SaveToFile saves the report to a file
func SaveToFile(rep *Report, path string, format OutputFormat) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	reporter := New(file, format)
	return reporter.Report(rep)
}

// PrintPruneResult writes a human-readable retention summary
func PrintPruneResult(w io.Writer, result *retention.Result) {
	verb := "Deleted"
	if result.DryRun {
		verb = "Would delete"
	}

	fmt.Fprintf(w, "=== Cleanup Summary ===\n")
	fmt.Fprintf(w, "%s: %d snapshots\n", verb, result.Deleted)
	fmt.Fprintf(w, "Reclaimed: %s\n", progress.FormatBytes(result.ReclaimedBytes))
	fmt.Fprintf(w, "Projects kept: %d\n", len(result.Kept))

	if len(result.Failures) > 0 {
		fmt.Fprintf(w, "\n%s", retention.FormatErrorSummary(result.Failures))
	}
}
