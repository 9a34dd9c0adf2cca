package render

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// gioCrashMarker is what Inkscape prints to stderr when it hits its
// documented crash under repeated invocation.
const gioCrashMarker = "terminate called after throwing an instance of 'Gio::DBus::Error'"

// DefaultTimeout bounds a single Inkscape invocation.
const DefaultTimeout = 2 * time.Minute

// Inkscape renders SVGs through the inkscape command-line interface.
type Inkscape struct {
	// Timeout bounds each invocation. Zero means DefaultTimeout.
	Timeout time.Duration
}

var _ Renderer = (*Inkscape)(nil)

// CheckInkscape verifies that inkscape is installed and on PATH.
func CheckInkscape() error {
	if _, err := exec.LookPath("inkscape"); err != nil {
		return fmt.Errorf("inkscape not found in PATH, install it from https://inkscape.org")
	}
	return nil
}

func (i *Inkscape) timeout() time.Duration {
	if i.Timeout > 0 {
		return i.Timeout
	}
	return DefaultTimeout
}

// Export runs a single inkscape process that executes every job as a
// batched action list. Output files are verified to exist afterwards:
// Inkscape can exit 0 and still silently drop an export.
func (i *Inkscape) Export(ctx context.Context, svgPath string, jobs []ExportJob) error {
	if len(jobs) == 0 {
		return nil
	}
	for _, job := range jobs {
		if err := os.MkdirAll(filepath.Dir(job.OutFile), 0o755); err != nil {
			return fmt.Errorf("create export dir: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, i.timeout())
	defer cancel()

	cmd := exec.CommandContext(ctx, "inkscape", svgPath, "--actions="+buildActions(jobs))
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return classify(svgPath, stderr.String(), err)
	}

	for _, job := range jobs {
		if _, err := os.Stat(job.OutFile); err != nil {
			return classify(svgPath, stderr.String(),
				fmt.Errorf("expected output %s is missing", job.OutFile))
		}
	}
	return nil
}

// HasObject probes for an object id with --query-id. Inkscape reports
// an unknown id on stderr and stays silent when the object exists.
func (i *Inkscape) HasObject(ctx context.Context, svgPath, id string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, i.timeout())
	defer cancel()

	cmd := exec.CommandContext(ctx, "inkscape", svgPath, "--query-id="+id)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return false, classify(svgPath, stderr.String(), err)
	}
	return strings.TrimSpace(stderr.String()) == "", nil
}

// buildActions assembles the semicolon-separated action list for one
// invocation, one export-do block per job.
func buildActions(jobs []ExportJob) string {
	var actions []string
	for _, job := range jobs {
		actions = append(actions,
			"export-filename:"+job.OutFile,
			fmt.Sprintf("export-width:%d", job.Size),
			fmt.Sprintf("export-height:%d", job.Size),
		)
		if job.ObjectID != "" {
			actions = append(actions,
				"export-id:"+job.ObjectID,
				"export-id-only",
			)
		}
		actions = append(actions,
			"export-area-page",
			"export-do",
		)
	}
	return strings.Join(actions, ";")
}

// classify distinguishes the retryable Gio::DBus crash from ordinary
// failures and folds stderr into the message either way.
func classify(svgPath, stderr string, err error) error {
	stderr = strings.TrimSpace(stderr)
	if strings.Contains(stderr, gioCrashMarker) {
		return fmt.Errorf("inkscape %s: %w", svgPath, ErrRendererCrash)
	}
	if stderr != "" {
		return fmt.Errorf("inkscape %s: %v: %s", svgPath, err, stderr)
	}
	return fmt.Errorf("inkscape %s: %v", svgPath, err)
}
