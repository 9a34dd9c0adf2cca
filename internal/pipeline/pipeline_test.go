package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/TheSilvered/Cursors/internal/config"
	"github.com/TheSilvered/Cursors/internal/testutil"
)

const staticSVG = `<svg xmlns="http://www.w3.org/2000/svg" width="64" height="64">
  <rect id="hotspot" x="0" y="0" width="1" height="1"/>
</svg>`

const animatedSVG = `<svg xmlns="http://www.w3.org/2000/svg" width="64" height="64">
  <rect id="hotspot" x="0" y="0" width="1" height="1"/>
  <text id="ani_config">frameCount=2;frameRate=3</text>
</svg>`

const manifestBody = "[Version]\r\nsignature=\"$CHICAGO$\"\r\n"

// newTestBatch builds a batch over temp directories with the given
// static SVG sources and one manifest file.
func newTestBatch(t *testing.T, svgs map[string]string) (*Batch, config.Config, *testutil.FakeRenderer) {
	t.Helper()
	root := t.TempDir()

	cfg := config.Defaults()
	cfg.Dirs.Sources = filepath.Join(root, "svgs")
	cfg.Dirs.Intermediate = filepath.Join(root, "pngs")
	cfg.Dirs.Output = filepath.Join(root, "cursors")
	cfg.Resolutions = []int{16, 32}

	manifest := filepath.Join(root, "install.inf")
	if err := os.WriteFile(manifest, []byte(manifestBody), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg.Manifest = []string{manifest}

	if err := os.MkdirAll(cfg.Dirs.Sources, 0o755); err != nil {
		t.Fatal(err)
	}
	for name, body := range svgs {
		if err := os.WriteFile(filepath.Join(cfg.Dirs.Sources, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	r := &testutil.FakeRenderer{}
	return NewBatch(r, cfg), cfg, r
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestRun_AllSucceed(t *testing.T) {
	batch, cfg, _ := newTestBatch(t, map[string]string{
		"arrow.svg": staticSVG,
		"hand.svg":  staticSVG,
		"wait.svg":  staticSVG,
	})

	sum, err := batch.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sum.OK() || sum.Generated != 3 {
		t.Fatalf("summary = %+v, want 3 generated and no failures", sum)
	}

	got := listDir(t, cfg.Dirs.Output)
	if len(got) != 4 { // 3 cursors + manifest
		t.Fatalf("output dir = %v, want 3 cursors + install.inf", got)
	}
	for _, name := range []string{"arrow.cur", "hand.cur", "wait.cur", "install.inf"} {
		if _, err := os.Stat(filepath.Join(cfg.Dirs.Output, name)); err != nil {
			t.Errorf("missing output file %s", name)
		}
	}
}

func TestRun_ManifestByteIdentical(t *testing.T) {
	batch, cfg, _ := newTestBatch(t, nil)

	if _, err := batch.Run(context.Background(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(cfg.Dirs.Output, "install.inf"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data, []byte(manifestBody)) {
		t.Errorf("copied manifest differs from the shipped one")
	}
}

func TestRun_EmptySourceDir(t *testing.T) {
	batch, cfg, _ := newTestBatch(t, nil)

	sum, err := batch.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sum.OK() || sum.Generated != 0 {
		t.Fatalf("summary = %+v, want a clean zero-cursor run", sum)
	}

	got := listDir(t, cfg.Dirs.Output)
	if len(got) != 1 || got[0] != "install.inf" {
		t.Errorf("output dir = %v, want only install.inf", got)
	}
}

func TestRun_OneFailureDoesNotStopTheBatch(t *testing.T) {
	batch, cfg, r := newTestBatch(t, map[string]string{
		"arrow.svg": staticSVG,
		"hand.svg":  staticSVG,
		"wait.svg":  staticSVG,
	})
	r.FailFor = map[string]error{
		filepath.Join(cfg.Dirs.Sources, "hand.svg"): fmt.Errorf("export failed"),
	}

	sum, err := batch.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("per-cursor failures must not abort the run: %v", err)
	}
	if sum.Generated != 2 {
		t.Errorf("generated = %d, want 2", sum.Generated)
	}
	if len(sum.Failed) != 1 || sum.Failed[0].Name != "hand" {
		t.Fatalf("failed = %+v, want exactly hand", sum.Failed)
	}

	if _, err := os.Stat(filepath.Join(cfg.Dirs.Output, "hand.cur")); !os.IsNotExist(err) {
		t.Error("failed cursor must not leave an output file behind")
	}
	for _, name := range []string{"arrow.cur", "wait.cur", "install.inf"} {
		if _, err := os.Stat(filepath.Join(cfg.Dirs.Output, name)); err != nil {
			t.Errorf("missing output file %s", name)
		}
	}
}

func TestRun_CrashIsRetried(t *testing.T) {
	batch, cfg, r := newTestBatch(t, map[string]string{"arrow.svg": staticSVG})
	r.CrashesFor = map[string]int{
		filepath.Join(cfg.Dirs.Sources, "arrow.svg"): 1,
	}

	sum, err := batch.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sum.OK() || sum.Generated != 1 {
		t.Fatalf("summary = %+v, want success after one retry", sum)
	}
	if r.ExportCalls != 2 {
		t.Errorf("export calls = %d, want 2 (crash, then retry)", r.ExportCalls)
	}
}

func TestRun_CrashBeyondRetryBudgetFails(t *testing.T) {
	batch, cfg, r := newTestBatch(t, map[string]string{"arrow.svg": staticSVG})
	batch.cfg.Render.Retries = 0
	r.CrashesFor = map[string]int{
		filepath.Join(cfg.Dirs.Sources, "arrow.svg"): 1,
	}

	sum, err := batch.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sum.Failed) != 1 {
		t.Fatalf("summary = %+v, want one failure with no retry budget", sum)
	}
	if r.ExportCalls != 1 {
		t.Errorf("export calls = %d, want 1", r.ExportCalls)
	}
}

func TestRun_SecondRunSkipsFreshCursors(t *testing.T) {
	batch, cfg, _ := newTestBatch(t, map[string]string{"arrow.svg": staticSVG})

	if _, err := batch.Run(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	first, err := os.ReadFile(filepath.Join(cfg.Dirs.Output, "arrow.cur"))
	if err != nil {
		t.Fatal(err)
	}

	var events []Event
	sum, err := batch.Run(context.Background(), func(e Event) { events = append(events, e) })
	if err != nil {
		t.Fatal(err)
	}
	if sum.Skipped != 1 || sum.Generated != 0 {
		t.Fatalf("summary = %+v, want one skipped cursor", sum)
	}

	skipped := false
	for _, e := range events {
		if e.Name == "arrow" && e.Status == StatusSkipped {
			skipped = true
		}
	}
	if !skipped {
		t.Error("expected a skipped event for arrow")
	}

	second, err := os.ReadFile(filepath.Join(cfg.Dirs.Output, "arrow.cur"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(first, second) {
		t.Error("skipped cursor changed between runs")
	}
}

func TestRun_ForceRegenerates(t *testing.T) {
	batch, _, r := newTestBatch(t, map[string]string{"arrow.svg": staticSVG})

	if _, err := batch.Run(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	batch.Force = true
	sum, err := batch.Run(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if sum.Generated != 1 || sum.Skipped != 0 {
		t.Fatalf("summary = %+v, want regeneration under --force", sum)
	}
	if r.ExportCalls != 2 {
		t.Errorf("export calls = %d, want 2", r.ExportCalls)
	}
}

func TestRun_AnimatedSource(t *testing.T) {
	batch, cfg, _ := newTestBatch(t, map[string]string{"busy.svg": animatedSVG})

	sum, err := batch.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sum.OK() || sum.Generated != 1 {
		t.Fatalf("summary = %+v, want one generated cursor", sum)
	}

	data, err := os.ReadFile(filepath.Join(cfg.Dirs.Output, "busy.ani"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data[:4]) != "RIFF" || string(data[8:12]) != "ACON" {
		t.Errorf("busy.ani is not a RIFF/ACON file: % x", data[:12])
	}
}

func TestRun_UnparsableSourceIsReportedAndSkipped(t *testing.T) {
	batch, cfg, _ := newTestBatch(t, map[string]string{
		"arrow.svg":  staticSVG,
		"broken.svg": "not an svg at all <",
	})

	var failedEvents []string
	sum, err := batch.Run(context.Background(), func(e Event) {
		if e.Status == StatusFailed {
			failedEvents = append(failedEvents, e.Name)
		}
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if sum.Generated != 1 || len(sum.Failed) != 1 || sum.Failed[0].Name != "broken" {
		t.Fatalf("summary = %+v, want arrow generated and broken failed", sum)
	}
	if len(failedEvents) != 1 || failedEvents[0] != "broken" {
		t.Errorf("failed events = %v, want [broken]", failedEvents)
	}
	if _, err := os.Stat(filepath.Join(cfg.Dirs.Output, "arrow.cur")); err != nil {
		t.Error("arrow.cur should still be produced")
	}
}

func TestRun_MissingManifestIsFatal(t *testing.T) {
	batch, _, _ := newTestBatch(t, nil)
	batch.cfg.Manifest = []string{"/nonexistent/install.inf"}

	if _, err := batch.Run(context.Background(), nil); err == nil {
		t.Fatal("expected a fatal error for a missing manifest file")
	}
}

func TestRun_EventOrderForOneCursor(t *testing.T) {
	batch, _, _ := newTestBatch(t, map[string]string{"arrow.svg": staticSVG})

	var statuses []Status
	if _, err := batch.Run(context.Background(), func(e Event) {
		if e.Warning == "" {
			statuses = append(statuses, e.Status)
		}
	}); err != nil {
		t.Fatal(err)
	}

	want := []Status{StatusRendering, StatusAssembling, StatusDone}
	if len(statuses) != len(want) {
		t.Fatalf("statuses = %v, want %v", statuses, want)
	}
	for i, s := range want {
		if statuses[i] != s {
			t.Errorf("statuses[%d] = %v, want %v", i, statuses[i], s)
		}
	}
}

func TestIsFresh(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.svg")
	out := filepath.Join(dir, "a.cur")

	if err := os.WriteFile(src, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if isFresh(out, src) {
		t.Error("missing output must not be fresh")
	}

	if err := os.WriteFile(out, []byte("y"), 0o644); err != nil {
		t.Fatal(err)
	}
	old := time.Now().Add(-time.Hour)
	if err := os.Chtimes(out, old, old); err != nil {
		t.Fatal(err)
	}
	if isFresh(out, src) {
		t.Error("stale output must not be fresh")
	}

	newer := time.Now().Add(time.Hour)
	if err := os.Chtimes(out, newer, newer); err != nil {
		t.Fatal(err)
	}
	if !isFresh(out, src) {
		t.Error("newer output should be fresh")
	}
}
