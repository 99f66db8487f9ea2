// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/go-cmp/cmp"

	"github.com/dupetable/dupetable/internal/config"
	"github.com/dupetable/dupetable/internal/recipe"
	"github.com/dupetable/dupetable/internal/testutil"
)

type harness struct {
	dir     string
	dataDir string
	cfgPath string
	stdout  *bytes.Buffer
	stderr  *bytes.Buffer
	app     *App
}

func newHarness(t *testing.T, extraConfig string) *harness {
	t.Helper()

	dir := t.TempDir()
	h := &harness{
		dir:     dir,
		dataDir: filepath.Join(dir, "data"),
		cfgPath: filepath.Join(dir, "config.cue"),
		stdout:  &bytes.Buffer{},
		stderr:  &bytes.Buffer{},
	}
	testutil.MustWriteFile(t, dir, "config.cue",
		fmt.Sprintf("paths: {\n\tdata_dir: %q\n\ttemp_dir: %q\n}\n%s", h.dataDir, dir, extraConfig))
	h.app = NewApp(Dependencies{Stdout: h.stdout, Stderr: h.stderr})
	return h
}

func (h *harness) run(t *testing.T, args ...string) error {
	t.Helper()

	h.stdout.Reset()
	h.stderr.Reset()
	root := NewRootCommand(h.app)
	root.SetArgs(append(args, "--config", h.cfgPath))
	root.SetOut(h.stdout)
	root.SetErr(h.stderr)
	return root.ExecuteContext(t.Context())
}

func exitCode(t *testing.T, err error) int {
	t.Helper()

	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("error %v is not an *ExitError", err)
	}
	return exitErr.Code
}

func zipEntries(t *testing.T, path string) []string {
	t.Helper()

	zr, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("zip.OpenReader(%s) error: %v", path, err)
	}
	defer zr.Close()
	names := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	sort.Strings(names)
	return names
}

func TestClassifyReport(t *testing.T) {
	t.Parallel()

	h := newHarness(t, "")
	txt := testutil.MustWriteFile(t, h.dir, "items.txt", "minecraft:stone\niron_ingot\ndiamond_sword\n")
	js := testutil.MustWriteFile(t, h.dir, "items.json", `{"items": ["minecraft:stone", "elytra"]}`)
	bad := testutil.MustWriteFile(t, h.dir, "items.csv", "stone")

	if err := h.run(t, "classify", "--list", txt, js, bad); err != nil {
		t.Fatalf("classify error: %v\nstderr: %s", err, h.stderr)
	}

	out := h.stdout.String()
	for _, want := range []string{
		"items.txt", "(3 items)",
		"items.json", "(2 items)",
		"items.csv",
		"Unique items", "Stackable items",
		"iron_ingot", "stone",
		"Filtered out", "diamond_sword (swords)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("classify output missing %q:\n%s", want, out)
		}
	}
}

func TestClassifyNoUsableCatalog(t *testing.T) {
	t.Parallel()

	h := newHarness(t, "")
	bad := testutil.MustWriteFile(t, h.dir, "items.csv", "stone")
	empty := testutil.MustWriteFile(t, h.dir, "empty.txt", "# nothing here\n")

	err := h.run(t, "classify", bad, empty)
	if got := exitCode(t, err); got != 1 {
		t.Fatalf("exit code = %d, want 1", got)
	}
	if !strings.Contains(h.stderr.String(), "read catalogs") {
		t.Errorf("stderr = %q, want the failed operation", h.stderr.String())
	}
}

func TestInitWritesTemplateOnce(t *testing.T) {
	t.Parallel()

	h := newHarness(t, "")
	cfgOut := filepath.Join(h.dir, "generated", "config.cue")

	if err := h.run(t, "init", "--write-config", cfgOut); err != nil {
		t.Fatalf("init error: %v\nstderr: %s", err, h.stderr)
	}
	tmplPath := filepath.Join(h.dataDir, "recipe.json.tmpl")
	got, err := os.ReadFile(tmplPath)
	if err != nil {
		t.Fatalf("read template: %v", err)
	}
	if !bytes.Equal(got, recipe.DefaultTemplate()) {
		t.Error("init wrote a template that differs from the default")
	}
	if _, err := os.Stat(cfgOut); err != nil {
		t.Errorf("config not written: %v", err)
	}

	if err := os.WriteFile(tmplPath, []byte("custom"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := h.run(t, "init"); err != nil {
		t.Fatalf("second init error: %v", err)
	}
	if !strings.Contains(h.stdout.String(), "already exists") {
		t.Errorf("second init output = %q, want already exists", h.stdout.String())
	}
	if got, _ := os.ReadFile(tmplPath); string(got) != "custom" {
		t.Errorf("second init overwrote the template: %q", got)
	}

	if err := h.run(t, "init", "--force"); err != nil {
		t.Fatalf("init --force error: %v", err)
	}
	if got, _ := os.ReadFile(tmplPath); !bytes.Equal(got, recipe.DefaultTemplate()) {
		t.Error("init --force did not restore the default template")
	}
}

func TestGenerateStandard(t *testing.T) {
	t.Parallel()

	h := newHarness(t, "")
	if err := h.run(t, "init"); err != nil {
		t.Fatalf("init error: %v", err)
	}
	items := testutil.MustWriteFile(t, h.dir, "items.txt", "stone\niron_ingot\ndiamond_sword\nstone\n")
	out := filepath.Join(h.dir, "out.zip")

	if err := h.run(t, "generate", "--out", out, items); err != nil {
		t.Fatalf("generate error: %v\nstderr: %s", err, h.stderr)
	}

	want := []string{"duplicating_table.json", "iron_ingot_19.json", "stone_19.json"}
	if diff := cmp.Diff(want, zipEntries(t, out)); diff != "" {
		t.Errorf("archive entries mismatch (-want +got):\n%s", diff)
	}
	stdout := h.stdout.String()
	if !strings.Contains(stdout, "Wrote 2 recipe file(s)") {
		t.Errorf("stdout = %q, want rendered count", stdout)
	}
	if !strings.Contains(stdout, "1 non-stackable item(s) filtered out") {
		t.Errorf("stdout = %q, want filtered count", stdout)
	}
}

func TestGenerateDatapackDefaultName(t *testing.T) {
	h := newHarness(t, "")
	if err := h.run(t, "init"); err != nil {
		t.Fatalf("init error: %v", err)
	}
	items := testutil.MustWriteFile(t, h.dir, "items.txt", "stone\n")
	t.Chdir(h.dir)

	if err := h.run(t, "generate", "--format", "datapack", items); err != nil {
		t.Fatalf("generate error: %v\nstderr: %s", err, h.stderr)
	}
	entries := zipEntries(t, filepath.Join(h.dir, "minecraft_recipes_datapack.zip"))
	if len(entries) == 0 {
		t.Fatal("datapack archive is empty")
	}
}

func TestGenerateFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		init       bool
		args       func(t *testing.T, h *harness) []string
		wantCode   int
		wantStderr string
	}{
		{
			name: "unknown format",
			init: true,
			args: func(t *testing.T, h *harness) []string {
				return []string{"--format", "zipfile", testutil.MustWriteFile(t, h.dir, "a.txt", "stone")}
			},
			wantCode:   2,
			wantStderr: "select format",
		},
		{
			name: "template missing",
			args: func(t *testing.T, h *harness) []string {
				return []string{testutil.MustWriteFile(t, h.dir, "a.txt", "stone")}
			},
			wantCode:   1,
			wantStderr: "dupetable init",
		},
		{
			name: "only non-stackable items",
			init: true,
			args: func(t *testing.T, h *harness) []string {
				return []string{testutil.MustWriteFile(t, h.dir, "a.txt", "diamond_sword\nelytra")}
			},
			wantCode:   1,
			wantStderr: "non-stackable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := newHarness(t, "")
			if tt.init {
				if err := h.run(t, "init"); err != nil {
					t.Fatalf("init error: %v", err)
				}
			}
			args := append([]string{"generate", "--out", filepath.Join(h.dir, "out.zip")}, tt.args(t, h)...)
			err := h.run(t, args...)
			if got := exitCode(t, err); got != tt.wantCode {
				t.Fatalf("exit code = %d, want %d (err %v)", got, tt.wantCode, err)
			}
			if !strings.Contains(h.stderr.String(), tt.wantStderr) {
				t.Errorf("stderr = %q, want it to contain %q", h.stderr.String(), tt.wantStderr)
			}
			if _, err := os.Stat(filepath.Join(h.dir, "out.zip")); err == nil {
				t.Error("archive written despite failure")
			}
		})
	}
}

func TestConfigShowAndDump(t *testing.T) {
	t.Parallel()

	h := newHarness(t, "rate_limit: requests: 3\n")

	if err := h.run(t, "config", "show"); err != nil {
		t.Fatalf("config show error: %v\nstderr: %s", err, h.stderr)
	}
	out := h.stdout.String()
	for _, want := range []string{h.cfgPath, h.dataDir, filepath.Join(h.dataDir, "recipe.json.tmpl"), "requests"} {
		if !strings.Contains(out, want) {
			t.Errorf("config show output missing %q:\n%s", want, out)
		}
	}

	if err := h.run(t, "config", "dump"); err != nil {
		t.Fatalf("config dump error: %v", err)
	}
	if !strings.Contains(h.stdout.String(), "requests: 3") {
		t.Errorf("config dump output missing overridden value:\n%s", h.stdout.String())
	}
}

func TestConfigShowInvalidFile(t *testing.T) {
	t.Parallel()

	h := newHarness(t, "log_level: \"loud\"\n")
	err := h.run(t, "config", "show")
	if got := exitCode(t, err); got != 1 {
		t.Fatalf("exit code = %d, want 1", got)
	}
}

func TestIssueCommand(t *testing.T) {
	t.Parallel()

	h := newHarness(t, "")

	if err := h.run(t, "issue"); err != nil {
		t.Fatalf("issue error: %v", err)
	}
	for _, name := range []string{"template-not-found", "rate-limited", "config-load-failed"} {
		if !strings.Contains(h.stdout.String(), name) {
			t.Errorf("issue list missing %q", name)
		}
	}

	if err := h.run(t, "issue", "template-not-found", "--style", "notty"); err != nil {
		t.Fatalf("issue template-not-found error: %v", err)
	}
	if strings.TrimSpace(h.stdout.String()) == "" {
		t.Error("issue rendered nothing")
	}

	if got := exitCode(t, h.run(t, "issue", "no-such-issue")); got != 1 {
		t.Errorf("unknown issue exit code = %d, want 1", got)
	}
}

func TestNewLoggerLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		level   config.LogLevel
		verbose bool
		want    log.Level
	}{
		{name: "from config", level: config.LogLevelWarn, want: log.WarnLevel},
		{name: "verbose wins", level: config.LogLevelError, verbose: true, want: log.DebugLevel},
		{name: "unparseable falls back", level: "loud", want: log.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			app := NewApp(Dependencies{Stderr: &bytes.Buffer{}})
			app.verbose = tt.verbose
			cfg := config.DefaultConfig()
			cfg.LogLevel = tt.level
			if got := app.newLogger(cfg).GetLevel(); got != tt.want {
				t.Errorf("level = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestServiceRunsUntilCanceled(t *testing.T) {
	t.Parallel()

	h := newHarness(t, "server: port: 0\n")
	cfg, err := h.app.Config.Load(t.Context(), config.LoadOptions{ConfigFilePath: h.cfgPath})
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	svc, err := buildService(t.Context(), cfg, log.New(&bytes.Buffer{}))
	if err != nil {
		t.Fatalf("buildService() error: %v", err)
	}
	defer svc.close()
	if len(svc.sweepers) != 2 {
		t.Errorf("sweepers = %d, want 2", len(svc.sweepers))
	}
	if svc.watcher == nil {
		t.Error("template watcher not started")
	}
	if len(svc.workers) != 1 {
		t.Errorf("workers = %d, want the memory limiter pruner", len(svc.workers))
	}

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- svc.run(ctx) }()

	client := &http.Client{Timeout: time.Second, Transport: &http.Transport{DisableKeepAlives: true}}
	deadline := time.Now().Add(5 * time.Second)
	for {
		if url := svc.server.URL(); url != "" {
			resp, err := client.Get(url + "/health")
			if err == nil {
				resp.Body.Close()
				if resp.StatusCode == http.StatusOK {
					break
				}
			}
		}
		if time.Now().After(deadline) {
			t.Fatal("server never became healthy")
		}
		time.Sleep(20 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("run() error: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("run() did not return after cancel")
	}
}
