package main

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/fennwick/taskboard/internal/config"
	"github.com/fennwick/taskboard/internal/db"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gorm.io/gorm"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check daemon prerequisites and configuration",
		Long:  "Runs diagnostic checks on AUTOCLAUDE prerequisites: environment, external tools, database, schema, and workspace.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor(cmd)
		},
	}
}

type checkResult struct {
	name   string
	status string // "PASS", "FAIL", "WARN"
	detail string
}

func runDoctor(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "AUTOCLAUDE Doctor")
	fmt.Fprintln(out, "=================")

	var results []checkResult

	// 1. Environment
	cfg, cfgResult := checkEnvironment()
	results = append(results, cfgResult)

	// 2. External tools
	if cfg != nil {
		results = append(results, checkBinary("Git", cfg.GitBinary))
		results = append(results, checkBinary("GitHub CLI", cfg.GhBinary))
		results = append(results, checkBinary("Codegen CLI", cfg.CodegenBinary))
		results = append(results, checkGhAuth(cfg.GhBinary))
	} else {
		results = append(results, checkBinary("Git", "git"))
		results = append(results, checkBinary("GitHub CLI", "gh"))
		results = append(results, checkBinary("Codegen CLI", "claude"))
	}

	// 3. Database and schema
	if cfg != nil {
		gdb, dbResult := checkDatabase(cfg.DatabaseURL)
		results = append(results, dbResult)
		if gdb != nil {
			results = append(results, checkSchema(gdb))
		} else {
			results = append(results, checkResult{"Schema", "FAIL", "skipped (no database)"})
		}
	} else {
		results = append(results, checkResult{"Database", "FAIL", "skipped (no config)"})
		results = append(results, checkResult{"Schema", "FAIL", "skipped (no config)"})
	}

	// 4. Workspace
	if cfg != nil {
		results = append(results, checkWorkspace(cfg.WorkspaceRoot))
	}

	passed, failed, warned := 0, 0, 0
	for _, r := range results {
		printCheckResult(out, r)
		switch r.status {
		case "PASS":
			passed++
		case "FAIL":
			failed++
		case "WARN":
			warned++
		}
	}

	fmt.Fprintf(out, "\n%d passed, %d failed, %d warning\n", passed, failed, warned)

	if failed > 0 {
		return fmt.Errorf("%d check(s) failed", failed)
	}
	return nil
}

func printCheckResult(out io.Writer, r checkResult) {
	fmt.Fprintf(out, "[%s] %s: %s\n", colorStatus(out, r.status), r.name, r.detail)
}

// colorStatus wraps the status label in ANSI color when out is a terminal.
func colorStatus(out io.Writer, status string) string {
	f, ok := out.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return status
	}
	switch status {
	case "PASS":
		return "\033[32m" + status + "\033[0m"
	case "FAIL":
		return "\033[31m" + status + "\033[0m"
	case "WARN":
		return "\033[33m" + status + "\033[0m"
	}
	return status
}

func checkEnvironment() (*config.Config, checkResult) {
	cfg, err := config.Load()
	if err != nil {
		return nil, checkResult{"Environment", "FAIL", err.Error()}
	}
	return cfg, checkResult{"Environment", "PASS", "instance " + cfg.InstanceID}
}

func checkBinary(label, name string) checkResult {
	path, err := exec.LookPath(name)
	if err != nil {
		return checkResult{label, "FAIL", fmt.Sprintf("%s not found in PATH", name)}
	}

	out, err := exec.Command(path, "--version").Output()
	if err != nil {
		return checkResult{label, "PASS", "found (version unknown)"}
	}
	version := strings.TrimSpace(strings.Split(string(out), "\n")[0])
	return checkResult{label, "PASS", version}
}

func checkGhAuth(ghBinary string) checkResult {
	out, err := exec.Command(ghBinary, "auth", "status").CombinedOutput()
	if err != nil {
		detail := strings.TrimSpace(string(out))
		if detail == "" {
			detail = err.Error()
		}
		return checkResult{"GitHub auth", "WARN", "not authenticated: " + firstLine(detail)}
	}
	return checkResult{"GitHub auth", "PASS", "authenticated"}
}

func checkDatabase(dsn string) (*gorm.DB, checkResult) {
	gdb, err := db.Connect(dsn)
	if err != nil {
		return nil, checkResult{"Database", "FAIL", err.Error()}
	}
	return gdb, checkResult{"Database", "PASS", "connected"}
}

func checkSchema(gdb *gorm.DB) checkResult {
	var missing []string
	for _, model := range db.AllModels() {
		if !gdb.Migrator().HasTable(model) {
			missing = append(missing, fmt.Sprintf("%T", model))
		}
	}
	if len(missing) > 0 {
		return checkResult{"Schema", "FAIL", "missing tables for " + strings.Join(missing, ", ") + " (run: autoclaude db migrate)"}
	}
	return checkResult{"Schema", "PASS", fmt.Sprintf("%d tables present", len(db.AllModels()))}
}

func checkWorkspace(root string) checkResult {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return checkResult{"Workspace", "FAIL", fmt.Sprintf("%s: %v", root, err)}
	}
	probe, err := os.CreateTemp(root, ".doctor-*")
	if err != nil {
		return checkResult{"Workspace", "FAIL", fmt.Sprintf("%s not writable: %v", root, err)}
	}
	probe.Close()
	os.Remove(probe.Name())
	return checkResult{"Workspace", "PASS", root}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
