package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestDBCmd_Help(t *testing.T) {
	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"db", "--help"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("db --help failed: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "Database management") {
		t.Errorf("expected help to mention 'Database management', got: %s", out)
	}
	for _, sub := range []string{"migrate", "seed"} {
		if !strings.Contains(out, sub) {
			t.Errorf("expected help to list %q subcommand, got: %s", sub, out)
		}
	}
}

func TestDBSeedCmd_Flags(t *testing.T) {
	cmd := newDBSeedCmd()
	if cmd.Use != "seed" {
		t.Errorf("Use = %q, want %q", cmd.Use, "seed")
	}

	fileFlag := cmd.Flags().Lookup("file")
	if fileFlag == nil {
		t.Fatal("expected --file flag")
	}
	if fileFlag.DefValue != "projects.yaml" {
		t.Errorf("--file default = %q, want %q", fileFlag.DefValue, "projects.yaml")
	}
	if fileFlag.Shorthand != "f" {
		t.Errorf("--file shorthand = %q, want %q", fileFlag.Shorthand, "f")
	}
}

func TestDBSeedCmd_MissingFile(t *testing.T) {
	t.Setenv("AUTOCLAUDE_DATABASE_URL", "root@tcp(127.0.0.1:3306)/taskboard")

	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"db", "seed", "--file", "/nonexistent/projects.yaml"})

	err := cmd.Execute()
	if err == nil {
		t.Fatal("expected error for missing seed file")
	}
	if !strings.Contains(err.Error(), "read seed file") {
		t.Errorf("expected 'read seed file' in error, got: %v", err)
	}
}
