package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

func TestSpecificationDefaults(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	clearTestEnv(t)

	tmpDir := t.TempDir()
	ref := writeCSV(t, tmpDir, "ref.csv", "Customer_ID,Customer_Name\n1,Foo\n")
	messy := writeCSV(t, tmpDir, "messy.csv", "Customer_ID,Customer_Name\n1,Fo\n")

	os.Args = []string{"test", "--reference-table", ref, "--messy-table", messy}

	cfg, err := Load("", fs)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.LogLevel != "info" {
		t.Errorf("Expected LogLevel %q, got %q", "info", cfg.LogLevel)
	}
	if cfg.OperatingDir != "." {
		t.Errorf("Expected OperatingDir %q, got %q", ".", cfg.OperatingDir)
	}
	if cfg.DiffPercent != 0.05 {
		t.Errorf("Expected DiffPercent 0.05, got %v", cfg.DiffPercent)
	}
}

func TestLoadFromYAMLFile(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "test-config.yaml")

	yamlContent := `
BackboneConfiguration:
  reference_groups:
    ID: ["Customer_ID(1)"]
  target_groups:
    ID: ["Customer_ID(5)"]
  ref_to_tgt:
    ID: ID
  tgt_to_ref:
    ID: [ID]
  reference_key_col: "Customer_ID"
  target_key_col: "Customer_ID"
DataToConsume:
  ReferenceTable: "ref.csv"
  MessyTable: "messy.csv"
OperatingDir: "/tmp/out"
logLevel: "debug"
diffPercent: 0.2
`
	if err := os.WriteFile(configFile, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	clearTestEnv(t)
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	os.Args = []string{"test"}

	cfg, err := Load(configFile, fs)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Data.ReferenceTable != "ref.csv" {
		t.Errorf("Expected ReferenceTable 'ref.csv', got %q", cfg.Data.ReferenceTable)
	}
	if cfg.Backbone.ReferenceKeyCol != "Customer_ID" {
		t.Errorf("Expected ReferenceKeyCol 'Customer_ID', got %q", cfg.Backbone.ReferenceKeyCol)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("Expected LogLevel 'debug', got %q", cfg.LogLevel)
	}
	if cfg.DiffPercent != 0.2 {
		t.Errorf("Expected DiffPercent 0.2, got %v", cfg.DiffPercent)
	}
	links := cfg.Backbone.TgtToRef.Links("ID")
	if len(links) != 1 || links[0] != "ID" {
		t.Errorf("Expected tgt_to_ref links [ID], got %v", links)
	}
}

func TestLoadFromFlags(t *testing.T) {
	clearTestEnv(t)

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)

	args := []string{
		"--reference-table", "r.csv",
		"--messy-table", "m.csv",
		"--operating-dir", "/out",
		"--log-level", "warn",
		"--diff-percent", "0.1",
	}
	os.Args = append([]string{"test"}, args...)

	cfg, err := Load("", fs)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Data.ReferenceTable != "r.csv" {
		t.Errorf("Expected ReferenceTable 'r.csv', got %q", cfg.Data.ReferenceTable)
	}
	if cfg.OperatingDir != "/out" {
		t.Errorf("Expected OperatingDir '/out', got %q", cfg.OperatingDir)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("Expected LogLevel 'warn', got %q", cfg.LogLevel)
	}
	if cfg.DiffPercent != 0.1 {
		t.Errorf("Expected DiffPercent 0.1, got %v", cfg.DiffPercent)
	}
}

func TestConfigPrecedence(t *testing.T) {
	clearTestEnv(t)
	t.Setenv("FUZZYDB_LOG_LEVEL", "env-level")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	os.Args = []string{"test", "--reference-table", "r.csv", "--messy-table", "m.csv", "--log-level", "flag-level"}

	cfg, err := Load("", fs)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.LogLevel != "flag-level" {
		t.Errorf("Expected LogLevel 'flag-level' (flag overrides env), got %q", cfg.LogLevel)
	}
}

func TestValidationMissingTables(t *testing.T) {
	clearTestEnv(t)
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	os.Args = []string{"test"}

	_, err := Load("", fs)
	if err == nil {
		t.Fatal("Expected validation error for missing reference table")
	}
	if !strings.Contains(err.Error(), "reference table") {
		t.Errorf("Expected reference table validation error, got: %v", err)
	}
}

func TestNonExistentConfigFile(t *testing.T) {
	clearTestEnv(t)
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	os.Args = []string{"test"}

	_, err := Load("/non/existent/config.yaml", fs)
	if err == nil {
		t.Fatal("Expected error for non-existent config file")
	}
	if !strings.Contains(err.Error(), "config file not found") {
		t.Errorf("Expected: config file not found, got: %v", err)
	}
}

func TestFileExists(t *testing.T) {
	tmpDir := t.TempDir()

	existingFile := filepath.Join(tmpDir, "existing.txt")
	if err := os.WriteFile(existingFile, []byte("test"), 0644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	if !fileExists(existingFile) {
		t.Error("fileExists should return true for existing file")
	}
	if fileExists(filepath.Join(tmpDir, "nonexistent.txt")) {
		t.Error("fileExists should return false for non-existent file")
	}
	if fileExists(tmpDir) {
		t.Error("fileExists should return false for directory")
	}
}

func TestLinksNormalization(t *testing.T) {
	l := LinkSpec{
		"a": "single",
		"b": []any{"x", "y"},
		"c": []string{"z"},
	}
	if got := l.Links("a"); len(got) != 1 || got[0] != "single" {
		t.Errorf("Links(a) = %v", got)
	}
	if got := l.Links("b"); len(got) != 2 || got[0] != "x" || got[1] != "y" {
		t.Errorf("Links(b) = %v", got)
	}
	if got := l.Links("c"); len(got) != 1 || got[0] != "z" {
		t.Errorf("Links(c) = %v", got)
	}
	if got := l.Links("missing"); got != nil {
		t.Errorf("Links(missing) = %v, want nil", got)
	}
}

func writeCSV(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func clearTestEnv(t *testing.T) {
	t.Helper()
	envVars := []string{
		"FUZZYDB_CONFIG", "FUZZYDB_LOG_LEVEL", "FUZZYDB_DIFF_PERCENT",
		"FUZZYDB_OPERATING_DIR",
	}
	for _, v := range envVars {
		if err := os.Unsetenv(v); err != nil {
			t.Logf("unset %s: %v", v, err)
		}
	}
}
