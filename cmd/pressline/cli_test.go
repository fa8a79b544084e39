package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTestConfig(t *testing.T) string {
	t.Helper()

	base := t.TempDir()
	configPath := filepath.Join(base, "config.toml")
	content := fmt.Sprintf(`[paths]
data_dir = %q
log_dir = %q

[server]
bind = ""

[learning]
recompute_schedule = ""
`, filepath.Join(base, "data"), filepath.Join(base, "logs"))
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return configPath
}

func runCLI(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	if configPath != "" {
		args = append([]string{"--config", configPath}, args...)
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func requireContains(t *testing.T, output, want string) {
	t.Helper()
	if !strings.Contains(output, want) {
		t.Fatalf("expected output to contain %q, got:\n%s", want, output)
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	base := t.TempDir()
	target := filepath.Join(base, "nested", "config.toml")

	out, err := runCLI(t, "", "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, err := runCLI(t, "", "config", "init", "--path", target); err == nil {
		t.Fatal("second init without --overwrite should fail")
	}
	if _, err := runCLI(t, "", "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Fatalf("init with --overwrite: %v", err)
	}

	configPath := writeTestConfig(t)
	out, err = runCLI(t, configPath, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, configPath)
}

func TestOrderLineLifecycle(t *testing.T) {
	configPath := writeTestConfig(t)

	out, err := runCLI(t, configPath, "order", "create", "Acme Print Co", "--due", "2026-10-15", "--lines", "1")
	if err != nil {
		t.Fatalf("order create: %v", err)
	}
	requireContains(t, out, "Created order")

	var lineID string
	for _, raw := range strings.Split(out, "\n") {
		trimmed := strings.TrimSpace(raw)
		if strings.HasPrefix(trimmed, "line ") {
			lineID = strings.TrimPrefix(trimmed, "line ")
		}
	}
	if lineID == "" {
		t.Fatalf("could not find line id in output:\n%s", out)
	}

	for i := 0; i < 3; i++ {
		out, err = runCLI(t, configPath, "line", "advance", lineID)
		if err != nil {
			t.Fatalf("advance %d: %v", i, err)
		}
		requireContains(t, out, "is now at")
	}

	out, err = runCLI(t, configPath, "line", "assign", lineID, "--assignee", "op-7")
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	requireContains(t, out, "op-7")

	out, err = runCLI(t, configPath, "order", "list")
	if err != nil {
		t.Fatalf("order list: %v", err)
	}
	requireContains(t, out, "Acme Print Co")

	out, err = runCLI(t, configPath, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "Manufacturing")
}

func TestLineShowAndDelay(t *testing.T) {
	configPath := writeTestConfig(t)

	out, err := runCLI(t, configPath, "order", "create", "Maple Cards", "--due", "2026-09-10", "--lines", "1")
	if err != nil {
		t.Fatalf("order create: %v", err)
	}
	var lineID string
	for _, raw := range strings.Split(out, "\n") {
		trimmed := strings.TrimSpace(raw)
		if strings.HasPrefix(trimmed, "line ") {
			lineID = strings.TrimPrefix(trimmed, "line ")
		}
	}
	if lineID == "" {
		t.Fatalf("could not find line id in output:\n%s", out)
	}

	out, err = runCLI(t, configPath, "line", "delay", lineID, "--category", "material_shortage", "--note", "paper stock late")
	if err != nil {
		t.Fatalf("delay: %v", err)
	}
	requireContains(t, out, "1 reasons logged")

	out, err = runCLI(t, configPath, "line", "show", lineID)
	if err != nil {
		t.Fatalf("line show: %v", err)
	}
	requireContains(t, out, "Intake")
	requireContains(t, out, "material_shortage")

	if _, err := runCLI(t, configPath, "line", "advance", "no-such-line"); err == nil {
		t.Fatal("advancing an unknown line should fail")
	}
}

func TestBaselineShow(t *testing.T) {
	configPath := writeTestConfig(t)

	out, err := runCLI(t, configPath, "baseline", "recompute")
	if err != nil {
		t.Fatalf("baseline recompute: %v", err)
	}
	requireContains(t, out, "Baseline")

	out, err = runCLI(t, configPath, "baseline", "show")
	if err != nil {
		t.Fatalf("baseline show: %v", err)
	}
	requireContains(t, out, "Manufacturing")
}
