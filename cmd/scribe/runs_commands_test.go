package main

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestCLIRunsListShowClear(t *testing.T) {
	env := setupCLITestEnv(t)
	stubEngineBinary(t, stubEngineScript)
	writeAudioFixture(t, env.inputDir, "alpha.wav")

	if _, _, err := runCLI(t, []string{"run", env.inputDir}, env.configPath); err != nil {
		t.Fatalf("seed run: %v", err)
	}

	out, _, err := runCLI(t, []string{"runs", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("runs list: %v", err)
	}
	requireContains(t, out, "completed")
	requireContains(t, out, "cpu")

	out, _, err = runCLI(t, []string{"runs", "show", "1"}, env.configPath)
	if err != nil {
		t.Fatalf("runs show: %v", err)
	}
	requireContains(t, out, "1 succeeded, 0 failed")
	requireContains(t, out, "alpha")

	out, _, err = runCLI(t, []string{"runs", "clear"}, env.configPath)
	if err != nil {
		t.Fatalf("runs clear: %v", err)
	}
	requireContains(t, out, "Cleared 1 runs")

	out, _, err = runCLI(t, []string{"runs", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("runs list after clear: %v", err)
	}
	requireContains(t, out, "No runs recorded")
}

func TestCLIRunsParentListsDirectly(t *testing.T) {
	env := setupCLITestEnv(t)
	stubEngineBinary(t, stubEngineScript)
	writeAudioFixture(t, env.inputDir, "alpha.wav")

	if _, _, err := runCLI(t, []string{"run", env.inputDir}, env.configPath); err != nil {
		t.Fatalf("seed run: %v", err)
	}

	out, _, err := runCLI(t, []string{"runs"}, env.configPath)
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	requireContains(t, out, "completed")
	requireContains(t, out, "cpu")
}

func TestCLIRunsListJSON(t *testing.T) {
	env := setupCLITestEnv(t)
	stubEngineBinary(t, stubEngineScript)
	writeAudioFixture(t, env.inputDir, "alpha.wav")

	if _, _, err := runCLI(t, []string{"run", env.inputDir}, env.configPath); err != nil {
		t.Fatalf("seed run: %v", err)
	}

	out, _, err := runCLI(t, []string{"runs", "list", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("runs list --json: %v", err)
	}

	var views []struct {
		ID        int64  `json:"id"`
		RunID     string `json:"run_id"`
		Status    string `json:"status"`
		Device    string `json:"device"`
		Succeeded int    `json:"succeeded"`
		Failed    int    `json:"failed"`
	}
	if err := json.Unmarshal([]byte(out), &views); err != nil {
		t.Fatalf("decode runs: %v\noutput:\n%s", err, out)
	}
	if len(views) != 1 {
		t.Fatalf("expected 1 run, got %d", len(views))
	}
	run := views[0]
	if run.ID == 0 || run.RunID == "" {
		t.Fatalf("expected populated identifiers, got %+v", run)
	}
	if run.Status != "completed" || run.Device != "cpu" {
		t.Fatalf("unexpected run row: %+v", run)
	}
	if run.Succeeded != 1 || run.Failed != 0 {
		t.Fatalf("counts = %d/%d, want 1/0", run.Succeeded, run.Failed)
	}
}

func TestCLIRunsShowUnknownID(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"runs", "show", "99"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected not-found error, got %v", err)
	}

	_, _, err = runCLI(t, []string{"runs", "show", "abc"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "invalid run id") {
		t.Fatalf("expected invalid id error, got %v", err)
	}
}
