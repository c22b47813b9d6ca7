package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type cliTestEnv struct {
	baseDir    string
	configPath string
	modelDir   string
	inputDir   string
	outputDir  string
	logDir     string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	env := &cliTestEnv{
		baseDir:    base,
		configPath: filepath.Join(base, "config.toml"),
		modelDir:   filepath.Join(base, "model"),
		inputDir:   filepath.Join(base, "audio"),
		outputDir:  filepath.Join(base, "out"),
		logDir:     filepath.Join(base, "logs"),
	}

	if err := os.MkdirAll(env.modelDir, 0o755); err != nil {
		t.Fatalf("create model dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(env.modelDir, "model.bin"), []byte("weights"), 0o644); err != nil {
		t.Fatalf("write model file: %v", err)
	}
	if err := os.MkdirAll(env.inputDir, 0o755); err != nil {
		t.Fatalf("create input dir: %v", err)
	}

	writeTestConfig(t, env)
	return env
}

func writeTestConfig(t *testing.T, env *cliTestEnv) {
	t.Helper()
	content := fmt.Sprintf(`[model]
dir = %q

[device]
asr = "cpu"

[asr]
language = "en"
compute_type = "float32"

[audio]
output_dir = %q

[logging]
dir = %q
`, env.modelDir, env.outputDir, env.logDir)
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if configPath != "" {
		args = append([]string{"--config", configPath}, args...)
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// stubEngineScript mimics the engine CLI: it locates the --output_dir
// argument and drops a JSON payload named after the source file there.
const stubEngineScript = `#!/bin/sh
out=""
prev=""
for arg in "$@"; do
  if [ "$prev" = "--output_dir" ]; then
    out="$arg"
  fi
  prev="$arg"
done
src="$2"
base=$(basename "$src")
stem="${base%.*}"
cat > "$out/$stem.json" <<'PAYLOAD'
{"text": "stub transcript", "language": "en", "segments": [{"text": "stub transcript", "start": 0.0, "end": 1.5}]}
PAYLOAD
`

const failingEngineScript = `#!/bin/sh
echo "decoder exploded" >&2
exit 2
`

func stubBinary(t *testing.T, name, script string) {
	t.Helper()
	binDir := t.TempDir()
	path := filepath.Join(binDir, name)
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub %s: %v", name, err)
	}
	t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))
}

func stubEngineBinary(t *testing.T, script string) {
	t.Helper()
	stubBinary(t, "uvx", script)
}

func writeAudioFixture(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("RIFF0000WAVE"), 0o644); err != nil {
		t.Fatalf("write audio fixture: %v", err)
	}
	return path
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func artifactsDirFromOutput(t *testing.T, output string) string {
	t.Helper()
	for _, line := range strings.Split(output, "\n") {
		if strings.HasPrefix(line, "Artifacts: ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "Artifacts: "))
		}
	}
	t.Fatalf("no artifacts line in output:\n%s", output)
	return ""
}

func TestRootCommandShowsHelp(t *testing.T) {
	out, _, err := runCLI(t, nil, "")
	if err != nil {
		t.Fatalf("root command: %v", err)
	}
	requireContains(t, out, "scribe")
	requireContains(t, out, "run")
	requireContains(t, out, "status")
}
