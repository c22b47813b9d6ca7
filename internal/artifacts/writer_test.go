package artifacts_test

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"scribe/internal/artifacts"
	"scribe/internal/config"
	"scribe/internal/services"
	"scribe/internal/services/whisper"
)

func TestNewRunID(t *testing.T) {
	start := time.Date(2026, 3, 14, 9, 26, 53, 0, time.Local)
	got := artifacts.NewRunID(start)
	if got != "20260314_092653" {
		t.Fatalf("NewRunID = %q, want %q", got, "20260314_092653")
	}
}

func TestPrepareRunCreatesDirectory(t *testing.T) {
	root := filepath.Join(t.TempDir(), "out")

	runDir, err := artifacts.PrepareRun(root, "20260314_092653")
	if err != nil {
		t.Fatalf("PrepareRun returned error: %v", err)
	}
	if runDir != filepath.Join(root, "20260314_092653") {
		t.Fatalf("unexpected run dir %q", runDir)
	}

	info, err := os.Stat(runDir)
	if err != nil {
		t.Fatalf("stat run dir: %v", err)
	}
	if !info.IsDir() {
		t.Fatal("expected run dir to be a directory")
	}
	entries, err := os.ReadDir(runDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty run dir, found %d entries", len(entries))
	}
}

func TestPrepareRunRejectsCollision(t *testing.T) {
	root := t.TempDir()

	if _, err := artifacts.PrepareRun(root, "20260314_092653"); err != nil {
		t.Fatalf("first PrepareRun returned error: %v", err)
	}
	_, err := artifacts.PrepareRun(root, "20260314_092653")
	if !errors.Is(err, services.ErrIO) {
		t.Fatalf("error = %v, want ErrIO", err)
	}
	if !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("expected collision message, got %v", err)
	}
}

func TestWriteResultTextMode(t *testing.T) {
	runDir := t.TempDir()
	result := whisper.Result{
		Text:     "你好世界",
		Segments: []whisper.Segment{{Text: "你好世界", Start: 0, End: 2}},
	}

	written, err := artifacts.WriteResult(runDir, "talk", result, config.OutputModeText)
	if err != nil {
		t.Fatalf("WriteResult returned error: %v", err)
	}
	if len(written) != 1 {
		t.Fatalf("expected 1 artifact, got %v", written)
	}

	got, err := os.ReadFile(filepath.Join(runDir, "talk.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "你好世界" {
		t.Fatalf("transcript = %q, want %q", got, "你好世界")
	}
	if _, err := os.Stat(filepath.Join(runDir, "talk_timestamps.json")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected no timing artifact in text mode, stat err = %v", err)
	}
}

func TestWriteResultSegmentsRoundTrip(t *testing.T) {
	runDir := t.TempDir()
	segments := []whisper.Segment{
		{Text: "hello", Start: 0.0, End: 1.0},
		{Text: "world", Start: 1.0, End: 2.0},
	}
	result := whisper.Result{Text: "hello world", Segments: segments}

	written, err := artifacts.WriteResult(runDir, "talk", result, config.OutputModeSegments)
	if err != nil {
		t.Fatalf("WriteResult returned error: %v", err)
	}
	if len(written) != 2 {
		t.Fatalf("expected 2 artifacts, got %v", written)
	}

	path := filepath.Join(runDir, "talk_timestamps.json")
	parsed, err := artifacts.LoadSegments(path)
	if err != nil {
		t.Fatalf("LoadSegments returned error: %v", err)
	}
	if len(parsed) != len(segments) {
		t.Fatalf("segment count = %d, want %d", len(parsed), len(segments))
	}
	for i := range segments {
		if parsed[i] != segments[i] {
			t.Fatalf("segment %d = %+v, want %+v", i, parsed[i], segments[i])
		}
	}
}

func TestWriteResultWordsMode(t *testing.T) {
	runDir := t.TempDir()
	words := []whisper.Word{
		{Word: "hello", Start: 0.0, End: 0.4, Confidence: 0.97},
		{Word: "world", Start: 0.5, End: 0.9, Confidence: 1.0},
	}
	result := whisper.Result{Text: "hello world", Words: words}

	written, err := artifacts.WriteResult(runDir, "talk", result, config.OutputModeWords)
	if err != nil {
		t.Fatalf("WriteResult returned error: %v", err)
	}
	if len(written) != 2 {
		t.Fatalf("expected 2 artifacts, got %v", written)
	}

	data, err := os.ReadFile(filepath.Join(runDir, "talk_words.json"))
	if err != nil {
		t.Fatal(err)
	}
	var parsed []whisper.Word
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("parse words artifact: %v", err)
	}
	if len(parsed) != 2 {
		t.Fatalf("word count = %d, want 2", len(parsed))
	}
	if parsed[0].Confidence != 0.97 {
		t.Fatalf("confidence = %v, want 0.97", parsed[0].Confidence)
	}
	if _, err := os.Stat(filepath.Join(runDir, "talk_timestamps.json")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected no segment artifact in word mode, stat err = %v", err)
	}
}

func TestWriteResultEmptySegmentsWriteArray(t *testing.T) {
	runDir := t.TempDir()

	if _, err := artifacts.WriteResult(runDir, "silent", whisper.Result{}, config.OutputModeSegments); err != nil {
		t.Fatalf("WriteResult returned error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(runDir, "silent_timestamps.json"))
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(string(data)) != "[]" {
		t.Fatalf("expected empty array artifact, got %q", data)
	}
}

func TestWriteResultKeepsRawUTF8(t *testing.T) {
	runDir := t.TempDir()
	result := whisper.Result{
		Text:     "以下是普通话的句子。",
		Segments: []whisper.Segment{{Text: "片段 <一> & 二", Start: 0, End: 1.5}},
	}

	if _, err := artifacts.WriteResult(runDir, "talk", result, config.OutputModeSegments); err != nil {
		t.Fatalf("WriteResult returned error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(runDir, "talk_timestamps.json"))
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)
	if !strings.Contains(content, "片段 <一> & 二") {
		t.Fatalf("expected raw UTF-8 and unescaped punctuation, got %q", content)
	}
	if !strings.Contains(content, "  \"text\"") {
		t.Fatalf("expected two-space indentation, got %q", content)
	}
}

func TestWriteResultRequiresBaseName(t *testing.T) {
	_, err := artifacts.WriteResult(t.TempDir(), " ", whisper.Result{}, config.OutputModeText)
	if !errors.Is(err, services.ErrIO) {
		t.Fatalf("error = %v, want ErrIO", err)
	}
}
