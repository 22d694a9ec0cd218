package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// offline points the CLI at the mock provider and an in-memory store.
func offline(t *testing.T) {
	t.Helper()
	t.Setenv("KISAN_PROVIDER", "mock")
	t.Setenv("KISAN_STORE", "memory")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
}

func TestRun_Version(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := run([]string{"version"}, &stdout, &stderr)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(stdout.String(), "kisan") {
		t.Errorf("expected version output, got: %s", stdout.String())
	}
}

func TestRun_Translate(t *testing.T) {
	offline(t)

	var stdout, stderr bytes.Buffer
	err := run([]string{"translate", "Cotton", "Wheat"}, &stdout, &stderr)

	if err != nil {
		t.Fatalf("translate failed: %v", err)
	}

	if got := stdout.String(); got != "कपास\nगेहूं\n" {
		t.Errorf("unexpected output %q", got)
	}
}

func TestRun_TranslateBatch(t *testing.T) {
	offline(t)

	var stdout, stderr bytes.Buffer
	err := run([]string{"translate", "--batch", "Onion", "Tractor"}, &stdout, &stderr)

	if err != nil {
		t.Fatalf("translate --batch failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	if len(lines) != 2 || lines[0] != "प्याज" || lines[1] != "[Tractor]" {
		t.Errorf("unexpected output %q", lines)
	}
}

func TestRun_TranslateEnglish(t *testing.T) {
	offline(t)

	var stdout, stderr bytes.Buffer
	if err := run([]string{"translate", "--lang", "en", "Cotton"}, &stdout, &stderr); err != nil {
		t.Fatal(err)
	}
	if got := stdout.String(); got != "Cotton\n" {
		t.Errorf("English should pass through, got %q", got)
	}
}

func TestRun_InvalidLanguage(t *testing.T) {
	offline(t)

	var stdout, stderr bytes.Buffer
	err := run([]string{"translate", "--lang", "not a language", "Cotton"}, &stdout, &stderr)

	if err == nil || !strings.Contains(err.Error(), "parse language") {
		t.Errorf("expected language error, got: %v", err)
	}
}

func TestRun_InvalidProvider(t *testing.T) {
	offline(t)

	var stdout, stderr bytes.Buffer
	err := run([]string{"--provider", "claude", "translate", "Cotton"}, &stdout, &stderr)

	if err == nil || !strings.Contains(err.Error(), "unknown provider") {
		t.Errorf("expected provider error, got: %v", err)
	}
}

func TestRun_HTML(t *testing.T) {
	offline(t)

	tmpDir := t.TempDir()
	inputFile := filepath.Join(tmpDir, "page.html")
	os.WriteFile(inputFile, []byte(`<html><body><p>Cotton</p><p>Wheat</p></body></html>`), 0644)

	var stdout, stderr bytes.Buffer
	err := run([]string{"html", inputFile}, &stdout, &stderr)

	if err != nil {
		t.Fatalf("html failed: %v", err)
	}

	output := stdout.String()
	for _, want := range []string{"कपास", "गेहूं", `lang="hi"`} {
		if !strings.Contains(output, want) {
			t.Errorf("output should contain %s, got: %s", want, output)
		}
	}
	if !strings.Contains(stderr.String(), "Nodes found:  2") {
		t.Errorf("expected stats on stderr, got: %s", stderr.String())
	}
}

func TestRun_HTMLJSON(t *testing.T) {
	offline(t)

	tmpDir := t.TempDir()
	inputFile := filepath.Join(tmpDir, "page.html")
	os.WriteFile(inputFile, []byte("<p>Weather</p>"), 0644)

	var stdout, stderr bytes.Buffer
	err := run([]string{"html", "--json", "-q", inputFile}, &stdout, &stderr)

	if err != nil {
		t.Fatalf("html --json failed: %v", err)
	}

	var result JSONOutput
	if err := json.Unmarshal(stdout.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v", err)
	}

	if result.TotalNodes != 1 || result.TranslatedCount != 1 {
		t.Errorf("unexpected counts %+v", result)
	}
	if !strings.Contains(result.Content, "मौसम") {
		t.Errorf("content not translated: %s", result.Content)
	}
	if stderr.Len() != 0 {
		t.Errorf("--quiet should suppress progress, got: %s", stderr.String())
	}
}

func TestRun_HTMLMissingFile(t *testing.T) {
	offline(t)

	var stdout, stderr bytes.Buffer
	err := run([]string{"html", filepath.Join(t.TempDir(), "missing.html")}, &stdout, &stderr)

	if err == nil || !strings.Contains(err.Error(), "reading file") {
		t.Errorf("expected file error, got: %v", err)
	}
}

func TestRun_LanguagePersists(t *testing.T) {
	offline(t)
	t.Setenv("KISAN_STORE", "bolt")
	t.Setenv("KISAN_STORE_PATH", filepath.Join(t.TempDir(), "kisan.db"))

	var stdout, stderr bytes.Buffer
	if err := run([]string{"lang"}, &stdout, &stderr); err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(stdout.String()); got != "en" {
		t.Errorf("default language = %s, want en", got)
	}

	stdout.Reset()
	if err := run([]string{"lang", "toggle"}, &stdout, &stderr); err != nil {
		t.Fatal(err)
	}

	stdout.Reset()
	if err := run([]string{"lang"}, &stdout, &stderr); err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(stdout.String()); got != "hi" {
		t.Errorf("language after toggle = %s, want hi", got)
	}

	stdout.Reset()
	if err := run([]string{"t", "app.title"}, &stdout, &stderr); err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(stdout.String()); got != "क्रॉप एडवाइजर" {
		t.Errorf("catalog key should resolve in Hindi, got %q", got)
	}
}

func TestRun_LangRejectsUnsupported(t *testing.T) {
	offline(t)

	var stdout, stderr bytes.Buffer
	if err := run([]string{"lang", "fr"}, &stdout, &stderr); err == nil {
		t.Error("expected error for a language the interface does not offer")
	}
}

func TestRun_KeyEnglish(t *testing.T) {
	offline(t)

	var stdout, stderr bytes.Buffer
	if err := run([]string{"t", "soil_health", "Soil Health"}, &stdout, &stderr); err != nil {
		t.Fatal(err)
	}
	if got := stdout.String(); got != "Soil Health\n" {
		t.Errorf("English should return the fallback, got %q", got)
	}
}

func TestRun_CacheExportImport(t *testing.T) {
	offline(t)
	t.Setenv("KISAN_STORE", "bolt")
	dir := t.TempDir()
	t.Setenv("KISAN_STORE_PATH", filepath.Join(dir, "kisan.db"))

	var stdout, stderr bytes.Buffer
	if err := run([]string{"translate", "Cotton", "Wheat"}, &stdout, &stderr); err != nil {
		t.Fatal(err)
	}

	exportFile := filepath.Join(dir, "export.json")
	stdout.Reset()
	if err := run([]string{"cache", "export", exportFile}, &stdout, &stderr); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stdout.String(), "Exported 2") {
		t.Errorf("unexpected export output %q", stdout.String())
	}

	stdout.Reset()
	if err := run([]string{"cache", "clear"}, &stdout, &stderr); err != nil {
		t.Fatal(err)
	}

	stdout.Reset()
	if err := run([]string{"cache", "stats"}, &stdout, &stderr); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stdout.String(), "Entries:  0") {
		t.Errorf("cache should be empty after clear, got %q", stdout.String())
	}

	stdout.Reset()
	if err := run([]string{"cache", "import", exportFile}, &stdout, &stderr); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stdout.String(), "Imported 2") {
		t.Errorf("unexpected import output %q", stdout.String())
	}

	stdout.Reset()
	if err := run([]string{"cache", "stats"}, &stdout, &stderr); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stdout.String(), "Entries:  2") {
		t.Errorf("imported entries should persist, got %q", stdout.String())
	}
}

func TestRun_ConfigFile(t *testing.T) {
	t.Setenv("KISAN_PROVIDER", "gemini")
	t.Setenv("KISAN_STORE", "redis")

	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "kisan.yaml")
	os.WriteFile(cfgFile, []byte("provider: mock\nstore: memory\n"), 0644)

	var stdout, stderr bytes.Buffer
	err := run([]string{"--config", cfgFile, "translate", "Soybean"}, &stdout, &stderr)

	if err != nil {
		t.Fatalf("translate with config file failed: %v", err)
	}
	if got := stdout.String(); got != "सोयाबीन\n" {
		t.Errorf("unexpected output %q", got)
	}
}

func TestRun_MissingConfigFile(t *testing.T) {
	offline(t)

	var stdout, stderr bytes.Buffer
	err := run([]string{"--config", filepath.Join(t.TempDir(), "none.yaml"), "translate", "Cotton"}, &stdout, &stderr)

	if err == nil || !strings.Contains(err.Error(), "read config") {
		t.Errorf("expected config error, got: %v", err)
	}
}
