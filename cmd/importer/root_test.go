package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tasks.csv")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(append([]string{"--env-file", ""}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestImportCmd_DryRunWithoutCredentials(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())
	csvPath := writeCSV(t, "title;board_id;description;custom_1\nRevisar contrato;10;;alta\n;11;x;\n")

	out, err := execute(t, "import", csvPath, "--dry-run", "-d", ";")
	if !errors.Is(err, errRowsFailed) {
		t.Fatalf("expected errRowsFailed, got %v", err)
	}
	if !strings.Contains(out, `"title": "Revisar contrato"`) {
		t.Fatalf("expected payload in output:\n%s", out)
	}
	if strings.Contains(out, "custom_fields") || strings.Contains(out, `"description"`) {
		t.Fatalf("empty keys should be omitted:\n%s", out)
	}
	if !strings.Contains(out, "Done: OK=1 FAIL=1") {
		t.Fatalf("expected summary line:\n%s", out)
	}
}

func TestImportCmd_RequiresCredentialsOutsideDryRun(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())
	csvPath := writeCSV(t, "title,board_id\nA,10\n")

	_, err := execute(t, "import", csvPath)
	if err == nil || !strings.Contains(err.Error(), "RUNRUNIT_APP_KEY") {
		t.Fatalf("expected credentials error, got %v", err)
	}
}

// fakeRunrun responde como a API para o board 10 e registra as chamadas.
type fakeRunrun struct {
	mu       sync.Mutex
	payloads []map[string]any
	paths    []string
}

func (f *fakeRunrun) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.paths...)
}

func (f *fakeRunrun) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paths = append(f.paths, r.Method+" "+r.URL.Path)
	if r.Header.Get("App-Key") != "k" || r.Header.Get("User-Token") != "u" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	switch {
	case r.URL.Path == "/api/v1.0/boards/10/fields":
		_, _ = io.WriteString(w, `[{"id":"custom_1","label":"Prioridade","field_type":"single_option"}]`)
	case r.URL.Path == "/api/v1.0/fields/custom_1/options":
		_, _ = io.WriteString(w, `[{"id":1,"label":"Alta"},{"id":2,"label":"Baixa"}]`)
	case r.URL.Path == "/api/v1.0/tasks" && r.Method == http.MethodPost:
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.payloads = append(f.payloads, body)
		_, _ = io.WriteString(w, `{"id":123}`)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// withFakeRunrun sobe a API falsa e aponta credenciais e base_url para ela.
func withFakeRunrun(t *testing.T) *fakeRunrun {
	t.Helper()
	clearEnv(t)
	t.Chdir(t.TempDir())

	api := &fakeRunrun{}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	t.Setenv("RUNRUNIT_APP_KEY", "k")
	t.Setenv("RUNRUNIT_USER_TOKEN", "u")
	t.Setenv("RUNRUN_BASE_URL", srv.URL+"/api/v1.0")
	return api
}

func TestImportCmd_CreatesTasks(t *testing.T) {
	api := withFakeRunrun(t)
	csvPath := writeCSV(t, "title,board_id,custom_1\nA,10,baixa\nB,10,Alta\n")

	out, err := execute(t, "import", csvPath)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if !strings.Contains(out, "Done: OK=2 FAIL=0") {
		t.Fatalf("unexpected output:\n%s", out)
	}

	paths := api.calls()
	api.mu.Lock()
	defer api.mu.Unlock()
	if len(api.payloads) != 2 {
		t.Fatalf("expected 2 tasks, got %d (%v)", len(api.payloads), paths)
	}
	// o schema do board é buscado uma vez só.
	fieldCalls := 0
	for _, p := range paths {
		if p == "GET /api/v1.0/boards/10/fields" {
			fieldCalls++
		}
	}
	if fieldCalls != 1 {
		t.Fatalf("expected one schema fetch, got %d (%v)", fieldCalls, paths)
	}
	task, _ := api.payloads[0]["task"].(map[string]any)
	custom, _ := task["custom_fields"].(map[string]any)
	ref, _ := custom["custom_1"].(map[string]any)
	if ref["id"] != "2" {
		t.Fatalf("expected option id \"2\", got %v", api.payloads[0])
	}
}

func TestImportCmd_DryRunWithCredentialsMakesNoCalls(t *testing.T) {
	api := withFakeRunrun(t)
	csvPath := writeCSV(t, "title,board_id,custom_1\nA,10,baixa\n")

	out, err := execute(t, "import", csvPath, "--dry-run")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if !strings.Contains(out, "Done: OK=1 FAIL=0") || strings.Contains(out, "custom_fields") {
		t.Fatalf("unexpected output:\n%s", out)
	}
	if calls := api.calls(); len(calls) != 0 {
		t.Fatalf("dry-run must not call the API, got %v", calls)
	}
}

func TestImportCmd_DryRunResolveFieldsValidatesOptions(t *testing.T) {
	api := withFakeRunrun(t)
	csvPath := writeCSV(t, "title,board_id,custom_1\nA,10,baixa\nB,10,Media\n")

	out, err := execute(t, "import", csvPath, "--dry-run", "--resolve-fields")
	if !errors.Is(err, errRowsFailed) {
		t.Fatalf("expected errRowsFailed, got %v", err)
	}
	if !strings.Contains(out, `"custom_1": {`) || !strings.Contains(out, "Done: OK=1 FAIL=1") {
		t.Fatalf("unexpected output:\n%s", out)
	}
	for _, c := range api.calls() {
		if strings.HasPrefix(c, "POST") {
			t.Fatalf("dry-run must not create tasks, got %v", api.calls())
		}
	}
}

func TestVersionCmd(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())
	out, err := execute(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "importer dev") {
		t.Fatalf("unexpected version output: %q", out)
	}
}

func TestFieldsCmd_RejectsBadBoardID(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())
	if _, err := execute(t, "fields", "abc"); err == nil {
		t.Fatalf("expected error for invalid board id")
	}
}
