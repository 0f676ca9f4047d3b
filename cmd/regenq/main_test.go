package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"regenq/internal/api"
	"regenq/internal/config"
	"regenq/internal/queue"
	"regenq/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
}

// setupCLITestEnv writes a config whose api_bind has no listener, so every
// command falls back to the SQLite store.
func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()
	t.Setenv("REGENQ_CMS_URL", "")
	t.Setenv("REGENQ_TOKEN", "")

	cfg := testsupport.NewConfig(t, opts...)
	configPath := filepath.Join(testsupport.BaseDir(cfg), "regenq.toml")
	writeTestConfig(t, configPath, cfg)
	return &cliTestEnv{cfg: cfg, configPath: configPath}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func (env *cliTestEnv) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	return env.runWithInput(t, "", args...)
}

func (env *cliTestEnv) runWithInput(t *testing.T, input string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(input))
	cmd.SetArgs(append([]string{"--config", env.configPath}, args...))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := cmd.ExecuteContext(ctx)
	return stdout.String(), stderr.String(), err
}

func (env *cliTestEnv) openStore(t *testing.T) *queue.Store {
	t.Helper()
	return testsupport.MustOpenStore(t, env.cfg)
}

func requireContains(t *testing.T, output string, wants ...string) {
	t.Helper()
	for _, want := range wants {
		if !strings.Contains(output, want) {
			t.Fatalf("expected output to contain %q, got:\n%s", want, output)
		}
	}
}

func TestRequestQueuesItem(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := env.run(t, "request", "acme-crm", "--field", "Pricing")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	requireContains(t, out, "Queued", "acme-crm/pricing new")

	out, _, err = env.run(t, "queue", "list")
	if err != nil {
		t.Fatalf("queue list: %v", err)
	}
	requireContains(t, out, "acme-crm", "pricing", "New", "Page 1 of 1 (1 items)")
}

func TestRequestRejectsUnknownField(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := env.run(t, "request", "acme-crm", "--field", "logo")
	if err == nil {
		t.Fatal("expected validation error")
	}
	if queue.KindOf(err) != queue.KindValidation {
		t.Fatalf("expected validation kind, got %q (%v)", queue.KindOf(err), err)
	}

	store := env.openStore(t)
	stats, err := store.Stats(context.Background())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats[queue.StatusNew] != 0 {
		t.Fatalf("expected nothing queued, got %v", stats)
	}
}

func TestBulkReadsSlugList(t *testing.T) {
	env := setupCLITestEnv(t)

	input := "# launch batch\nalpha\n\nbeta\n"
	out, _, err := env.runWithInput(t, input, "bulk", "gamma", "--input", "-", "--field", "tags")
	if err != nil {
		t.Fatalf("bulk: %v", err)
	}
	requireContains(t, out, "alpha", "beta", "gamma", "Queued 3 of 3 requests")

	out, _, err = env.run(t, "queue", "stats")
	if err != nil {
		t.Fatalf("queue stats: %v", err)
	}
	requireContains(t, out, "== Queue ==", "store", "New")
	if !strings.Contains(out, "3") {
		t.Fatalf("expected count 3 in stats output:\n%s", out)
	}
}

func TestBulkWithoutSlugsFails(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := env.run(t, "bulk"); err == nil {
		t.Fatal("expected error without slugs")
	}
}

func TestQueueAdminCommands(t *testing.T) {
	env := setupCLITestEnv(t)
	store := env.openStore(t)
	item := testsupport.NewItem(t, store, "acme-crm", queue.FieldDescription)

	out, _, err := env.run(t, "queue", "show", item.ID)
	if err != nil {
		t.Fatalf("queue show: %v", err)
	}
	requireContains(t, out, item.ID, "description", "In flight: yes")

	out, _, err = env.run(t, "queue", "set-status", item.ID, "error")
	if err != nil {
		t.Fatalf("set-status: %v", err)
	}
	requireContains(t, out, "Updated", "error")

	out, _, err = env.run(t, "queue", "edit", item.ID, "--slug", "acme-crm-2", "--field", "all", "--status", "new")
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	requireContains(t, out, "acme-crm-2", "all", "New")

	if _, _, err := env.run(t, "queue", "edit", item.ID); err == nil || queue.KindOf(err) != queue.KindValidation {
		t.Fatalf("expected validation error for empty edit, got %v", err)
	}
	if _, _, err := env.run(t, "queue", "set-status", item.ID, "done"); err == nil || queue.KindOf(err) != queue.KindValidation {
		t.Fatalf("expected validation error for unknown status, got %v", err)
	}

	out, _, err = env.run(t, "queue", "list", "--status", "new", "--slug", "acme-crm-2")
	if err != nil {
		t.Fatalf("filtered list: %v", err)
	}
	requireContains(t, out, item.ID)

	out, _, err = env.run(t, "queue", "rm", item.ID)
	if err != nil {
		t.Fatalf("rm: %v", err)
	}
	requireContains(t, out, "Deleted "+item.ID)

	_, _, err = env.run(t, "queue", "show", item.ID)
	if queue.KindOf(err) != queue.KindNotFound {
		t.Fatalf("expected not_found after delete, got %v", err)
	}
}

func TestQueueListRejectsUnknownStatus(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := env.run(t, "queue", "list", "--status", "archived")
	if queue.KindOf(err) != queue.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestWatchFollowsRoundToFinish(t *testing.T) {
	env := setupCLITestEnv(t)
	store := env.openStore(t)
	item := testsupport.NewItem(t, store, "acme-crm", queue.FieldAll)

	updated := make(chan error, 1)
	go func() {
		time.Sleep(200 * time.Millisecond)
		if _, err := store.Update(context.Background(), item.ID, queue.StatusPatch(queue.StatusPending)); err != nil {
			updated <- err
			return
		}
		time.Sleep(150 * time.Millisecond)
		_, err := store.Update(context.Background(), item.ID, queue.StatusPatch(queue.StatusFinished))
		updated <- err
	}()

	out, _, err := env.run(t, "watch", "acme-crm")
	if uerr := <-updated; uerr != nil {
		t.Fatalf("worker update: %v", uerr)
	}
	if err != nil {
		t.Fatalf("watch: %v\n%s", err, out)
	}
	requireContains(t, out, "Polling", "Finished")
}

func TestWatchReportsTimeout(t *testing.T) {
	env := setupCLITestEnv(t)
	store := env.openStore(t)
	testsupport.NewItem(t, store, "stalled", queue.FieldAll)

	out, _, err := env.run(t, "watch", "stalled", "--timeout", "150ms")
	if err == nil {
		t.Fatalf("expected timeout error, got output:\n%s", out)
	}
	requireContains(t, err.Error(), "stalled: timeout")
	requireContains(t, out, "Timeout")
}

func TestWatchWithoutInFlightRequest(t *testing.T) {
	env := setupCLITestEnv(t)
	store := env.openStore(t)
	done := testsupport.NewItem(t, store, "finished-entry", queue.FieldAll)
	testsupport.SetStatus(t, store, done.ID, queue.StatusFinished)
	failed := testsupport.NewItem(t, store, "failed-entry", queue.FieldAll)
	testsupport.SetStatus(t, store, failed.ID, queue.StatusError)

	out, _, err := env.run(t, "watch", "finished-entry", "never-requested")
	if err != nil {
		t.Fatalf("watch idle: %v", err)
	}
	requireContains(t, out, "Idle", "no regeneration requested")

	_, _, err = env.run(t, "watch", "failed-entry")
	if err == nil || !strings.Contains(err.Error(), "last request failed") {
		t.Fatalf("expected failure for errored entry, got %v", err)
	}
}

func TestTagsRequiresCMS(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := env.run(t, "tags", "acme-crm")
	if err != errTagsUnavailable {
		t.Fatalf("expected errTagsUnavailable, got %v", err)
	}
}

func TestTagsFromCMS(t *testing.T) {
	proposed := "proposed"
	excluded := true
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/entries/acme-crm/tags" || r.Header.Get("Authorization") != "Bearer cms-token" {
			http.Error(w, "unexpected request", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(api.TagListResponse{Items: []api.Tag{
			{DocumentID: "t1", Name: "crm"},
			{DocumentID: "t2", Name: "sales", TagStatus: &proposed},
			{DocumentID: "t3", Name: "legacy", Excluded: &excluded},
		}})
	}))
	defer srv.Close()

	env := setupCLITestEnv(t, testsupport.WithCMS(srv.URL, "cms-token"))

	out, _, err := env.run(t, "tags", "acme-crm")
	if err != nil {
		t.Fatalf("tags: %v", err)
	}
	requireContains(t, out, "crm", "Proposed", "excluded flag", "1 active, 1 proposed, 1 excluded")

	out, _, err = env.run(t, "tags", "acme-crm", "--visible")
	if err != nil {
		t.Fatalf("tags --visible: %v", err)
	}
	if strings.Contains(out, "sales") || strings.Contains(out, "legacy") {
		t.Fatalf("expected only active tags, got:\n%s", out)
	}
}

func TestConfigShowMasksSecrets(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithAPIToken("server-secret"))

	out, _, err := env.run(t, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if strings.Contains(out, "test-token") || strings.Contains(out, "server-secret") {
		t.Fatalf("secrets leaked:\n%s", out)
	}
	requireContains(t, out, maskedSecret, "interval_ms = 50")
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)
	target := filepath.Join(t.TempDir(), "nested", "config.toml")

	out, _, err := env.run(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("sample not written: %v", err)
	}

	if _, _, err := env.run(t, "config", "init", "--path", target); err == nil {
		t.Fatal("expected error when config exists")
	}
	if _, _, err := env.run(t, "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}

	out, _, err = env.run(t, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Config path: "+env.configPath, "Configuration valid")
}

func TestInvalidConfigFailsBeforeCommandRuns(t *testing.T) {
	env := setupCLITestEnv(t)
	if err := os.WriteFile(env.configPath, []byte("[trigger]\nmethod = \"PUT\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	_, _, err := env.run(t, "queue", "list")
	if err == nil || !strings.Contains(err.Error(), "trigger.method") {
		t.Fatalf("expected trigger.method error, got %v", err)
	}
}

func TestStatusReportsReadiness(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := env.run(t, "status")
	if err != nil {
		t.Fatalf("status: %v\n%s", err, out)
	}
	requireContains(t, out, "== Readiness ==", "Data directory", "[OK]", "Store server", "[WARN]", "local database")
}
