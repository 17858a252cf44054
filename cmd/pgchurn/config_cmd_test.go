package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"

	"github.com/otterbrix/pgchurn/internal/utils"
)

func TestExampleConfigRoundTrip(t *testing.T) {
	dir := chdirTemp(t)
	path := filepath.Join(dir, "config.yaml")
	if err := writeExampleConfig(path, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t.Setenv(utils.StartIDEnv, "42")
	v := viper.New()
	if err := utils.SetupConfigFile(v, nil, path); err != nil {
		t.Fatalf("could not read example config: %v", err)
	}
	conf, err := parseConfig(v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(defaultConfig(42), conf); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestExampleConfigContents(t *testing.T) {
	b, err := exampleConfig(runCmdFlags())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	settings := yaml.MapSlice{}
	if err := yaml.Unmarshal(b, &settings); err != nil {
		t.Fatalf("example config is not valid yaml: %v", err)
	}

	got := map[string]interface{}{}
	for _, item := range settings {
		got[item.Key.(string)] = item.Value
	}
	if _, ok := got[utils.StartIDKey]; ok {
		t.Errorf("start id should come from the environment only")
	}
	if settings[0].Key != "postgres" {
		t.Errorf("settings not in flag order, first key %v", settings[0].Key)
	}
	want := map[string]interface{}{
		"host":             "postgres",
		"port":             "5432",
		"do-load":          true,
		"connect-attempts": 5,
		"progress-every":   100,
		"update-every":     90,
		"delete-every":     40,
		"pacing-interval":  "900ms",
		"connect-backoff":  "5s",
	}
	for k, w := range want {
		if diff := cmp.Diff(w, got[k]); diff != "" {
			t.Errorf("%s mismatch (-want +got):\n%s", k, diff)
		}
	}
}

func TestWriteExampleConfigExisting(t *testing.T) {
	dir := chdirTemp(t)
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("host: mine\n"), 0644); err != nil {
		t.Fatal(err)
	}

	err := writeExampleConfig(path, false)
	if err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("expected refusal to overwrite, got %v", err)
	}
	if err := writeExampleConfig(path, true); err != nil {
		t.Fatalf("unexpected error with force: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(b), "mine") {
		t.Errorf("file was not overwritten")
	}
}

func TestIsBackendTitle(t *testing.T) {
	cases := []struct {
		desc  string
		title string
		want  bool
	}{
		{desc: "idle backend", title: "postgres: postgres churn 10.0.0.2(5432) idle", want: true},
		{desc: "other database", title: "postgres: postgres other 10.0.0.2(5432) idle"},
		{desc: "other user", title: "postgres: admin churn 10.0.0.2(5432) idle"},
		{desc: "server process", title: "/usr/lib/postgresql/13/bin/postgres -D /var/lib/postgresql/data"},
		{desc: "background worker", title: "postgres: checkpointer"},
		{desc: "empty", title: ""},
	}
	for _, c := range cases {
		if got := isBackendTitle(c.title, "postgres", "churn"); got != c.want {
			t.Errorf("%s: got %v want %v", c.desc, got, c.want)
		}
	}
}
