package config

import (
	"testing"
	"time"
)

func TestParseRoster_Full(t *testing.T) {
	data := []byte(`
allowlist: ["811", "822"]
reminder_destination: "1234-5678@g.us"
people:
  - id: pak_ari
    name: pak ari
    pause: 90s
  - id: daffa
`)
	r, err := ParseRoster(data)
	if err != nil {
		t.Fatalf("ParseRoster: %v", err)
	}
	if len(r.Allowlist) != 2 || r.Allowlist[1] != "822" {
		t.Errorf("unexpected allowlist %v", r.Allowlist)
	}
	if r.ReminderDestination != "1234-5678@g.us" {
		t.Errorf("unexpected destination %q", r.ReminderDestination)
	}
	if len(r.People) != 2 {
		t.Fatalf("expected 2 people, got %d", len(r.People))
	}
	if r.People[0].Pause != 90*time.Second {
		t.Errorf("expected pause 90s, got %v", r.People[0].Pause)
	}
	if r.People[1].Name != "daffa" {
		t.Errorf("expected name defaulted from id, got %q", r.People[1].Name)
	}
}

func TestParseRoster_KeepsDefaults(t *testing.T) {
	r, err := ParseRoster([]byte(`reminder_destination: "x@g.us"`))
	if err != nil {
		t.Fatalf("ParseRoster: %v", err)
	}
	def := DefaultRoster()
	if len(r.Allowlist) != len(def.Allowlist) {
		t.Errorf("expected default allowlist, got %v", r.Allowlist)
	}
	if len(r.People) != len(def.People) {
		t.Errorf("expected default people, got %v", r.People)
	}
}

func TestParseRoster_MissingID(t *testing.T) {
	_, err := ParseRoster([]byte("people:\n  - name: nobody\n"))
	if err == nil {
		t.Fatal("expected error for person without id")
	}
}

func TestParseRoster_Invalid(t *testing.T) {
	if _, err := ParseRoster([]byte("allowlist: [")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestDefaultRoster(t *testing.T) {
	r := DefaultRoster()
	want := []string{"81235581851", "85712208535", "82323363406", "81330326382"}
	if len(r.Allowlist) != len(want) {
		t.Fatalf("expected %d allowlisted numbers, got %d", len(want), len(r.Allowlist))
	}
	for i, n := range want {
		if r.Allowlist[i] != n {
			t.Errorf("allowlist[%d] = %q, want %q", i, r.Allowlist[i], n)
		}
	}
	if r.People[0].ID != "mba_nur" || r.People[0].Pause != 120*time.Second {
		t.Errorf("unexpected first person %+v", r.People[0])
	}
}

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"LLM_PROVIDER", "LLM_MODEL", "DATABASE_DRIVER", "TRIGGER_KEYWORD", "TIMEZONE", "REMINDER_CRON", "MAX_TOOL_ROUNDS", "ALLOW_RAW_QUERY", "ROSTER_FILE"} {
		t.Setenv(k, "")
	}
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LLMProvider != "openai" || cfg.LLMModel != "gpt-4o-mini" {
		t.Errorf("unexpected provider/model %q/%q", cfg.LLMProvider, cfg.LLMModel)
	}
	if cfg.TriggerKeyword != "wulang" {
		t.Errorf("unexpected trigger %q", cfg.TriggerKeyword)
	}
	if cfg.ReminderCron != "0 */2 * * *" {
		t.Errorf("unexpected cron %q", cfg.ReminderCron)
	}
	if cfg.MaxToolRounds != 5 {
		t.Errorf("expected 5 tool rounds, got %d", cfg.MaxToolRounds)
	}
	if cfg.AllowRawQuery {
		t.Error("raw query should be off by default")
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("MAX_TOOL_ROUNDS", "8")
	t.Setenv("ALLOW_RAW_QUERY", "true")
	t.Setenv("DATABASE_DRIVER", "mysql")
	t.Setenv("DATABASE_DSN", "user@tcp(db:3306)/wulang?parseTime=true")
	t.Setenv("ROSTER_FILE", "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MaxToolRounds != 8 {
		t.Errorf("expected 8, got %d", cfg.MaxToolRounds)
	}
	if !cfg.AllowRawQuery {
		t.Error("expected raw query enabled")
	}
	if cfg.DatabasePath != "user@tcp(db:3306)/wulang?parseTime=true" {
		t.Errorf("expected DSN to be used, got %q", cfg.DatabasePath)
	}
}

func TestLocation(t *testing.T) {
	cfg := &Config{Timezone: "Asia/Jakarta"}
	loc, err := cfg.Location()
	if err != nil {
		t.Fatalf("Location: %v", err)
	}
	if loc.String() != "Asia/Jakarta" {
		t.Errorf("unexpected location %s", loc)
	}
	cfg.Timezone = "Mars/Olympus"
	if _, err := cfg.Location(); err == nil {
		t.Error("expected error for unknown zone")
	}
}
