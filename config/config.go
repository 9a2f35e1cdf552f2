package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // Asia/Jakarta must resolve on hosts without zoneinfo

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	LLMProvider    string // openai, anthropic, ollama
	OpenAIKey      string
	AnthropicKey   string // API key (X-Api-Key header)
	AnthropicToken string // OAuth token (Authorization: Bearer header)
	LLMModel       string
	OllamaBaseURL  string

	DatabaseDriver string // sqlite, mysql
	DatabasePath   string // sqlite file, or MySQL DSN when DatabaseDriver is mysql

	WhatsAppSessionPath string
	WhatsAppLogLevel    string
	DiscordToken        string

	TriggerKeyword string
	Timezone       string
	ReminderCron   string
	MaxToolRounds  int
	AllowRawQuery  bool

	Roster Roster
}

// Roster is the fixed set of people the bot knows about: who may talk to it
// and who gets reminded.
type Roster struct {
	Allowlist           []string `yaml:"allowlist"`
	ReminderDestination string   `yaml:"reminder_destination"`
	People              []Person `yaml:"people"`
}

type Person struct {
	ID    string        `yaml:"id"`    // todolist.person_id
	Name  string        `yaml:"name"`  // how the reminder addresses them
	Pause time.Duration `yaml:"pause"` // wait after this person's reminder
}

// DefaultRoster is the team the bot was built for.
func DefaultRoster() Roster {
	return Roster{
		Allowlist:           []string{"81235581851", "85712208535", "82323363406", "81330326382"},
		ReminderDestination: "120363365218296529@g.us",
		People: []Person{
			{ID: "mba_nur", Name: "mbak nur", Pause: 120 * time.Second},
			{ID: "daffa", Name: "daffa", Pause: 360 * time.Second},
			{ID: "bu_malihah", Name: "bu malihah"},
		},
	}
}

func Load() (*Config, error) {
	_ = godotenv.Load() // ignore error if no .env

	cfg := &Config{
		LLMProvider:         envOr("LLM_PROVIDER", "openai"),
		OpenAIKey:           os.Getenv("OPENAI_API_KEY"),
		AnthropicKey:        os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicToken:      os.Getenv("ANTHROPIC_AUTH_TOKEN"),
		LLMModel:            envOr("LLM_MODEL", "gpt-4o-mini"),
		OllamaBaseURL:       envOr("OLLAMA_BASE_URL", "http://localhost:11434/v1"),
		DatabaseDriver:      envOr("DATABASE_DRIVER", "sqlite"),
		DatabasePath:        envOr("DATABASE_PATH", "./wulang.db"),
		WhatsAppSessionPath: envOr("WHATSAPP_SESSION_PATH", "./whatsapp-session.db"),
		WhatsAppLogLevel:    os.Getenv("WHATSAPP_LOG_LEVEL"),
		DiscordToken:        os.Getenv("DISCORD_BOT_TOKEN"),
		TriggerKeyword:      envOr("TRIGGER_KEYWORD", "wulang"),
		Timezone:            envOr("TIMEZONE", "Asia/Jakarta"),
		ReminderCron:        envOr("REMINDER_CRON", "0 */2 * * *"),
		MaxToolRounds:       envInt("MAX_TOOL_ROUNDS", 5),
		AllowRawQuery:       envBool("ALLOW_RAW_QUERY", false),
		Roster:              DefaultRoster(),
	}
	if cfg.DatabaseDriver == "mysql" {
		if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
			cfg.DatabasePath = dsn
		}
	}

	if path := os.Getenv("ROSTER_FILE"); path != "" {
		roster, err := LoadRoster(path)
		if err != nil {
			return nil, err
		}
		cfg.Roster = roster
	}
	return cfg, nil
}

// Location resolves the configured time zone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading time zone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// LoadRoster reads a YAML roster file. Sections left out of the file keep
// their defaults.
func LoadRoster(path string) (Roster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Roster{}, fmt.Errorf("reading roster: %w", err)
	}
	return ParseRoster(data)
}

func ParseRoster(data []byte) (Roster, error) {
	var r Roster
	if err := yaml.Unmarshal(data, &r); err != nil {
		return Roster{}, fmt.Errorf("parsing roster: %w", err)
	}
	def := DefaultRoster()
	if len(r.Allowlist) == 0 {
		r.Allowlist = def.Allowlist
	}
	if r.ReminderDestination == "" {
		r.ReminderDestination = def.ReminderDestination
	}
	if len(r.People) == 0 {
		r.People = def.People
	}
	for i, p := range r.People {
		if p.ID == "" {
			return Roster{}, fmt.Errorf("roster: person %d has no id", i)
		}
		if p.Name == "" {
			r.People[i].Name = strings.ReplaceAll(p.ID, "_", " ")
		}
	}
	return r, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func envBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}
