package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"recrutement/backoffice-service/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("BACKOFFICE_PORT", "")
	t.Setenv("BACKOFFICE_GRPC_PORT", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("LOG_FORMAT", "")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8083" || cfg.GRPCPort != "9083" {
		t.Errorf("ports = %s/%s, want 8083/9083", cfg.Port, cfg.GRPCPort)
	}
	if cfg.Backend != config.BackendMemory || cfg.LogLevel != "info" || cfg.LogFormat != "text" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoad_Required(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"postgres without url", map[string]string{"STORE_BACKEND": "postgres", "DATABASE_URL": ""}, "DATABASE_URL"},
		{"supabase without key", map[string]string{"STORE_BACKEND": "supabase", "SUPABASE_URL": "https://x.supabase.co", "SUPABASE_KEY": ""}, "SUPABASE_KEY"},
		{"unknown backend", map[string]string{"STORE_BACKEND": "mongo"}, "STORE_BACKEND"},
		{"bad log level", map[string]string{"STORE_BACKEND": "memory", "LOG_LEVEL": "trace"}, "LOG_LEVEL"},
		{"bad log format", map[string]string{"STORE_BACKEND": "memory", "LOG_LEVEL": "", "LOG_FORMAT": "xml"}, "LOG_FORMAT"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			for k, v := range c.env {
				t.Setenv(k, v)
			}
			_, err := config.Load()
			if err == nil || !strings.Contains(err.Error(), c.want) {
				t.Errorf("Load() err = %v, want mention of %s", err, c.want)
			}
		})
	}
}

func TestLoad_Postgres(t *testing.T) {
	t.Setenv("STORE_BACKEND", "")
	t.Setenv("DATABASE_URL", "postgres://localhost/recrutement")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("LOG_FORMAT", "")
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Backend != config.BackendPostgres {
		t.Errorf("Backend = %q, want postgres", cfg.Backend)
	}
}

func TestLoadVocabulary_Default(t *testing.T) {
	v, err := config.LoadVocabulary("")
	if err != nil {
		t.Fatalf("LoadVocabulary: %v", err)
	}
	if got := v.Options("candidats", "niveau_experience"); len(got) != 4 || got[1] != "intermediaire" {
		t.Errorf("candidats.niveau_experience = %v", got)
	}
	if got := v.Options("candidatures_wp", "niveau_experience"); len(got) != 3 || got[1] != "confirme" {
		t.Errorf("candidatures_wp.niveau_experience = %v", got)
	}
	if v.Options("candidats", "poste") != nil {
		t.Error("poste is free text and should have no options")
	}
}

func TestVocabulary_Allows(t *testing.T) {
	v, err := config.LoadVocabulary("")
	if err != nil {
		t.Fatal(err)
	}
	cases := []struct {
		kind, dim, value string
		want             bool
	}{
		{"candidats", "statut", "actif", true},
		{"candidats", "statut", "pourvu", false},
		{"candidats", "statut", "", true},
		{"candidats", "metier", "Comptable", true},
		{"inconnu", "statut", "x", true},
		{"mandats", "statut", "pourvu", true},
	}
	for _, c := range cases {
		if got := v.Allows(c.kind, c.dim, c.value); got != c.want {
			t.Errorf("Allows(%s, %s, %q) = %v, want %v", c.kind, c.dim, c.value, got, c.want)
		}
	}
}

func TestLoadVocabulary_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vocab.yaml")
	if err := os.WriteFile(path, []byte("clients:\n  statut: [a, b]\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	v, err := config.LoadVocabulary(path)
	if err != nil {
		t.Fatalf("LoadVocabulary: %v", err)
	}
	if got := v.Dimensions("clients"); len(got) != 1 || got[0] != "statut" {
		t.Errorf("Dimensions = %v", got)
	}
	if v.Allows("clients", "statut", "prospect") {
		t.Error("file vocabulary should replace the default")
	}
}

func TestParseVocabulary_Invalid(t *testing.T) {
	cases := map[string]string{
		"empty list": "clients:\n  statut: []\n",
		"duplicate":  "clients:\n  statut: [a, a]\n",
		"blank":      "clients:\n  statut: [a, \"\"]\n",
		"not yaml":   "clients: [",
	}
	for name, doc := range cases {
		if _, err := config.ParseVocabulary([]byte(doc)); err == nil {
			t.Errorf("%s: expected an error", name)
		}
	}
}

func TestVocabulary_AllIsACopy(t *testing.T) {
	v, _ := config.LoadVocabulary("")
	all := v.All()
	all["clients"]["statut"][0] = "changed"
	if v.Options("clients", "statut")[0] != "prospect" {
		t.Error("All() should not expose internal slices")
	}
}
