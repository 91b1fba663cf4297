package internal

import (
	"reflect"
	"testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("MANIM_BIN", "")
	t.Setenv("OUTPUT_DIR", "")
	t.Setenv("ALLOWED_ORIGINS", "")
	t.Setenv("DB_NAME", "")

	cfg := LoadConfig()

	if cfg.Port != "8000" {
		t.Errorf("Port = %q, want 8000", cfg.Port)
	}
	if cfg.ManimBin != "manim" {
		t.Errorf("ManimBin = %q, want manim", cfg.ManimBin)
	}
	if cfg.OutputDir != "outputs" {
		t.Errorf("OutputDir = %q, want outputs", cfg.OutputDir)
	}
	if cfg.DBName != "animations" {
		t.Errorf("DBName = %q, want animations", cfg.DBName)
	}
	want := []string{"http://localhost:5173", "http://localhost:5174"}
	if !reflect.DeepEqual(cfg.AllowedOrigins, want) {
		t.Errorf("AllowedOrigins = %v, want %v", cfg.AllowedOrigins, want)
	}
}

func TestLoadConfigOrigins(t *testing.T) {
	t.Setenv("ALLOWED_ORIGINS", " https://studio.example.com , * ,")

	cfg := LoadConfig()

	want := []string{"https://studio.example.com", "*"}
	if !reflect.DeepEqual(cfg.AllowedOrigins, want) {
		t.Errorf("AllowedOrigins = %v, want %v", cfg.AllowedOrigins, want)
	}
}
