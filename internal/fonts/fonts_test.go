package fonts

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"alforqan/internal/logging"
	"alforqan/internal/services"
	"alforqan/internal/testsupport"
)

func writeFakeFont(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("fake-font"), 0o644); err != nil {
		t.Fatalf("write fake font: %v", err)
	}
	return path
}

func TestNewRegistryValidatesPaths(t *testing.T) {
	dir := t.TempDir()
	verseFont := writeFakeFont(t, dir, "uthmanic.ttf")
	infoFont := writeFakeFont(t, dir, "amiri.otf")

	cfg := testsupport.NewConfig(t)
	cfg.Fonts.VerseFont = verseFont
	cfg.Fonts.InfoFont = infoFont

	registry, err := NewRegistry(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	font, ok := registry.Lookup(RoleVerse)
	if !ok || font.Path != verseFont {
		t.Fatalf("expected verse font %q, got %+v", verseFont, font)
	}
	font, ok = registry.Lookup(RoleInfo)
	if !ok || font.Path != infoFont {
		t.Fatalf("expected info font %q, got %+v", infoFont, font)
	}
}

func TestNewRegistryAllowsUnsetFonts(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	registry, err := NewRegistry(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	if _, ok := registry.Lookup(RoleVerse); ok {
		t.Fatal("expected no verse font when unset")
	}
}

func TestInfoRoleFallsBackToVerseFont(t *testing.T) {
	dir := t.TempDir()
	verseFont := writeFakeFont(t, dir, "uthmanic.ttf")

	cfg := testsupport.NewConfig(t)
	cfg.Fonts.VerseFont = verseFont

	registry, err := NewRegistry(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	font, ok := registry.Lookup(RoleInfo)
	if !ok || font.Path != verseFont {
		t.Fatalf("expected fallback to verse font, got %+v", font)
	}
}

func TestNewRegistryRejectsMissingFile(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Fonts.VerseFont = filepath.Join(t.TempDir(), "missing.ttf")

	_, err := NewRegistry(cfg, logging.NewNop())
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestNewRegistryRejectsUnknownExtension(t *testing.T) {
	dir := t.TempDir()
	notAFont := writeFakeFont(t, dir, "readme.txt")

	cfg := testsupport.NewConfig(t)
	cfg.Fonts.VerseFont = notAFont

	_, err := NewRegistry(cfg, logging.NewNop())
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestFilterTextKeepsArabicAndLatin(t *testing.T) {
	text := "بِسْمِ اللَّهِ Al-Fatihah 1"
	if got := FilterText(text); got != text {
		t.Fatalf("expected text unchanged, got %q", got)
	}
}

func TestFilterTextDropsUnrenderableRunes(t *testing.T) {
	text := "آية۝ نص\uFEFF با中"
	filtered := FilterText(text)
	for _, r := range []rune{0x06DD, 0xFEFF, 0x4E2D} {
		if containsRune(filtered, r) {
			t.Fatalf("expected %U to be dropped, got %q", r, filtered)
		}
	}
	if !containsRune(filtered, 'آ') {
		t.Fatalf("expected arabic text preserved, got %q", filtered)
	}

	dropped := UnsupportedRunes(text)
	if len(dropped) != 3 {
		t.Fatalf("expected 3 dropped runes, got %v", dropped)
	}
}

func containsRune(s string, target rune) bool {
	for _, r := range s {
		if r == target {
			return true
		}
	}
	return false
}
