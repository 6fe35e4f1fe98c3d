package fonts

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"alforqan/internal/config"
	"alforqan/internal/logging"
	"alforqan/internal/services"
)

// Role distinguishes the verse body font from the info line font.
type Role string

const (
	RoleVerse Role = "verse"
	RoleInfo  Role = "info"
)

var allowedExtensions = map[string]struct{}{
	".ttf": {},
	".otf": {},
	".ttc": {},
}

// Font is a validated font file assignment.
type Font struct {
	Role Role
	Path string
	Size int
}

// Registry holds the fonts configured for rendering. A missing path means
// the renderer falls back to its default font for that role.
type Registry struct {
	fonts  map[Role]Font
	logger *slog.Logger
}

// NewRegistry validates the configured font paths. Paths must exist and
// carry a known font extension; empty paths are allowed and skipped.
func NewRegistry(cfg *config.Config, logger *slog.Logger) (*Registry, error) {
	registry := &Registry{
		fonts:  make(map[Role]Font),
		logger: logging.NewComponentLogger(logger, "fonts"),
	}

	assignments := []struct {
		role Role
		path string
		size int
	}{
		{RoleVerse, cfg.Fonts.VerseFont, cfg.Fonts.FontSize},
		{RoleInfo, cfg.Fonts.InfoFont, cfg.Fonts.InfoFontSize},
	}
	for _, assignment := range assignments {
		if assignment.path == "" {
			continue
		}
		if err := validateFontFile(assignment.path); err != nil {
			return nil, err
		}
		registry.fonts[assignment.role] = Font{
			Role: assignment.role,
			Path: assignment.path,
			Size: assignment.size,
		}
		registry.logger.Debug("font registered",
			logging.String("role", string(assignment.role)),
			logging.String("path", assignment.path),
		)
	}
	return registry, nil
}

// Lookup returns the font for a role, falling back to the verse font for
// the info line when no dedicated info font is configured.
func (r *Registry) Lookup(role Role) (Font, bool) {
	font, ok := r.fonts[role]
	if !ok && role == RoleInfo {
		font, ok = r.fonts[RoleVerse]
	}
	return font, ok
}

func validateFontFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "fonts", "validate",
			fmt.Sprintf("font file %s not readable", path), err)
	}
	if info.IsDir() {
		return services.Wrap(services.ErrConfiguration, "fonts", "validate",
			fmt.Sprintf("font path %s is a directory", path), nil)
	}
	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := allowedExtensions[ext]; !ok {
		return services.Wrap(services.ErrConfiguration, "fonts", "validate",
			fmt.Sprintf("font file %s has unsupported extension %q", path, ext), nil)
	}
	return nil
}
