// Package styles defines the visual styling for nirvanamm's terminal output.
//
// Styles are declared in the embedded styles.yaml with semantic names
// (Header, Success, GUID, FilePath...) and adaptive colors that adjust to
// light and dark terminal themes.
package styles

import (
	_ "embed"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/nirvanamm/nirvanamm/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ColorDef represents an adaptive color definition in YAML
type ColorDef struct {
	Light string `yaml:"light"`
	Dark  string `yaml:"dark"`
}

// StyleDef represents a style definition in YAML
type StyleDef struct {
	Bold         bool   `yaml:"bold,omitempty"`
	Italic       bool   `yaml:"italic,omitempty"`
	Underline    bool   `yaml:"underline,omitempty"`
	Foreground   string `yaml:"foreground,omitempty"`
	Background   string `yaml:"background,omitempty"`
	MarginLeft   int    `yaml:"marginLeft,omitempty"`
	MarginBottom int    `yaml:"marginBottom,omitempty"`
}

// Config represents the complete styles configuration
type Config struct {
	Colors map[string]ColorDef `yaml:"colors"`
	Styles map[string]StyleDef `yaml:"styles"`
}

// StyleRegistry maps semantic names to lipgloss styles
var StyleRegistry map[string]lipgloss.Style

//go:embed styles.yaml
var embeddedStyles []byte

// Names of the styles every renderer relies on.
var requiredStyles = []string{
	"Header", "TableHeader", "Success", "Error", "Warning", "Info",
	"Muted", "GUID", "Version", "Soft", "FilePath", "Active", "Indent",
}

func init() {
	if err := LoadStylesFromData(embeddedStyles); err != nil {
		initDefaultStyles()
	}
}

// initDefaultStyles keeps rendering working with plain styles.
func initDefaultStyles() {
	StyleRegistry = make(map[string]lipgloss.Style, len(requiredStyles))
	for _, name := range requiredStyles {
		StyleRegistry[name] = lipgloss.NewStyle()
	}
}

// LoadStyles loads style configuration from a YAML file
func LoadStyles(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, errors.ErrIO, "failed to read styles file %s", path)
	}
	return LoadStylesFromData(data)
}

// LoadStylesFromData loads style configuration from byte data. Styles
// referring to an undefined color are rejected.
func LoadStylesFromData(data []byte) error {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return errors.Wrap(err, errors.ErrParse, "failed to parse styles data")
	}

	colors := make(map[string]lipgloss.AdaptiveColor, len(config.Colors))
	for name, def := range config.Colors {
		colors[name] = lipgloss.AdaptiveColor{Light: def.Light, Dark: def.Dark}
	}

	registry := make(map[string]lipgloss.Style, len(config.Styles))
	for name, def := range config.Styles {
		style, err := buildStyle(def, colors)
		if err != nil {
			return errors.Wrapf(err, errors.ErrParse, "style %s", name)
		}
		registry[name] = style
	}

	StyleRegistry = registry
	return nil
}

func buildStyle(def StyleDef, colors map[string]lipgloss.AdaptiveColor) (lipgloss.Style, error) {
	style := lipgloss.NewStyle().
		Bold(def.Bold).
		Italic(def.Italic).
		Underline(def.Underline)

	for _, c := range []struct {
		name  string
		apply func(lipgloss.TerminalColor) lipgloss.Style
	}{
		{def.Foreground, func(tc lipgloss.TerminalColor) lipgloss.Style { return style.Foreground(tc) }},
		{def.Background, func(tc lipgloss.TerminalColor) lipgloss.Style { return style.Background(tc) }},
	} {
		if c.name == "" {
			continue
		}
		color, ok := colors[c.name]
		if !ok {
			return style, errors.Newf(errors.ErrParse, "unknown color %q", c.name)
		}
		style = c.apply(color)
	}

	if def.MarginLeft > 0 {
		style = style.MarginLeft(def.MarginLeft)
	}
	if def.MarginBottom > 0 {
		style = style.MarginBottom(def.MarginBottom)
	}
	return style, nil
}

// GetStyle safely retrieves a style from the registry
func GetStyle(name string) lipgloss.Style {
	if style, ok := StyleRegistry[name]; ok {
		return style
	}
	return lipgloss.NewStyle()
}

// Embedded returns the built-in styles document.
func Embedded() ([]byte, error) {
	if len(embeddedStyles) == 0 {
		return nil, errors.New(errors.ErrInternal, "no embedded styles")
	}
	return embeddedStyles, nil
}
