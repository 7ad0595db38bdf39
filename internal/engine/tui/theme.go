package tui

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ColorToken names a themeable color.
type ColorToken string

// Color tokens. These are the keys users can override under theme.colors.
const (
	TokenTextPrimary   ColorToken = "text.primary"
	TokenTextMuted     ColorToken = "text.muted"
	TokenBorderDefault ColorToken = "border.default"
	TokenBorderFocus   ColorToken = "border.focus"
	TokenTitle         ColorToken = "title"
	TokenStatusSuccess ColorToken = "status.success"
	TokenStatusWarning ColorToken = "status.warning"
	TokenStatusError   ColorToken = "status.error"
	TokenButtonText    ColorToken = "button.text"
	TokenButtonBg      ColorToken = "button.bg"
	TokenButtonFocusBg ColorToken = "button.focus"
	TokenSpinner       ColorToken = "spinner"
)

// DefaultColors are the built-in token values.
var DefaultColors = map[ColorToken]string{
	TokenTextPrimary:   "#CCCCCC",
	TokenTextMuted:     "#696969",
	TokenBorderDefault: "#696969",
	TokenBorderFocus:   "#54A0FF",
	TokenTitle:         "#CBA6F7",
	TokenStatusSuccess: "#73F59F",
	TokenStatusWarning: "#FECA57",
	TokenStatusError:   "#FF8787",
	TokenButtonText:    "#FFFFFF",
	TokenButtonBg:      "#1A5276",
	TokenButtonFocusBg: "#3498DB",
	TokenSpinner:       "#FF79C6",
}

// Theme maps element classes to lipgloss styles.
type Theme struct {
	colors  map[ColorToken]string
	classes map[string]lipgloss.Style
}

// DefaultTheme builds the theme from DefaultColors.
func DefaultTheme() *Theme {
	t, _ := NewTheme(nil)
	return t
}

// NewTheme builds a theme from DefaultColors with overrides applied.
// Override keys must be known tokens and values #RGB or #RRGGBB hex.
func NewTheme(overrides map[string]string) (*Theme, error) {
	colors := maps.Clone(DefaultColors)
	for key, value := range overrides {
		token := ColorToken(key)
		if _, ok := DefaultColors[token]; !ok {
			return nil, fmt.Errorf("unknown color token: %s", key)
		}
		if !isValidHexColor(value) {
			return nil, fmt.Errorf("invalid hex color for %s: %s", key, value)
		}
		colors[token] = value
	}
	t := &Theme{colors: colors}
	t.build()
	return t, nil
}

// Tokens returns every known color token, sorted.
func Tokens() []ColorToken {
	out := slices.Collect(maps.Keys(DefaultColors))
	slices.Sort(out)
	return out
}

// Color returns the color for token.
func (t *Theme) Color(token ColorToken) lipgloss.AdaptiveColor {
	hex := t.colors[token]
	return lipgloss.AdaptiveColor{Light: hex, Dark: hex}
}

// Class returns the style for class and whether the theme defines it.
func (t *Theme) Class(class string) (lipgloss.Style, bool) {
	s, ok := t.classes[class]
	return s, ok
}

func (t *Theme) build() {
	button := lipgloss.NewStyle().Padding(0, 1).Bold(true).
		Foreground(t.Color(TokenButtonText)).
		Background(t.Color(TokenButtonBg))

	t.classes = map[string]lipgloss.Style{
		"title":   lipgloss.NewStyle().Bold(true).Foreground(t.Color(TokenTitle)),
		"muted":   lipgloss.NewStyle().Foreground(t.Color(TokenTextMuted)),
		"success": lipgloss.NewStyle().Foreground(t.Color(TokenStatusSuccess)),
		"warning": lipgloss.NewStyle().Foreground(t.Color(TokenStatusWarning)),
		"error":   lipgloss.NewStyle().Foreground(t.Color(TokenStatusError)),
		"spinner": lipgloss.NewStyle().Foreground(t.Color(TokenSpinner)),
		"button":  button,
		"focused": button.Background(t.Color(TokenButtonFocusBg)).Underline(true),
		"bold":    lipgloss.NewStyle().Bold(true),
		"italic":  lipgloss.NewStyle().Italic(true),
	}
}

func isValidHexColor(s string) bool {
	if !strings.HasPrefix(s, "#") {
		return false
	}
	hex := s[1:]
	if len(hex) != 3 && len(hex) != 6 {
		return false
	}
	_, err := strconv.ParseUint(hex, 16, 32)
	return err == nil
}
