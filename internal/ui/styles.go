package ui

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dpshade/promptpad/internal/controller"
)

// Adaptive colors, set by initializeColors
var (
	ColorPrimary   lipgloss.Color
	ColorSecondary lipgloss.Color
	ColorAccent    lipgloss.Color

	ColorSuccess lipgloss.Color
	ColorError   lipgloss.Color
	ColorInfo    lipgloss.Color

	ColorText      lipgloss.Color
	ColorTextMuted lipgloss.Color
	ColorTextDim   lipgloss.Color
	ColorBorder    lipgloss.Color
	ColorSurface   lipgloss.Color
)

// initializeColors picks a palette for the terminal background.
// GLAMOUR_STYLE=light|dark forces one.
func initializeColors() {
	switch os.Getenv("GLAMOUR_STYLE") {
	case "light":
		setLightThemeColors()
	case "dark":
		setDarkThemeColors()
	default:
		if lipgloss.HasDarkBackground() {
			setDarkThemeColors()
		} else {
			setLightThemeColors()
		}
	}
	buildStyles()
}

func setDarkThemeColors() {
	ColorPrimary = lipgloss.Color("205")
	ColorSecondary = lipgloss.Color("33")
	ColorAccent = lipgloss.Color("214")

	ColorSuccess = lipgloss.Color("10")
	ColorError = lipgloss.Color("9")
	ColorInfo = lipgloss.Color("12")

	ColorText = lipgloss.Color("252")
	ColorTextMuted = lipgloss.Color("244")
	ColorTextDim = lipgloss.Color("240")
	ColorBorder = lipgloss.Color("238")
	ColorSurface = lipgloss.Color("236")
}

func setLightThemeColors() {
	ColorPrimary = lipgloss.Color("125")
	ColorSecondary = lipgloss.Color("24")
	ColorAccent = lipgloss.Color("130")

	ColorSuccess = lipgloss.Color("22")
	ColorError = lipgloss.Color("160")
	ColorInfo = lipgloss.Color("24")

	ColorText = lipgloss.Color("232")
	ColorTextMuted = lipgloss.Color("240")
	ColorTextDim = lipgloss.Color("244")
	ColorBorder = lipgloss.Color("248")
	ColorSurface = lipgloss.Color("254")
}

// Component styles
var (
	StyleTitle      lipgloss.Style
	StyleText       lipgloss.Style
	StyleTextMuted  lipgloss.Style
	StyleTextDim    lipgloss.Style
	StyleFormLabel  lipgloss.Style
	StyleSelected   lipgloss.Style
	StyleCursor     lipgloss.Style
	StyleUnselected lipgloss.Style

	StyleButton         lipgloss.Style
	StyleButtonDisabled lipgloss.Style

	StyleSuccess lipgloss.Style
	StyleError   lipgloss.Style
	StyleInfo    lipgloss.Style

	StylePanel        lipgloss.Style
	StylePanelFocused lipgloss.Style
	StyleResponse     lipgloss.Style
)

func buildStyles() {
	StyleTitle = lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true).Padding(0, 1)
	StyleText = lipgloss.NewStyle().Foreground(ColorText)
	StyleTextMuted = lipgloss.NewStyle().Foreground(ColorTextMuted)
	StyleTextDim = lipgloss.NewStyle().Foreground(ColorTextDim)
	StyleFormLabel = lipgloss.NewStyle().Foreground(ColorText).Bold(true)

	StyleSelected = lipgloss.NewStyle().
		Foreground(lipgloss.Color("15")).
		Background(ColorAccent).
		Bold(true).
		Padding(0, 1)
	StyleCursor = lipgloss.NewStyle().
		Foreground(lipgloss.Color("15")).
		Background(ColorSecondary).
		Padding(0, 1)
	StyleUnselected = lipgloss.NewStyle().Foreground(ColorTextMuted).Padding(0, 1)

	StyleButton = lipgloss.NewStyle().
		Foreground(lipgloss.Color("15")).
		Background(ColorPrimary).
		Bold(true).
		Padding(0, 2).
		MarginRight(1)
	StyleButtonDisabled = lipgloss.NewStyle().
		Foreground(ColorTextDim).
		Background(ColorSurface).
		Padding(0, 2).
		MarginRight(1)

	StyleSuccess = lipgloss.NewStyle().Foreground(ColorSuccess).Bold(true).Padding(0, 1)
	StyleError = lipgloss.NewStyle().Foreground(ColorError).Bold(true).Padding(0, 1)
	StyleInfo = lipgloss.NewStyle().Foreground(ColorInfo).Bold(true).Padding(0, 1)

	StylePanel = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Padding(0, 1)
	StylePanelFocused = StylePanel.BorderForeground(ColorSecondary)
	StyleResponse = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder)
}

func init() {
	setDarkThemeColors()
	buildStyles()
}

func CreateHeader(titleText, metaText string) string {
	title := StyleTitle.Render(titleText)
	if metaText == "" {
		return title
	}
	return lipgloss.JoinHorizontal(lipgloss.Left, title, StyleTextDim.Render(metaText))
}

func CreateHelp(text string) string {
	return StyleTextDim.Render(text)
}

// CreateStatus renders a flash message in its kind's color
func CreateStatus(flash controller.Flash) string {
	switch flash.Kind {
	case controller.FlashSuccess:
		return StyleSuccess.Render(flash.Text)
	case controller.FlashError:
		return StyleError.Render(flash.Text)
	default:
		return StyleInfo.Render(flash.Text)
	}
}

// CreateButton renders a labelled key hint as a button
func CreateButton(label, key string, disabled bool) string {
	text := label + " " + key
	if disabled {
		return StyleButtonDisabled.Render(text)
	}
	return StyleButton.Render(text)
}

// Add consistent left padding to main content
func AddMainPadding(content string) string {
	return lipgloss.NewStyle().PaddingLeft(2).Render(content)
}

// truncateLine cuts s to width cells, marking the cut with "..."
func truncateLine(s string, width int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if width <= 3 || lipgloss.Width(s) <= width {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && lipgloss.Width(string(r))+3 > width {
		r = r[:len(r)-1]
	}
	return string(r) + "..."
}
