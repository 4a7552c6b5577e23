package ui

import (
	"github.com/charmbracelet/lipgloss"
)

var styles = NewPalette("#7D56F4", "#1DB954", "#FF0000", "#FFA500", "#626262")

// Status line markers.
const (
	MarkSuccess = "✓"
	MarkInfo    = "•"
	MarkWarn    = "⚠"
	MarkError   = "✗"
)

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
}

func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title: NewBold(t).MarginBottom(1),
		ok:    NewBold(s),
		err:   NewBold(e),
		warn:  NewStyle(w),
		help:  NewEm(h),
	}
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}

// Title renders a section heading.
func (p *Palette) Title(text string) string { return p.title.Render(text) }

// Success renders text as a completed status line.
func (p *Palette) Success(text string) string { return p.ok.Render(MarkSuccess + " " + text) }

// Info renders text as a neutral status line.
func (p *Palette) Info(text string) string { return MarkInfo + " " + text }

// Warn renders text as a warning status line.
func (p *Palette) Warn(text string) string { return p.warn.Render(MarkWarn + " " + text) }

// Error renders text as a failed status line.
func (p *Palette) Error(text string) string { return p.err.Render(MarkError + " " + text) }

// Help renders secondary text such as hints and next steps.
func (p *Palette) Help(text string) string { return p.help.Render(text) }

func Title(text string) string   { return styles.Title(text) }
func Success(text string) string { return styles.Success(text) }
func Info(text string) string    { return styles.Info(text) }
func Warn(text string) string    { return styles.Warn(text) }
func Error(text string) string   { return styles.Error(text) }
func Help(text string) string    { return styles.Help(text) }
