// Package tui provides a terminal user interface for beatgrid
package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/james-see/beatgrid/pkg/beatmap"
	"github.com/james-see/beatgrid/pkg/converter"
)

// osu! pink on charcoal
var (
	hitPink   = lipgloss.Color("#FF66AA")
	approach  = lipgloss.Color("#66CCFF")
	paleGray  = lipgloss.Color("#D0D0D0")
	charcoal  = lipgloss.Color("#2A2A2A")
	missRed   = lipgloss.Color("#FF4040")
	dimGray   = lipgloss.Color("#777777")
	comboGold = lipgloss.Color("#FFCC22")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(hitPink).
			Background(charcoal).
			Padding(0, 2).
			MarginBottom(1)

	menuStyle = lipgloss.NewStyle().
			Foreground(paleGray).
			PaddingLeft(2)

	selectedStyle = lipgloss.NewStyle().
			Foreground(hitPink).
			Bold(true).
			PaddingLeft(2)

	descStyle = lipgloss.NewStyle().
			Foreground(approach).
			PaddingLeft(4)

	statusStyle = lipgloss.NewStyle().
			Foreground(comboGold).
			PaddingTop(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(missRed).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(hitPink).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(dimGray).
			MarginTop(1)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(hitPink).
			Padding(1, 2)
)

// State represents the current TUI state
type State int

const (
	StateMenu State = iota
	StateFilePicker
	StateConverting
	StateResult
)

// MenuItem represents a menu option
type MenuItem struct {
	Title       string
	Description string
	From        converter.Format
	To          converter.Format
}

var menuItems = []MenuItem{
	{Title: "OSU → OSG", Description: "Encode a chart into a sparse training unit", From: converter.FormatOsu, To: converter.FormatOsg},
	{Title: "OSG → OSU", Description: "Rebuild a minimal chart from an encoded unit", From: converter.FormatOsg, To: converter.FormatOsu},
	{Title: "OSU → MIDI", Description: "Render a chart as a percussion rhythm preview", From: converter.FormatOsu, To: converter.FormatMIDI},
	{Title: "OSG → MIDI", Description: "Render an encoded unit as a rhythm preview", From: converter.FormatOsg, To: converter.FormatMIDI},
	{Title: "MIDI → OSU", Description: "Quantize MIDI note starts into a chart", From: converter.FormatMIDI, To: converter.FormatOsu},
	{Title: "ACT → OSU", Description: "Build a chart from an activation sequence", From: converter.FormatActivation, To: converter.FormatOsu},
	{Title: "Exit", Description: "Exit the application"},
}

var allowedTypes = map[converter.Format][]string{
	converter.FormatOsu:        {".osu"},
	converter.FormatOsg:        {".osg"},
	converter.FormatMIDI:       {".mid", ".midi"},
	converter.FormatActivation: {".act", ".txt"},
}

// Model represents the TUI model
type Model struct {
	conv         *converter.Converter
	state        State
	menuIndex    int
	filePicker   filepicker.Model
	spinner      spinner.Model
	selectedFile string
	outputFile   string
	stats        *converter.Stats
	conversion   MenuItem
	err          error
	width        int
	height       int
}

// conversionDoneMsg signals conversion completion
type conversionDoneMsg struct {
	outputFile string
	stats      *converter.Stats
	err        error
}

// Init initializes the TUI model
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick)
}

// New creates a new TUI model around conv
func New(conv *converter.Converter) Model {
	if conv == nil {
		conv = converter.New(beatmap.DefaultConfig())
	}

	fp := filepicker.New()
	fp.AllowedTypes = []string{".osu", ".osg", ".mid", ".midi", ".act", ".txt"}
	fp.CurrentDirectory, _ = os.Getwd()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(hitPink)

	return Model{
		conv:       conv,
		state:      StateMenu,
		filePicker: fp,
		spinner:    s,
	}
}

// Update handles TUI updates
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// The file picker needs every message while it is open
	if m.state == StateFilePicker {
		if keyMsg, ok := msg.(tea.KeyMsg); ok {
			switch keyMsg.String() {
			case "esc":
				m.state = StateMenu
				return m, nil
			case "q", "ctrl+c":
				return m, tea.Quit
			}
		}

		var cmd tea.Cmd
		m.filePicker, cmd = m.filePicker.Update(msg)

		if didSelect, path := m.filePicker.DidSelectFile(msg); didSelect {
			m.selectedFile = path
			m.state = StateConverting
			return m, tea.Batch(m.spinner.Tick, m.performConversion())
		}

		return m, cmd
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.filePicker.SetHeight(msg.Height - 10)
		return m, nil

	case tea.KeyMsg:
		switch m.state {
		case StateMenu:
			return m.updateMenu(msg)
		case StateResult:
			return m.updateResult(msg)
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case conversionDoneMsg:
		m.state = StateResult
		m.outputFile = msg.outputFile
		m.stats = msg.stats
		m.err = msg.err
		return m, nil
	}

	return m, nil
}

func (m Model) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.menuIndex > 0 {
			m.menuIndex--
		}
	case "down", "j":
		if m.menuIndex < len(menuItems)-1 {
			m.menuIndex++
		}
	case "enter":
		if m.menuIndex == len(menuItems)-1 {
			return m, tea.Quit
		}
		m.conversion = menuItems[m.menuIndex]
		m.state = StateFilePicker
		m.filePicker.AllowedTypes = allowedTypes[m.conversion.From]
		return m, m.filePicker.Init()
	case "q", "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) updateResult(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc":
		m.state = StateMenu
		m.err = nil
		m.stats = nil
		m.selectedFile = ""
		m.outputFile = ""
		return m, nil
	case "q", "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) performConversion() tea.Cmd {
	conv, in, item := m.conv, m.selectedFile, m.conversion
	return func() tea.Msg {
		return convert(conv, in, item)
	}
}

// convert writes in converted per item next to the input file
func convert(conv *converter.Converter, in string, item MenuItem) conversionDoneMsg {
	out := strings.TrimSuffix(in, filepath.Ext(in)) + item.To.Ext()

	if item.From == converter.FormatOsu && item.To == converter.FormatOsg {
		e, err := conv.EncodeFile(in)
		if err != nil {
			return conversionDoneMsg{err: err}
		}
		if err := converter.WriteEncodedFile(e, out); err != nil {
			return conversionDoneMsg{err: err}
		}
		return conversionDoneMsg{outputFile: out, stats: &e.Stats}
	}

	if err := conv.ConvertFile(in, out); err != nil {
		return conversionDoneMsg{err: err}
	}
	return conversionDoneMsg{outputFile: out}
}

// View renders the TUI
func (m Model) View() string {
	var s strings.Builder

	s.WriteString(asciiLogo())
	s.WriteString("\n")

	switch m.state {
	case StateMenu:
		s.WriteString(m.viewMenu())
	case StateFilePicker:
		s.WriteString(m.viewFilePicker())
	case StateConverting:
		s.WriteString(m.viewConverting())
	case StateResult:
		s.WriteString(m.viewResult())
	}

	s.WriteString("\n")
	s.WriteString(helpStyle.Render("↑/↓: navigate • enter: select • q: quit"))

	return s.String()
}

func (m Model) viewMenu() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(fmt.Sprintf(" SELECT CONVERSION · %dms slots ", m.conv.Config().Step)))
	s.WriteString("\n\n")

	for i, item := range menuItems {
		if i == m.menuIndex {
			s.WriteString(selectedStyle.Render(fmt.Sprintf("▸ %s", item.Title)))
			s.WriteString("\n")
			s.WriteString(descStyle.Render(item.Description))
		} else {
			s.WriteString(menuStyle.Render(fmt.Sprintf("  %s", item.Title)))
		}
		s.WriteString("\n")
	}

	return boxStyle.Render(s.String())
}

func (m Model) viewFilePicker() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(fmt.Sprintf(" SELECT %s FILE ", strings.ToUpper(string(m.conversion.From)))))
	s.WriteString("\n\n")
	s.WriteString(m.filePicker.View())
	s.WriteString("\n")
	s.WriteString(helpStyle.Render("esc: back to menu"))

	return s.String()
}

func (m Model) viewConverting() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(" CONVERTING "))
	s.WriteString("\n\n")
	s.WriteString(fmt.Sprintf("%s Converting %s...\n", m.spinner.View(), filepath.Base(m.selectedFile)))
	s.WriteString(statusStyle.Render(fmt.Sprintf("  %s → %s", m.conversion.From, m.conversion.To)))

	return boxStyle.Render(s.String())
}

func (m Model) viewResult() string {
	var s strings.Builder

	if m.err != nil {
		s.WriteString(titleStyle.Render(" ERROR "))
		s.WriteString("\n\n")
		s.WriteString(errorStyle.Render(fmt.Sprintf("✗ Conversion failed: %s", m.err.Error())))
		if kind := beatmap.ErrorKind(m.err); kind != "IO" {
			s.WriteString("\n")
			s.WriteString(statusStyle.Render("  kind: " + kind))
		}
	} else {
		s.WriteString(titleStyle.Render(" SUCCESS "))
		s.WriteString("\n\n")
		s.WriteString(successStyle.Render("✓ Conversion complete!"))
		s.WriteString("\n\n")
		s.WriteString(fmt.Sprintf("Input:  %s\n", filepath.Base(m.selectedFile)))
		s.WriteString(fmt.Sprintf("Output: %s", filepath.Base(m.outputFile)))
		if m.stats != nil {
			s.WriteString("\n")
			s.WriteString(statusStyle.Render(fmt.Sprintf("  %d events · %d placed · %d dropped · %d sliders",
				m.stats.Events, m.stats.Placed, m.stats.Dropped, m.stats.Sliders)))
		}
	}

	s.WriteString("\n\n")
	s.WriteString(helpStyle.Render("Press enter to continue"))

	return boxStyle.Render(s.String())
}

func asciiLogo() string {
	logo := `
   _                _              _     _
  | |__   ___  __ _| |_ __ _ _ __(_) __| |
  | '_ \ / _ \/ _' | __/ _' | '__| |/ _' |
  | |_) |  __/ (_| | || (_| | |  | | (_| |
  |_.__/ \___|\__,_|\__\__, |_|  |_|\__,_|
                       |___/
`
	return lipgloss.NewStyle().Foreground(hitPink).Render(logo)
}

// Run starts the TUI application
func Run(conv *converter.Converter) error {
	p := tea.NewProgram(New(conv), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
