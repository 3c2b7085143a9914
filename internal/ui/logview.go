package ui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"
	"github.com/sahilm/fuzzy"

	"devbridge/internal/logstream"
)

// maxLogLines bounds the scrollback kept in memory.
const maxLogLines = 5000

// maxBatch is how many queued entries one update drains.
const maxBatch = 256

type entriesMsg []logstream.Entry

type streamEndMsg struct{ err error }

// LogViewer is a Bubble Tea model that tails device log entries.
type LogViewer struct {
	device  string
	entries <-chan logstream.Entry
	errs    <-chan error

	lines    []logstream.Entry
	minLevel logstream.Level
	filter   string
	shown    int

	vp        viewport.Model
	ti        textinput.Model
	spin      spinner.Model
	filtering bool
	follow    bool
	ready     bool
	width     int
	height    int

	ended  bool
	endErr error
}

// NewLogViewer returns a viewer reading from entries. When entries is
// closed the viewer reads one value from errs to report why.
func NewLogViewer(device string, entries <-chan logstream.Entry, errs <-chan error) LogViewer {
	ti := textinput.New()
	ti.Prompt = IconFilter() + " "
	ti.Placeholder = "fuzzy filter"
	ti.CharLimit = 200

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = lipgloss.NewStyle().Foreground(Vitesse.Primary)

	return LogViewer{
		device:   device,
		entries:  entries,
		errs:     errs,
		minLevel: logstream.LevelVerbose,
		vp:       viewport.New(80, 20),
		ti:       ti,
		spin:     sp,
		follow:   true,
	}
}

func (m LogViewer) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, waitForEntries(m.entries, m.errs))
}

// waitForEntries blocks for one entry and then drains what is already queued.
func waitForEntries(entries <-chan logstream.Entry, errs <-chan error) tea.Cmd {
	return func() tea.Msg {
		e, ok := <-entries
		if !ok {
			var err error
			if errs != nil {
				err = <-errs
			}
			return streamEndMsg{err: err}
		}
		batch := entriesMsg{e}
		for len(batch) < maxBatch {
			select {
			case e, ok := <-entries:
				if !ok {
					return batch
				}
				batch = append(batch, e)
			default:
				return batch
			}
		}
		return batch
	}
}

func (m LogViewer) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.vp.Width = msg.Width
		m.vp.Height = max(1, msg.Height-2)
		m.ti.Width = max(10, msg.Width-4)
		m.ready = true
		m.refresh()
		return m, nil

	case entriesMsg:
		m.lines = append(m.lines, msg...)
		if over := len(m.lines) - maxLogLines; over > 0 {
			m.lines = slices.Delete(m.lines, 0, over)
		}
		m.refresh()
		return m, waitForEntries(m.entries, m.errs)

	case streamEndMsg:
		m.ended = true
		m.endErr = msg.err
		return m, nil

	case spinner.TickMsg:
		if m.ended || len(m.lines) > 0 {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.filtering {
			return m.updateFilter(msg)
		}
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "/":
			m.filtering = true
			return m, m.ti.Focus()
		case "f":
			m.follow = !m.follow
			if m.follow {
				m.vp.GotoBottom()
			}
			return m, nil
		case "G", "end":
			m.follow = true
			m.vp.GotoBottom()
			return m, nil
		case "g", "home":
			m.follow = false
			m.vp.GotoTop()
			return m, nil
		case "l":
			m.minLevel = nextLevel(m.minLevel)
			m.refresh()
			return m, nil
		case "c":
			m.lines = nil
			m.refresh()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.vp, cmd = m.vp.Update(msg)
	if _, ok := msg.(tea.KeyMsg); ok {
		m.follow = m.vp.AtBottom()
	}
	return m, cmd
}

func (m LogViewer) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.filtering = false
		m.ti.Blur()
		m.ti.SetValue("")
		m.filter = ""
		m.refresh()
		return m, nil
	case "enter":
		m.filtering = false
		m.ti.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.ti, cmd = m.ti.Update(msg)
	if v := strings.TrimSpace(m.ti.Value()); v != m.filter {
		m.filter = v
		m.refresh()
	}
	return m, cmd
}

var levelCycle = []logstream.Level{
	logstream.LevelVerbose,
	logstream.LevelInfo,
	logstream.LevelWarn,
	logstream.LevelError,
}

func nextLevel(l logstream.Level) logstream.Level {
	i := slices.Index(levelCycle, l)
	return levelCycle[(i+1)%len(levelCycle)]
}

// visible returns the entries that pass the level and text filters, in
// arrival order.
func (m LogViewer) visible() []logstream.Entry {
	var out []logstream.Entry
	for _, e := range m.lines {
		if e.Level.AtLeast(m.minLevel) {
			out = append(out, e)
		}
	}
	if m.filter == "" || len(out) == 0 {
		return out
	}
	texts := make([]string, len(out))
	for i, e := range out {
		texts[i] = e.Process + " " + e.Subsystem + " " + e.Message
	}
	matches := fuzzy.Find(m.filter, texts)
	idx := make([]int, 0, len(matches))
	for _, mt := range matches {
		idx = append(idx, mt.Index)
	}
	slices.Sort(idx)
	filtered := make([]logstream.Entry, 0, len(idx))
	for _, i := range idx {
		filtered = append(filtered, out[i])
	}
	return filtered
}

func (m *LogViewer) refresh() {
	vis := m.visible()
	m.shown = len(vis)
	var b strings.Builder
	for i, e := range vis {
		if i > 0 {
			b.WriteByte('\n')
		}
		line := e.Format()
		if m.vp.Width > 0 {
			line = xansi.Truncate(line, m.vp.Width, "…")
		}
		b.WriteString(lipgloss.NewStyle().Foreground(LevelColor(e.Level)).Render(line))
	}
	m.vp.SetContent(b.String())
	if m.follow {
		m.vp.GotoBottom()
	}
}

func (m LogViewer) View() string {
	if !m.ready {
		return m.spin.View() + " waiting for " + m.device + "\n"
	}
	var body string
	if len(m.lines) == 0 && !m.ended {
		body = lipgloss.Place(m.width, m.vp.Height, lipgloss.Center, lipgloss.Center,
			m.spin.View()+" waiting for log output from "+m.device)
	} else {
		body = m.vp.View()
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.headerLine(), body, m.footerLine())
}

func (m LogViewer) headerLine() string {
	left := ChipKeyStyle().Render(IconTerminal() + " " + m.device)
	mode := ChipStyle(Vitesse.Blue).Render(IconFollow() + " follow")
	if !m.follow {
		mode = ChipStyle(Vitesse.Yellow).Render(IconPause() + " paused")
	}
	level := ChipStyle(Vitesse.Cyan).Render("≥ " + string(m.minLevel))
	count := StatusBarBase().Padding(0, 1).Render(fmt.Sprintf("%d/%d", m.shown, len(m.lines)))
	line := left + mode + level + count
	if m.ended {
		state := "stream ended"
		bg := Vitesse.Secondary
		if m.endErr != nil {
			state = IconWarn() + " " + m.endErr.Error()
			bg = Vitesse.Red
		}
		line += ChipStyle(bg).Render(state)
	}
	return fillLine(line, m.width)
}

func (m LogViewer) footerLine() string {
	if m.filtering {
		return m.ti.View()
	}
	help := "q quit · / filter · f follow · l level · g/G top/bottom · c clear"
	if m.filter != "" {
		help = IconFilter() + " " + m.filter + " · " + help
	}
	return fillLine(lipgloss.NewStyle().Foreground(Vitesse.Secondary).Render(help), m.width)
}

// fillLine clips s to w and pads it with the status bar background.
func fillLine(s string, w int) string {
	if w <= 0 {
		return s
	}
	s = xansi.Truncate(s, w, "")
	if pad := w - lipgloss.Width(s); pad > 0 {
		s += StatusBarBase().Render(strings.Repeat(" ", pad))
	}
	return s
}
