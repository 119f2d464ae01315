package main

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/KasumiMercury/primind-last-train/internal/domain"
	"github.com/KasumiMercury/primind-last-train/internal/service/departure"
)

const progressWidth = 30

var (
	countingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true)
	urgentStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	missedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	labelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	alertStyle    = lipgloss.NewStyle().
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("160")).
			Bold(true).
			Padding(0, 1)
	routeStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

// screen serializes writes from the tick goroutine and the alert path.
type screen struct {
	mu  sync.Mutex
	out io.Writer
}

func newScreen(out io.Writer) *screen {
	return &screen{out: out}
}

func (s *screen) countdown(snap departure.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprint(s.out, "\r\033[K"+renderCountdown(snap))
}

func (s *screen) alert(n domain.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.out, "\a\r\033[K%s %s\n", alertStyle.Render(n.Title), n.Body)
}

func (s *screen) route(info *domain.RouteInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintln(s.out, renderRoute(info))
}

func (s *screen) done() {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintln(s.out)
}

func renderCountdown(snap departure.Snapshot) string {
	d := snap.Display
	clock := fmt.Sprintf("%02d:%02d:%02d", d.Hours, d.Minutes, d.Seconds)

	var status string
	switch snap.Phase {
	case domain.PhaseMissed:
		status = missedStyle.Render("missed, take a taxi")
		clock = missedStyle.Render(clock)
	case domain.PhaseUrgent:
		status = urgentStyle.Render("leave now")
		clock = urgentStyle.Render(clock)
	default:
		status = countingStyle.Render("on time")
		clock = countingStyle.Render(clock)
	}

	return fmt.Sprintf("%s %s %s leave by %s (%s)",
		labelStyle.Render(deadlineLabel(snap.Config)),
		clock,
		progressBar(d.ProgressPercent),
		snap.LeaveAt.Format("15:04"),
		status,
	)
}

func deadlineLabel(cfg domain.TimerConfig) string {
	if cfg.Label == "" {
		return cfg.Deadline.String()
	}
	return cfg.Label + " " + cfg.Deadline.String()
}

func progressBar(percent float64) string {
	filled := int(percent / 100 * progressWidth)
	if filled < 0 {
		filled = 0
	}
	if filled > progressWidth {
		filled = progressWidth
	}
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", progressWidth-filled) + "]"
}

func renderRoute(info *domain.RouteInfo) string {
	lines := make([]string, 0, len(info.Steps)+2)
	for _, step := range info.Steps {
		switch step.Kind {
		case domain.StepSubway, domain.StepBus:
			line := lipgloss.NewStyle().Foreground(lipgloss.Color(step.LineColor)).Render(step.Line)
			lines = append(lines, fmt.Sprintf("%s  %s -> %s  %d min", line, step.From, step.To, step.DurationMinutes))
		default:
			lines = append(lines, fmt.Sprintf("walk  %s -> %s  %d min", step.From, step.To, step.DurationMinutes))
		}
	}
	lines = append(lines,
		fmt.Sprintf("total %d min, last train %s", info.TotalMinutes, info.LastTrain),
		fmt.Sprintf("taxi %.0f km, about %d won", info.DistanceKm, info.TaxiFare),
	)
	return routeStyle.Render(strings.Join(lines, "\n"))
}
