package report

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/devguard/devguard/internal/types"
	"github.com/olekukonko/tablewriter"
	"golang.org/x/term"
)

type PrintOptions struct {
	NoColor bool
}

var (
	presentStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	notPresentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	erroredStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	notCheckedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// ColorEnabled reports whether w is a terminal that should get colour.
// NO_COLOR and noColor both turn it off.
func ColorEnabled(w io.Writer, noColor bool) bool {
	if noColor || os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// PrintTable renders one row per threat kind followed by a summary line.
func PrintTable(w io.Writer, r types.Report, opts PrintOptions) error {
	table := tablewriter.NewWriter(w)
	table.Header("KIND", "STATUS", "DETAIL")
	for _, k := range types.AllKinds() {
		st := r.Get(k)
		if err := table.Append([]string{k.String(), stateText(st.State, opts.NoColor), detail(st)}); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, summary(r))
	return err
}

// PrintLine writes a compact single-line view of r, used by watch.
func PrintLine(w io.Writer, r types.Report, opts PrintOptions) error {
	parts := make([]string, 0, len(types.AllKinds()))
	for _, k := range types.AllKinds() {
		parts = append(parts, k.String()+"="+stateText(r.Get(k).State, opts.NoColor))
	}
	_, err := fmt.Fprintf(w, "v%d %s\n", r.Version(), strings.Join(parts, " "))
	return err
}

func summary(r types.Report) string {
	detected := r.Detected()
	if len(detected) == 0 {
		return fmt.Sprintf("No threats detected (report v%d)", r.Version())
	}
	names := make([]string, len(detected))
	for i, k := range detected {
		names[i] = k.String()
	}
	return fmt.Sprintf("Threats detected: %d (%s) (report v%d)", len(detected), strings.Join(names, ", "), r.Version())
}

func detail(st types.ThreatStatus) string {
	if st.State == types.Errored && st.Cause != nil {
		return st.Cause.Error()
	}
	return ""
}

func stateText(s types.State, noColor bool) string {
	if noColor {
		return s.String()
	}
	switch s {
	case types.Present:
		return presentStyle.Render(s.String())
	case types.NotPresent:
		return notPresentStyle.Render(s.String())
	case types.Errored:
		return erroredStyle.Render(s.String())
	default:
		return notCheckedStyle.Render(s.String())
	}
}
