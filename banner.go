package turbo

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/lipgloss"
	figure "github.com/common-nighthawk/go-figure"
)

func (a *App) colorWriter(w io.Writer) *colorprofile.Writer {
	cpw := colorprofile.NewWriter(w, os.Environ())
	if a.config.environment == "production" {
		cpw.Profile = colorprofile.NoTTY
	}
	return cpw
}

// printBanner renders the service name as gradient ASCII art followed by
// a small key/value summary, matching the framework's startup DX.
func (a *App) printBanner(addr string) {
	if !a.config.bannerEnabled {
		return
	}
	w := a.colorWriter(os.Stdout)

	art := figure.NewFigure(a.config.serviceName, "", false)

	gradient := []string{"12", "14", "10", "11"}
	if a.config.environment == "production" {
		gradient = []string{"10", "11"}
	}

	var out strings.Builder
	for _, line := range art.Slicify() {
		if strings.TrimSpace(line) == "" {
			out.WriteString("\n")
			continue
		}
		for i, ch := range line {
			style := lipgloss.NewStyle().Foreground(lipgloss.Color(gradient[i%len(gradient)])).Bold(true)
			out.WriteString(style.Render(string(ch)))
		}
		out.WriteString("\n")
	}

	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Width(14)
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("252"))

	fmt.Fprint(w, out.String())
	fmt.Fprintln(w, labelStyle.Render("environment")+valueStyle.Render(a.config.environment))
	fmt.Fprintln(w, labelStyle.Render("listening")+valueStyle.Render(addr))
	fmt.Fprintln(w, labelStyle.Render("state")+valueStyle.Render(a.State().String()))
}
