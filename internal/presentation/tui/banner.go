package tui

import (
	"fmt"
	"io"

	"github.com/aretw0/palaver/pkg/domain"
	"github.com/muesli/termenv"
)

var bannerLines = []string{
	"              _",
	"  _ __   __ _| | __ ___   _____ _ __",
	" | '_ \\ / _` | |/ _` \\ \\ / / _ \\ '__|",
	" | |_) | (_| | | (_| |\\ V /  __/ |",
	" | .__/ \\__,_|_|\\__,_| \\_/ \\___|_|",
	" |_|",
}

var bannerColors = []string{"#818cf8", "#a78bfa", "#c084fc", "#e879f9", "#f472b6", "#fb7185"}

// PrintBanner writes the palaver banner followed by the agent header.
func PrintBanner(w io.Writer, agent domain.AgentDescriptor) {
	p := termenv.EnvColorProfile()

	fmt.Fprintln(w)
	for i, line := range bannerLines {
		fmt.Fprintln(w, p.String(line).Foreground(p.Color(bannerColors[i])))
	}
	fmt.Fprintln(w)

	name := agent.Name
	if name == "" {
		name = agent.ID
	}
	fmt.Fprintln(w, p.String(" "+name).Bold().Foreground(p.Color("#a78bfa")))
	if agent.Description != "" {
		fmt.Fprintln(w, p.String(" "+agent.Description).Faint())
	}
	fmt.Fprintln(w)
}
