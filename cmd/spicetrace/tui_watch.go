// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/aleutian-labs/spicetrace/internal/extract"
)

// watchEvent is sent on extractedCh each time the watcher ingests (or
// fails to ingest) a file.
type watchEvent struct {
	file string
	err  error
}

// tuiIngester wraps a *extract.Driver so every ExtractFile call also
// reports its outcome to a channel the dashboard model reads from.
type tuiIngester struct {
	driver *extract.Driver
	events chan<- watchEvent
}

func (t *tuiIngester) ExtractFile(ctx context.Context, path string) error {
	err := t.driver.ExtractFile(ctx, path)
	t.events <- watchEvent{file: path, err: err}
	return err
}

type watchModel struct {
	recent  []string
	okCount int
	errCount int
}

func newWatchModel() watchModel {
	return watchModel{}
}

func (m watchModel) Init() tea.Cmd { return nil }

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, tea.Quit
		}
	case watchEvent:
		line := msg.file
		if msg.err != nil {
			m.errCount++
			line = errorStyle.Render("FAIL ") + line
		} else {
			m.okCount++
			line = successStyle.Render("OK   ") + line
		}
		m.recent = append(m.recent, line)
		if len(m.recent) > 10 {
			m.recent = m.recent[len(m.recent)-10:]
		}
	}
	return m, nil
}

func (m watchModel) View() string {
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Render("spicetrace watch"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("ok=%d failed=%d (q to quit)\n\n", m.okCount, m.errCount)))
	for _, line := range m.recent {
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}
