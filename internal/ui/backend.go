package ui

import (
	"github.com/atomicstack/nvim-bridge/internal/backend"
	"github.com/atomicstack/nvim-bridge/internal/logging/events"
	tea "github.com/charmbracelet/bubbletea"
)

func waitForBackendEvent(w *backend.Watcher) tea.Cmd {
	return func() tea.Msg {
		evt, ok := <-w.Events()
		if !ok {
			return backendDoneMsg{}
		}
		return backendEventMsg{event: evt}
	}
}

type backendEventMsg struct {
	event backend.Event
}

type backendDoneMsg struct{}

func (m *Model) handleBackendEventMsg(msg tea.Msg) tea.Cmd {
	eventMsg, ok := msg.(backendEventMsg)
	if !ok {
		return nil
	}
	cmd := m.applyBackendEvent(eventMsg.event)
	if m.ended || m.backend == nil {
		return cmd
	}
	waitCmd := waitForBackendEvent(m.backend)
	if cmd != nil {
		return tea.Batch(cmd, waitCmd)
	}
	return waitCmd
}

func (m *Model) handleBackendDoneMsg(msg tea.Msg) tea.Cmd {
	m.backend = nil
	return nil
}

func (m *Model) applyBackendEvent(evt backend.Event) tea.Cmd {
	res := m.dispatcher.Handle(evt)
	if res.Ended {
		m.ended = true
		m.exitCode = res.ExitCode
		m.exitErr = res.Err
		if res.Err != nil {
			m.errMsg = res.Err.Error()
		}
		return m.quitCmd()
	}
	if res.Redraw.HighlightsChanged {
		m.styleCache.Reset()
	}
	if res.Repaint() {
		m.frameDirty = true
		events.UI.Repaint(m.state.Flushes)
	}
	return nil
}
