package ui

import (
	"context"
	"errors"
	"time"

	"github.com/atomicstack/nvim-bridge/internal/logging/events"
	"github.com/atomicstack/nvim-bridge/internal/rpc"
	"github.com/atomicstack/nvim-bridge/internal/ui/command"
	tea "github.com/charmbracelet/bubbletea"
)

const infoDuration = 5 * time.Second

func (m *Model) handleActionResultMsg(msg tea.Msg) tea.Cmd {
	result, ok := msg.(command.ActionResult)
	if !ok {
		return nil
	}
	if result.Err == nil {
		if result.Label == "paste" {
			m.setInfo("pasted")
		}
		return nil
	}
	// requests cut short by shutdown are not worth reporting
	if errors.Is(result.Err, context.Canceled) || errors.Is(result.Err, rpc.ErrCancelled) {
		return nil
	}
	var remote *rpc.RemoteError
	if errors.As(result.Err, &remote) {
		m.errMsg = remote.Message()
	} else {
		m.errMsg = result.Err.Error()
	}
	events.Action.Error(result.Err)
	return nil
}

func (m *Model) handleWindowSizeMsg(msg tea.Msg) tea.Cmd {
	resize, ok := msg.(tea.WindowSizeMsg)
	if !ok {
		return nil
	}
	if m.opts.Width <= 0 {
		m.width = resize.Width
	}
	if m.opts.Height <= 0 {
		m.height = resize.Height
	}
	events.UI.Resize(m.width, m.height)
	m.frameDirty = true
	cols, rows := m.gridSize()
	if m.editor == nil || cols <= 0 || rows <= 0 {
		return nil
	}
	return m.bus.Go("resize", func(ctx context.Context) error {
		_, err := m.editor.Resize(ctx, cols, rows)
		return err
	})
}

// gridSize is the outer grid size that fits the surface.
func (m *Model) gridSize() (int, int) {
	rows := m.height
	if !m.opts.HideStatus {
		rows--
	}
	return m.width, rows
}

func (m *Model) setInfo(message string) {
	m.infoMsg = message
	m.infoExpire = time.Now().Add(infoDuration)
}

func (m *Model) currentInfo() string {
	if m.infoMsg != "" && !m.infoExpire.IsZero() && time.Now().After(m.infoExpire) {
		m.infoMsg = ""
		m.infoExpire = time.Time{}
	}
	return m.infoMsg
}
