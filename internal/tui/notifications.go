package tui

import (
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/thenoetrevino/kansync/internal/client"
)

// Severity represents the severity level of a notification
type Severity int

const (
	Info Severity = iota
	Warning
	Error
)

const noticeTTL = 5 * time.Second

// notice is the one message shown in the status line
type notice struct {
	id       int
	severity Severity
	message  string
}

// clearNoticeMsg expires notice id unless a newer one replaced it
type clearNoticeMsg struct{ id int }

func (m *Model) notify(severity Severity, format string, args ...any) tea.Cmd {
	m.noticeSeq++
	id := m.noticeSeq
	m.notice = &notice{id: id, severity: severity, message: fmt.Sprintf(format, args...)}
	return tea.Tick(noticeTTL, func(time.Time) tea.Msg { return clearNoticeMsg{id: id} })
}

func (m Model) renderNotice() string {
	if m.notice == nil {
		return ""
	}
	switch m.notice.severity {
	case Error:
		return m.styles.Error.Render("✕ " + m.notice.message)
	case Warning:
		return m.styles.Warning.Render("⚠ " + m.notice.message)
	default:
		return m.styles.Info.Render("• " + m.notice.message)
	}
}

// describeFailure turns a failed outcome into a status line message
func describeFailure(out client.Outcome) string {
	var te *client.TransportError
	if errors.As(out.Err, &te) {
		if te.HostCode != "" {
			return fmt.Sprintf("host rejected %s of card %d (%s)", out.Op, out.CardID, te.HostCode)
		}
		return fmt.Sprintf("%s of card %d not saved: %s", out.Op, out.CardID, te.Code)
	}
	return fmt.Sprintf("%s of card %d not saved: %v", out.Op, out.CardID, out.Err)
}
