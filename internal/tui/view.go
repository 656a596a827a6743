package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/fyrsmithlabs/uigen/internal/auth"
	"github.com/fyrsmithlabs/uigen/internal/command"
	"github.com/fyrsmithlabs/uigen/internal/session"
	"github.com/fyrsmithlabs/uigen/internal/switcher"
)

// View renders the header bar and the open dialog.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.renderToolbar())
	b.WriteString("\n")

	switch m.ctrl.Modal() {
	case session.ModalPicker:
		b.WriteString(m.renderPicker(time.Now()))
	case session.ModalPalette:
		b.WriteString(m.renderPalette())
	case session.ModalConfirmClear:
		b.WriteString(m.renderConfirm())
	case session.ModalAuth:
		b.WriteString(m.renderAuth())
	}

	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func button(key, label string) string {
	return buttonKeyStyle.Render("["+key+"]") + buttonStyle.Render(label)
}

func (m Model) renderToolbar() string {
	parts := []string{titleStyle.Render("uigen")}

	if m.ctrl.Mode() != session.Authenticated {
		parts = append(parts, button("i", "Sign In"), button("u", "Sign Up"))
		return lipgloss.JoinHorizontal(lipgloss.Center, spaced(parts)...)
	}

	switch sw := m.ctrl.Switcher(); sw.State() {
	case switcher.Loading:
		parts = append(parts, dimStyle.Render("Loading..."))
	case switcher.Idle:
		parts = append(parts, pickerLabelStyle.Render(sw.Label()+" ▾"))
	}

	parts = append(parts,
		button("n", "New Design"),
		button("c", "Clear All"),
		button("d", "Download ZIP"),
		button("s", "Sign out"),
	)
	if id := m.ctrl.Identity(); id != nil {
		parts = append(parts, dimStyle.Render(id.Email))
	}
	return lipgloss.JoinHorizontal(lipgloss.Center, spaced(parts)...)
}

func spaced(parts []string) []string {
	out := make([]string, 0, len(parts)*2)
	for i, p := range parts {
		if i > 0 {
			out = append(out, " ")
		}
		out = append(out, p)
	}
	return out
}

func (m Model) renderPicker(now time.Time) string {
	var b strings.Builder
	b.WriteString(m.query.View())
	b.WriteString("\n")

	sw := m.ctrl.Switcher()
	filtered := sw.Filtered()
	if len(filtered) == 0 {
		b.WriteString(dimStyle.Render(PickerEmpty))
		return dialogStyle.Render(b.String())
	}

	cursor := clamp(m.pickerCursor, len(filtered))
	for i, p := range filtered {
		line := p.Name
		if p.ID == sw.ActiveID() {
			line += " " + okStyle.Render("✓")
		}
		if age := FormatAge(p.UpdatedAt, now); age != "" {
			line += "  " + dimStyle.Render(age)
		}
		b.WriteString("\n")
		if i == cursor {
			b.WriteString(selectedItemStyle.Render(line))
		} else {
			b.WriteString(itemStyle.Render(line))
		}
	}
	return dialogStyle.Render(b.String())
}

func (m Model) renderPalette() string {
	var b strings.Builder
	b.WriteString(m.palette.View())

	items := command.Search(m.palette.Value())
	if len(items) == 0 {
		b.WriteString("\n\n")
		b.WriteString(dimStyle.Render(command.EmptyState))
		return dialogStyle.Render(b.String())
	}

	b.WriteString("\n")
	b.WriteString(headingStyle.Render(command.Heading))
	cursor := clamp(m.paletteCursor, len(items))
	for i, it := range items {
		b.WriteString("\n")
		if i == cursor {
			b.WriteString(selectedItemStyle.Render(it.Title))
		} else {
			b.WriteString(itemStyle.Render(it.Title))
		}
	}
	return dialogStyle.Render(b.String())
}

func (m Model) renderConfirm() string {
	cancel, del := focusedButtonStyle, buttonStyle
	if m.confirm == focusDelete {
		cancel, del = buttonStyle, dangerButtonStyle
	}

	body := errorStyle.Render(ConfirmTitle) + "\n\n" +
		lipgloss.NewStyle().Width(60).Render(ConfirmBody) + "\n\n" +
		cancel.Render(ConfirmCancel) + "  " + del.Render(ConfirmDelete)
	return dangerDialogStyle.Render(body)
}

func (m Model) renderAuth() string {
	mode := m.ctrl.AuthMode()
	other := "Sign Up"
	if mode == auth.ModeSignUp {
		other = "Sign In"
	}

	body := headingStyle.Render(authTitle(mode)) + "\n\n" +
		m.email.View() + "\n" +
		m.password.View() + "\n\n" +
		dimStyle.Render("[enter] submit  [ctrl+t] "+other+"  [esc] cancel")
	if m.authPending {
		body += "\n" + dimStyle.Render("Working...")
	}
	return dialogStyle.Render(body)
}

func (m Model) renderStatus() string {
	switch {
	case m.err != nil:
		return errorStyle.Render("✗ " + m.status)
	case m.status != "":
		return okStyle.Render("✓ " + m.status)
	}
	return ""
}
