package console

import (
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/mankeli-chat/mankeli/internal/store"
	"github.com/rivo/tview"
)

// InboxView lists received mail with a reading pane.
type InboxView struct {
	app    *App
	layout *tview.Flex
	table  *tview.Table
	body   *tview.TextView
	rows   []store.InboxMessage
}

func NewInboxView(a *App) *InboxView {
	v := &InboxView{app: a}
	v.table = newTable(a.theme, " inbox <d:delete> ", "FROM", "SUBJECT", "RECEIVED")

	v.body = tview.NewTextView().SetDynamicColors(true).SetWordWrap(true)
	v.body.SetBackgroundColor(a.theme.BgColor)
	v.body.SetBorder(true)
	v.body.SetBorderColor(a.theme.BorderColor)
	v.body.SetTitle(" message ")
	v.body.SetTitleColor(a.theme.TitleColor)

	v.table.SetSelectionChangedFunc(func(row, _ int) { v.showMessage(row) })
	v.table.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Rune() == 'd' {
			v.deleteSelected()
			return nil
		}
		return event
	})

	v.layout = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(v.table, 0, 1, true).
		AddItem(v.body, 0, 1, false)
	return v
}

func (v *InboxView) Primitive() tview.Primitive { return v.layout }
func (v *InboxView) CapturesEscape() bool       { return false }

func (v *InboxView) Refresh() {
	msgs, err := v.app.svc.Inbox()
	if err != nil {
		v.app.flashErr(err)
		return
	}
	v.rows = msgs
	clearRows(v.table)
	for i, m := range msgs {
		v.table.SetCell(i+1, 0, tview.NewTableCell(m.Sender).SetTextColor(v.app.theme.FgColor))
		v.table.SetCell(i+1, 1, tview.NewTableCell(m.Subject).SetTextColor(v.app.theme.FgColor).SetExpansion(2))
		v.table.SetCell(i+1, 2, tview.NewTableCell(formatMillis(m.ReceivedAt)).SetTextColor(v.app.theme.FgColor))
	}
	if len(msgs) > 0 {
		v.table.Select(1, 0)
	}
	v.showMessage(v.selectedRow())
}

func (v *InboxView) showMessage(row int) {
	v.body.Clear()
	idx := row - 1
	if idx < 0 || idx >= len(v.rows) {
		return
	}
	m := v.rows[idx]
	fmt.Fprintf(v.body, "[::b]From:[-:-:-] %s\n[::b]Subject:[-:-:-] %s\n\n%s",
		tview.Escape(m.Sender), tview.Escape(m.Subject), tview.Escape(m.Body))
}

func (v *InboxView) deleteSelected() {
	idx := v.selectedRow() - 1
	if idx < 0 || idx >= len(v.rows) {
		return
	}
	m := v.rows[idx]
	if err := v.app.svc.DeleteInboxMessage(m.ID); err != nil {
		v.app.flashErr(err)
		return
	}
	v.app.flashInfo("deleted message from %s", m.Sender)
	v.Refresh()
}

func (v *InboxView) selectedRow() int {
	row, _ := v.table.GetSelection()
	return row
}

func formatMillis(ms int64) string {
	return time.UnixMilli(ms).Local().Format("2006-01-02 15:04")
}
