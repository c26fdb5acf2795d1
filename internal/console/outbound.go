package console

import (
	"github.com/rivo/tview"
)

// OutboundView shows the outgoing queue: rows waiting for the recipient's
// next poll and rows already collected.
type OutboundView struct {
	app   *App
	table *tview.Table
}

func NewOutboundView(a *App) *OutboundView {
	v := &OutboundView{app: a}
	v.table = newTable(a.theme, " outbound ", "TO", "SUBJECT", "QUEUED", "STATE")
	return v
}

func (v *OutboundView) Primitive() tview.Primitive { return v.table }
func (v *OutboundView) CapturesEscape() bool       { return false }

func (v *OutboundView) Refresh() {
	msgs, err := v.app.svc.Outbound()
	if err != nil {
		v.app.flashErr(err)
		return
	}
	clearRows(v.table)
	for i, m := range msgs {
		state := "queued"
		if m.Delivered {
			state = "collected"
		}
		v.table.SetCell(i+1, 0, tview.NewTableCell(m.Recipient).SetTextColor(v.app.theme.FgColor))
		v.table.SetCell(i+1, 1, tview.NewTableCell(m.Subject).SetTextColor(v.app.theme.FgColor).SetExpansion(2))
		v.table.SetCell(i+1, 2, tview.NewTableCell(formatMillis(m.QueuedAt)).SetTextColor(v.app.theme.FgColor))
		v.table.SetCell(i+1, 3, tview.NewTableCell(state).SetTextColor(v.app.theme.FgColor))
	}
	if len(msgs) > 0 {
		v.table.Select(1, 0)
	}
}
