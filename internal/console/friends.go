package console

import (
	"github.com/gdamore/tcell/v2"
	"github.com/mankeli-chat/mankeli/internal/store"
	"github.com/rivo/tview"
)

// FriendsView lists relationships and hosts the invite form. Accept, reject
// and remove act on the selected row; the daemon's friend poller delivers
// any resulting status change.
type FriendsView struct {
	app     *App
	layout  *tview.Flex
	table   *tview.Table
	form    *tview.Form
	rows    []store.Friend
	forming bool
}

func NewFriendsView(a *App) *FriendsView {
	v := &FriendsView{app: a}
	v.table = newTable(a.theme, " friends <n:invite a:accept r:reject x:remove> ",
		"USERNAME", "ADDRESS", "STATUS", "DELIVERED")

	v.table.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Rune() {
		case 'n':
			v.openInviteForm()
			return nil
		case 'a':
			v.answerSelected(v.app.svc.Accept, "accepted invitation from %s")
			return nil
		case 'r':
			v.answerSelected(v.app.svc.Reject, "rejected invitation from %s")
			return nil
		case 'x':
			v.removeSelected()
			return nil
		}
		return event
	})

	v.layout = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(v.table, 0, 1, true)
	return v
}

func (v *FriendsView) Primitive() tview.Primitive { return v.layout }
func (v *FriendsView) CapturesEscape() bool       { return v.forming }

func (v *FriendsView) Refresh() {
	friends, err := v.app.svc.Friends()
	if err != nil {
		v.app.flashErr(err)
		return
	}
	v.rows = friends
	clearRows(v.table)
	for i, f := range friends {
		delivered := "yes"
		if !f.Delivered {
			delivered = "pending"
		}
		v.table.SetCell(i+1, 0, tview.NewTableCell(f.Username).SetTextColor(v.app.theme.FgColor))
		v.table.SetCell(i+1, 1, tview.NewTableCell(f.Address).SetTextColor(v.app.theme.FgColor))
		v.table.SetCell(i+1, 2, tview.NewTableCell(string(f.Status)).SetTextColor(v.app.theme.FgColor))
		v.table.SetCell(i+1, 3, tview.NewTableCell(delivered).SetTextColor(v.app.theme.FgColor))
	}
	if len(friends) > 0 {
		v.table.Select(1, 0)
	}
}

func (v *FriendsView) openInviteForm() {
	v.form = tview.NewForm().
		AddInputField("Username", "", 32, nil, nil).
		AddInputField("Address (host:port)", "", 32, nil, nil)
	v.form.AddButton("Invite", func() {
		username := v.form.GetFormItemByLabel("Username").(*tview.InputField).GetText()
		address := v.form.GetFormItemByLabel("Address (host:port)").(*tview.InputField).GetText()
		if err := v.app.svc.Invite(username, address); err != nil {
			v.app.flashErr(err)
			return
		}
		v.app.flashInfo("invitation to %s queued for delivery", username)
		v.closeInviteForm()
	})
	v.form.AddButton("Cancel", v.closeInviteForm)
	v.form.SetBackgroundColor(v.app.theme.BgColor)
	v.form.SetBorder(true)
	v.form.SetBorderColor(v.app.theme.BorderFocusColor)
	v.form.SetTitle(" invite ")
	v.form.SetTitleColor(v.app.theme.TitleColor)
	v.form.SetCancelFunc(v.closeInviteForm)

	v.forming = true
	v.layout.AddItem(v.form, 9, 0, true)
	v.app.app.SetFocus(v.form)
}

func (v *FriendsView) closeInviteForm() {
	if !v.forming {
		return
	}
	v.layout.RemoveItem(v.form)
	v.form = nil
	v.forming = false
	v.app.app.SetFocus(v.table)
	v.Refresh()
}

func (v *FriendsView) answerSelected(action func(string) error, okFormat string) {
	f, ok := v.selected()
	if !ok {
		return
	}
	if err := action(f.Username); err != nil {
		v.app.flashErr(err)
		return
	}
	v.app.flashInfo(okFormat, f.Username)
	v.Refresh()
}

func (v *FriendsView) removeSelected() {
	f, ok := v.selected()
	if !ok {
		return
	}
	if err := v.app.svc.RemoveFriend(f.Username); err != nil {
		v.app.flashErr(err)
		return
	}
	v.app.flashInfo("removed %s", f.Username)
	v.Refresh()
}

func (v *FriendsView) selected() (store.Friend, bool) {
	row, _ := v.table.GetSelection()
	idx := row - 1
	if idx < 0 || idx >= len(v.rows) {
		return store.Friend{}, false
	}
	return v.rows[idx], true
}
