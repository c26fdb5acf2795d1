// Package console is the interactive terminal front end. It talks to the
// same profile store the daemon uses; local actions land in the store and
// the daemon's pollers pick them up on their next pass.
package console

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/mankeli-chat/mankeli/internal/mailbox"
	"github.com/rivo/tview"
)

const (
	pageMenu     = "menu"
	pageInbox    = "inbox"
	pageFriends  = "friends"
	pageCompose  = "compose"
	pageOutbound = "outbound"
	pageContact  = "contact"
)

// App is the console application shell.
type App struct {
	app   *tview.Application
	pages *tview.Pages
	svc   *mailbox.Service
	theme *Theme
	flash *tview.TextView

	inbox    *InboxView
	friends  *FriendsView
	compose  *ComposeView
	outbound *OutboundView
	contact  *ContactView
}

// NewApp creates the console for one profile's mailbox service.
func NewApp(svc *mailbox.Service, profileName string) *App {
	theme := DefaultTheme()
	a := &App{
		app:   tview.NewApplication(),
		pages: tview.NewPages(),
		svc:   svc,
		theme: theme,
	}

	a.flash = tview.NewTextView().SetDynamicColors(true)
	a.flash.SetBackgroundColor(theme.BgColor)

	a.inbox = NewInboxView(a)
	a.friends = NewFriendsView(a)
	a.compose = NewComposeView(a)
	a.outbound = NewOutboundView(a)
	a.contact = NewContactView(a)

	a.pages.AddPage(pageMenu, a.buildMenu(profileName), true, true)
	a.pages.AddPage(pageInbox, a.frame(a.inbox), true, false)
	a.pages.AddPage(pageFriends, a.frame(a.friends), true, false)
	a.pages.AddPage(pageCompose, a.frame(a.compose), true, false)
	a.pages.AddPage(pageOutbound, a.frame(a.outbound), true, false)
	a.pages.AddPage(pageContact, a.frame(a.contact), true, false)

	a.app.SetRoot(a.pages, true)
	return a
}

// Run blocks until the user quits.
func (a *App) Run() error {
	return a.app.Run()
}

func (a *App) buildMenu(profileName string) tview.Primitive {
	list := tview.NewList().
		AddItem("Inbox", "read and delete received mail", 'i', func() { a.show(pageInbox) }).
		AddItem("Friends", "invitations and relationship management", 'f', func() { a.show(pageFriends) }).
		AddItem("Compose", "queue mail for an accepted friend", 'c', func() { a.show(pageCompose) }).
		AddItem("Outbound", "queued and collected outgoing mail", 'o', func() { a.show(pageOutbound) }).
		AddItem("Contact card", "share your address as a QR code", 'q', func() { a.show(pageContact) }).
		AddItem("Quit", "", 0, func() { a.app.Stop() })
	list.SetBackgroundColor(a.theme.BgColor).
		SetBorder(true).
		SetBorderColor(a.theme.BorderColor).
		SetTitle(fmt.Sprintf(" mankeli [%s] ", profileName)).
		SetTitleColor(a.theme.TitleColor)
	return center(list, 56, 16)
}

// frame wraps a view with the flash line and an escape-to-menu binding.
func (a *App) frame(v view) tview.Primitive {
	flex := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(v.Primitive(), 0, 1, true).
		AddItem(a.flash, 1, 0, false)
	flex.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyEscape && !v.CapturesEscape() {
			a.show(pageMenu)
			return nil
		}
		return event
	})
	return flex
}

func (a *App) show(page string) {
	a.flash.Clear()
	a.pages.SwitchToPage(page)
	switch page {
	case pageInbox:
		a.inbox.Refresh()
	case pageFriends:
		a.friends.Refresh()
	case pageCompose:
		a.compose.Refresh()
	case pageOutbound:
		a.outbound.Refresh()
	case pageContact:
		a.contact.Refresh()
	}
}

func (a *App) flashInfo(format string, args ...any) {
	a.flash.Clear()
	fmt.Fprintf(a.flash, "[%s]%s[-]", colorName(a.theme.FlashInfoColor), fmt.Sprintf(format, args...))
}

func (a *App) flashErr(err error) {
	a.flash.Clear()
	fmt.Fprintf(a.flash, "[%s]error: %v[-]", colorName(a.theme.FlashErrColor), err)
}

// colorName renders a tcell color as a tview color tag value.
func colorName(c tcell.Color) string {
	return fmt.Sprintf("#%06x", c.Hex())
}

// view is a page body that can reload itself from the store.
type view interface {
	Primitive() tview.Primitive
	Refresh()
	// CapturesEscape reports whether the view handles Escape itself, for
	// example to close an inner form before leaving the page.
	CapturesEscape() bool
}

func center(p tview.Primitive, width, height int) tview.Primitive {
	return tview.NewFlex().
		AddItem(nil, 0, 1, false).
		AddItem(tview.NewFlex().SetDirection(tview.FlexRow).
			AddItem(nil, 0, 1, false).
			AddItem(p, height, 0, true).
			AddItem(nil, 0, 1, false), width, 0, true).
		AddItem(nil, 0, 1, false)
}

func newTable(theme *Theme, title string, headers ...string) *tview.Table {
	t := tview.NewTable().
		SetSelectable(true, false).
		SetFixed(1, 0)
	t.SetBackgroundColor(theme.BgColor)
	t.SetBorder(true)
	t.SetBorderColor(theme.BorderColor)
	t.SetTitle(title)
	t.SetTitleColor(theme.TitleColor)
	t.SetSelectedStyle(tcell.StyleDefault.
		Foreground(theme.TableCursorFg).
		Background(theme.TableCursorBg))
	for col, h := range headers {
		t.SetCell(0, col, tview.NewTableCell(h).
			SetTextColor(theme.TableHeaderFg).
			SetSelectable(false).
			SetAttributes(tcell.AttrBold).
			SetExpansion(1))
	}
	return t
}

func clearRows(t *tview.Table) {
	for t.GetRowCount() > 1 {
		t.RemoveRow(t.GetRowCount() - 1)
	}
}
