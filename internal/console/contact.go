package console

import (
	"fmt"

	"github.com/rivo/tview"
	qrcode "github.com/skip2/go-qrcode"
)

// ContactView renders the node's own contact card as a terminal QR code so
// another person can scan the username and address straight off the screen.
type ContactView struct {
	app  *App
	text *tview.TextView
}

func NewContactView(a *App) *ContactView {
	v := &ContactView{app: a}
	v.text = tview.NewTextView().SetTextAlign(tview.AlignCenter)
	v.text.SetBackgroundColor(a.theme.BgColor)
	v.text.SetBorder(true)
	v.text.SetBorderColor(a.theme.BorderColor)
	v.text.SetTitle(" contact card ")
	v.text.SetTitleColor(a.theme.TitleColor)
	return v
}

func (v *ContactView) Primitive() tview.Primitive { return v.text }
func (v *ContactView) CapturesEscape() bool       { return false }

func (v *ContactView) Refresh() {
	v.text.Clear()
	ident, err := v.app.svc.Identity()
	if err != nil {
		v.app.flashErr(err)
		return
	}
	card := fmt.Sprintf("%s@%s", ident.Username, ident.Address)
	qr, err := qrcode.New(card, qrcode.Medium)
	if err != nil {
		v.app.flashErr(err)
		return
	}
	fmt.Fprintf(v.text, "%s\n%s", card, qr.ToSmallString(false))
}
