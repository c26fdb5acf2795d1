package console

import (
	"github.com/mankeli-chat/mankeli/internal/relation"
	"github.com/rivo/tview"
)

// ComposeView queues mail for an accepted friend. The recipient's node
// collects it the next time it polls us.
type ComposeView struct {
	app       *App
	form      *tview.Form
	recipient *tview.DropDown
	subject   *tview.InputField
	body      *tview.TextArea
	options   []string
}

func NewComposeView(a *App) *ComposeView {
	v := &ComposeView{app: a}
	v.recipient = tview.NewDropDown().SetLabel("To")
	v.subject = tview.NewInputField().SetLabel("Subject").SetFieldWidth(48)
	v.body = tview.NewTextArea().SetLabel("Body")
	v.body.SetSize(10, 0)

	v.form = tview.NewForm().
		AddFormItem(v.recipient).
		AddFormItem(v.subject).
		AddFormItem(v.body).
		AddButton("Queue", v.submit).
		AddButton("Clear", v.reset)
	v.form.SetBackgroundColor(a.theme.BgColor)
	v.form.SetBorder(true)
	v.form.SetBorderColor(a.theme.BorderColor)
	v.form.SetTitle(" compose ")
	v.form.SetTitleColor(a.theme.TitleColor)
	return v
}

func (v *ComposeView) Primitive() tview.Primitive { return v.form }
func (v *ComposeView) CapturesEscape() bool       { return false }

// Refresh rebuilds the recipient list from accepted relationships.
func (v *ComposeView) Refresh() {
	friends, err := v.app.svc.Friends()
	if err != nil {
		v.app.flashErr(err)
		return
	}
	v.options = v.options[:0]
	for _, f := range friends {
		if f.Status == relation.Accepted {
			v.options = append(v.options, f.Username)
		}
	}
	v.recipient.SetOptions(v.options, nil)
	if len(v.options) > 0 {
		v.recipient.SetCurrentOption(0)
	} else {
		v.app.flashInfo("no accepted friends to write to")
	}
}

func (v *ComposeView) submit() {
	idx, recipient := v.recipient.GetCurrentOption()
	if idx < 0 || recipient == "" {
		v.app.flashInfo("pick a recipient first")
		return
	}
	if err := v.app.svc.QueueMessage(recipient, v.subject.GetText(), v.body.GetText()); err != nil {
		v.app.flashErr(err)
		return
	}
	v.app.flashInfo("queued for %s", recipient)
	v.reset()
}

func (v *ComposeView) reset() {
	v.subject.SetText("")
	v.body.SetText("", false)
}
