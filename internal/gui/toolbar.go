// Top toolbar with file and edit actions
package gui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

type Toolbar struct {
	toolbar *widget.Toolbar

	onOpen    func()
	onSave    func()
	onReset   func()
	onCompare func()
}

func NewToolbar() *Toolbar {
	tb := &Toolbar{}
	tb.toolbar = widget.NewToolbar(
		widget.NewToolbarAction(theme.FolderOpenIcon(), func() { call(tb.onOpen) }),
		widget.NewToolbarAction(theme.DocumentSaveIcon(), func() { call(tb.onSave) }),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.ViewRefreshIcon(), func() { call(tb.onReset) }),
		widget.NewToolbarAction(theme.InfoIcon(), func() { call(tb.onCompare) }),
	)
	return tb
}

func (tb *Toolbar) SetCallbacks(onOpen, onSave, onReset, onCompare func()) {
	tb.onOpen = onOpen
	tb.onSave = onSave
	tb.onReset = onReset
	tb.onCompare = onCompare
}

func (tb *Toolbar) GetContainer() fyne.CanvasObject {
	return tb.toolbar
}

func call(fn func()) {
	if fn != nil {
		fn()
	}
}
