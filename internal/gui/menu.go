// Menu handler for application actions
package gui

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"

	"image-modifier-studio/internal/io"
)

var saveExtensions = []string{".png", ".jpg", ".jpeg", ".bmp", ".tif", ".tiff"}

// MenuHandler owns the main menu and the file dialogs.
type MenuHandler struct {
	window fyne.Window
	logger logrus.FieldLogger

	onOpen    func(path string)
	onSave    func(path string) error
	onReset   func()
	onCompare func()
}

func NewMenuHandler(window fyne.Window, logger logrus.FieldLogger) *MenuHandler {
	return &MenuHandler{
		window: window,
		logger: logger,
	}
}

func (mh *MenuHandler) SetCallbacks(onOpen func(string), onSave func(string) error, onReset, onCompare func()) {
	mh.onOpen = onOpen
	mh.onSave = onSave
	mh.onReset = onReset
	mh.onCompare = onCompare
}

func (mh *MenuHandler) GetMainMenu() *fyne.MainMenu {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Open Image...", mh.OpenImage),
		fyne.NewMenuItem("Export Image...", mh.SaveImage),
	)

	editMenu := fyne.NewMenu("Edit",
		fyne.NewMenuItem("Reset All Modifiers", func() { call(mh.onReset) }),
		fyne.NewMenuItem("Compare With Base", func() { call(mh.onCompare) }),
	)

	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", mh.showAbout),
	)

	return fyne.NewMainMenu(fileMenu, editMenu, helpMenu)
}

func (mh *MenuHandler) OpenImage() {
	mh.logger.Debug("GUI: opening file dialog")

	fileDialog := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			mh.showError("File Dialog Error", err)
			return
		}
		if reader == nil {
			return
		}
		path := reader.URI().Path()
		reader.Close()

		if mh.onOpen != nil {
			mh.onOpen(path)
		}
	}, mh.window)

	fileDialog.SetFilter(storage.NewExtensionFileFilter(io.SupportedExtensions()))
	fileDialog.Show()
}

func (mh *MenuHandler) SaveImage() {
	mh.logger.Debug("GUI: opening save dialog")

	fileDialog := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil {
			mh.showError("File Dialog Error", err)
			return
		}
		if writer == nil {
			return
		}
		path := writer.URI().Path()
		// The saver reopens the path itself.
		writer.Close()

		if mh.onSave == nil {
			return
		}
		if err := mh.onSave(path); err != nil {
			mh.showError("Failed to Export Image", err)
			return
		}
		dialog.ShowInformation("Image Exported", fmt.Sprintf("Image saved to:\n%s", path), mh.window)
	}, mh.window)

	fileDialog.SetFileName("edited.png")
	fileDialog.SetFilter(storage.NewExtensionFileFilter(saveExtensions))
	fileDialog.Show()
}

func (mh *MenuHandler) showAbout() {
	content := container.NewVBox(
		widget.NewLabel("Image Modifier Studio"),
		widget.NewSeparator(),
		widget.NewLabel("Non-destructive exposure, contrast, gamma, blur,"),
		widget.NewLabel("tint, sepia, brightness and colour grading"),
		widget.NewLabel("with live previews that follow the window size."),
		widget.NewSeparator(),
		widget.NewLabel("Built with Go, Fyne v2.6, gift and OpenCV"),
	)

	aboutDialog := dialog.NewCustom("About", "Close", content, mh.window)
	aboutDialog.Resize(fyne.NewSize(400, 260))
	aboutDialog.Show()
}

func (mh *MenuHandler) showError(title string, err error) {
	mh.logger.WithError(err).Error("GUI: " + title)
	dialog.ShowError(err, mh.window)
}
