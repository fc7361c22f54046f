// Main application window: viewport, modifier panel, info bar
package gui

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"

	"image-modifier-studio/internal/accel"
	"image-modifier-studio/internal/config"
	"image-modifier-studio/internal/core"
	"image-modifier-studio/internal/io"
	"image-modifier-studio/internal/modifiers"
	"image-modifier-studio/internal/pipeline"
)

// Application represents the editor window and the image being edited
type Application struct {
	app    fyne.App
	window fyne.Window
	cfg    *config.Config
	logger logrus.FieldLogger

	loader   *io.Loader
	saver    *io.Saver
	file     *io.MediaFile
	pipeline *pipeline.ModifierPipeline

	viewport      *Viewport
	modifierPanel *ModifierPanel
	infoBar       *InfoBar
	toolbar       *Toolbar
	menuHandler   *MenuHandler
}

func NewApplication(app fyne.App, cfg *config.Config, logger logrus.FieldLogger) *Application {
	window := app.NewWindow("Image Modifier Studio")
	window.Resize(fyne.NewSize(cfg.Window.Width, cfg.Window.Height))
	window.CenterOnScreen()

	a := &Application{
		app:    app,
		window: window,
		cfg:    cfg,
		logger: logger,
		loader: io.NewLoader(logger),
		saver:  io.NewSaver(logger, io.WithJPEGQuality(cfg.Export.JPEGQuality)),
	}

	a.initializeGUI()
	a.setupLayout()
	a.setupCallbacks()
	return a
}

func (a *Application) initializeGUI() {
	a.viewport = NewViewport(a.onViewportResized)
	a.modifierPanel = NewModifierPanel(a.logger)
	a.infoBar = NewInfoBar()
	a.toolbar = NewToolbar()
	a.menuHandler = NewMenuHandler(a.window, a.logger)
}

func (a *Application) setupLayout() {
	controls := container.NewVScroll(a.modifierPanel.GetContainer())
	controls.SetMinSize(fyne.NewSize(420, 0))

	split := container.NewHSplit(
		container.NewPadded(a.viewport.GetContainer()),
		widget.NewCard("Modifiers", "", controls),
	)
	split.SetOffset(0.7)

	a.window.SetMainMenu(a.menuHandler.GetMainMenu())
	a.window.SetContent(container.NewBorder(
		a.toolbar.GetContainer(),
		a.infoBar.GetContainer(),
		nil, nil,
		split,
	))
}

func (a *Application) setupCallbacks() {
	a.menuHandler.SetCallbacks(a.openPath, a.SaveProcessedImage, a.resetModifiers, a.compare)
	a.toolbar.SetCallbacks(a.menuHandler.OpenImage, a.menuHandler.SaveImage, a.resetModifiers, a.compare)
	a.modifierPanel.SetChangedCallback(a.refresh)

	a.window.SetOnDropped(func(_ fyne.Position, uris []fyne.URI) {
		for _, uri := range uris {
			if io.IsSupported(uri.Path()) {
				a.openPath(uri.Path())
				return
			}
		}
		a.logger.Warn("GUI: dropped files contain no supported image")
	})
}

func (a *Application) openPath(path string) {
	if err := a.LoadImageFromPath(path); err != nil {
		a.showError("Failed to Load Image", err)
	}
}

// LoadImageFromPath replaces the edited image and rebuilds the modifier chain.
func (a *Application) LoadImageFromPath(path string) error {
	file, err := a.loader.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load image: %w", err)
	}

	p, err := a.newPipeline(file.Image)
	if err != nil {
		return err
	}

	if a.pipeline != nil {
		a.pipeline.Close()
	}
	a.file, a.pipeline = file, p

	a.modifierPanel.Bind(p)
	a.window.SetTitle(fmt.Sprintf("Image Modifier Studio - %s", file.Name))
	a.refresh()

	a.logger.WithField("file", file.Summary()).Info("GUI: image opened")
	return nil
}

func (a *Application) newPipeline(original *core.RasterImage) (*pipeline.ModifierPipeline, error) {
	opts := []pipeline.Option{
		pipeline.WithLogger(a.logger),
		pipeline.WithHysteresis(a.cfg.Preview.Hysteresis),
		pipeline.WithPreviewFilter(a.cfg.PreviewFilter()),
		pipeline.WithMetrics(accel.NewEvaluator()),
	}

	if a.cfg.Background.MinPixels > 0 {
		resizer := pipeline.FilterResizer(a.cfg.BackgroundFilter())
		if a.cfg.Background.OpenCV {
			resizer = accel.Resizer(a.logger)
		}
		job := pipeline.NewResizeJob(pipeline.WithJobLogger(a.logger), pipeline.WithResizer(resizer))
		opts = append(opts, pipeline.WithBackground(job, a.cfg.Background.MinPixels, func() {
			fyne.Do(a.poll)
		}))
	}

	viewportSize := a.viewport.PixelSize()
	if viewportSize.Empty() {
		// Not laid out yet; the first layout pass resizes.
		viewportSize = core.NewSize(int(a.cfg.Window.Width*0.7), int(a.cfg.Window.Height))
	}
	previewSize := core.FitInto(viewportSize, original.Size(), false)
	p := pipeline.New(original, previewSize, opts...)

	thumbnail := original.Thumbnail(a.cfg.ThumbnailSize, a.cfg.ThumbnailSize)
	chain, err := modifiers.ChainFromNames(a.cfg.Modifiers, thumbnail)
	if err != nil {
		p.Close()
		return nil, fmt.Errorf("failed to build modifier chain: %w", err)
	}
	for _, m := range chain {
		p.PushModifier(m)
	}
	p.Evaluate()
	return p, nil
}

func (a *Application) onViewportResized(size core.Size) {
	if a.pipeline == nil || size.Empty() {
		return
	}
	a.pipeline.Resize(core.FitInto(size, a.pipeline.Original().Size(), false))
	a.refresh()
}

// poll runs on the UI goroutine when a background resize has finished.
func (a *Application) poll() {
	if a.pipeline == nil {
		return
	}
	if a.pipeline.Poll() {
		a.logger.Debug("GUI: background preview installed")
	}
	a.refresh()
}

func (a *Application) refresh() {
	if a.pipeline == nil {
		a.infoBar.Update(nil, nil)
		return
	}
	a.viewport.Show(a.pipeline.Current())
	a.infoBar.Update(a.file, a.pipeline)
}

func (a *Application) resetModifiers() {
	if a.pipeline == nil {
		return
	}
	for i := 0; i < a.pipeline.Len(); i++ {
		if err := a.pipeline.Update(i, func(m *modifiers.Modifier) { m.Reset() }); err != nil {
			a.logger.WithError(err).Error("GUI: reset failed")
		}
	}
	a.modifierPanel.SyncAll()
	a.refresh()
	a.logger.Info("GUI: modifiers reset")
}

func (a *Application) compare() {
	if a.pipeline == nil {
		return
	}
	report := a.pipeline.Compare()
	a.infoBar.ShowReport(report)
	a.logger.WithFields(logrus.Fields{
		"similarity": report.Similarity,
		"level":      report.Level,
	}).Info("GUI: preview compared with base")
}

// SaveProcessedImage applies the modifiers to the full-resolution original
// and writes the result to path.
func (a *Application) SaveProcessedImage(path string) error {
	if a.pipeline == nil {
		return fmt.Errorf("no image to save")
	}
	if err := a.saver.Save(a.pipeline.ApplyToOriginal(), path); err != nil {
		return fmt.Errorf("failed to save image: %w", err)
	}
	return nil
}

func (a *Application) ShowAndRun() {
	a.logger.Info("Showing main application window")

	a.window.SetCloseIntercept(func() {
		a.cleanup()
		a.app.Quit()
	})
	a.window.ShowAndRun()
}

func (a *Application) cleanup() {
	a.logger.Info("Cleaning up application resources")
	if a.pipeline != nil {
		a.pipeline.Close()
	}
}

func (a *Application) showError(title string, err error) {
	a.logger.WithError(err).Error("GUI: " + title)
	dialog.ShowError(err, a.window)
}
