// Modifier panel: one row per modifier plus the active modifier's extras
package gui

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"

	"image-modifier-studio/internal/core"
	"image-modifier-studio/internal/modifiers"
	"image-modifier-studio/internal/pipeline"
)

const thumbnailMinSize = 48

type modifierRow struct {
	index    int
	card     *widget.Card
	enabled  *widget.Check
	slider   *widget.Slider
	value    *widget.Label
	minThumb *fyne.Container
	maxThumb *fyne.Container
}

// ModifierPanel edits the modifiers of one pipeline. Every change goes
// through the pipeline so its caches stay consistent.
type ModifierPanel struct {
	logger   logrus.FieldLogger
	pipeline *pipeline.ModifierPipeline

	container *fyne.Container
	rows      []*modifierRow
	detail    *fyne.Container
	syncing   bool

	onChanged func()
}

func NewModifierPanel(logger logrus.FieldLogger) *ModifierPanel {
	panel := &ModifierPanel{
		logger: logger,
		detail: container.NewVBox(),
	}
	panel.container = container.NewVBox(widget.NewLabel("Open an image to start editing."))
	return panel
}

func (mp *ModifierPanel) SetChangedCallback(onChanged func()) {
	mp.onChanged = onChanged
}

// Bind rebuilds the panel for p.
func (mp *ModifierPanel) Bind(p *pipeline.ModifierPipeline) {
	mp.pipeline = p
	mp.rows = mp.rows[:0]

	objects := make([]fyne.CanvasObject, 0, p.Len()+2)
	for i, m := range p.Modifiers() {
		row := mp.newRow(i, m)
		mp.rows = append(mp.rows, row)
		objects = append(objects, row.card)
	}
	objects = append(objects, widget.NewSeparator(), mp.detail)

	mp.container.Objects = objects
	mp.container.Refresh()
	mp.selectModifier(p.Active())
}

func (mp *ModifierPanel) newRow(index int, m *modifiers.Modifier) *modifierRow {
	param := m.Parameter()
	row := &modifierRow{
		index:    index,
		minThumb: container.NewStack(),
		maxThumb: container.NewStack(),
		value:    widget.NewLabel(formatValue(param)),
	}

	row.enabled = widget.NewCheck("", func(on bool) {
		if mp.syncing {
			return
		}
		mp.apply(index, func(m *modifiers.Modifier) { m.SetEnabled(on) })
	})
	row.enabled.SetChecked(param.Enabled)

	row.slider = widget.NewSlider(float64(param.Min), float64(param.Max))
	row.slider.Step = sliderStep(param)
	row.slider.SetValue(float64(param.Percent))
	row.slider.OnChanged = func(v float64) {
		if mp.syncing {
			return
		}
		mp.apply(index, func(m *modifiers.Modifier) { m.SetPercent(float32(v)) })
	}

	reset := widget.NewButtonWithIcon("", theme.ViewRefreshIcon(), func() {
		mp.apply(index, func(m *modifiers.Modifier) { m.Reset() })
	})
	edit := widget.NewButtonWithIcon("", theme.SettingsIcon(), func() {
		mp.selectModifier(index)
	})

	controls := container.NewBorder(nil, nil,
		container.NewHBox(row.enabled, row.minThumb),
		container.NewHBox(row.maxThumb, row.value, reset, edit),
		row.slider,
	)
	row.card = widget.NewCard("", m.Title(), controls)
	mp.setThumbnails(row, m)
	return row
}

func (mp *ModifierPanel) setThumbnails(row *modifierRow, m *modifiers.Modifier) {
	setThumbnail(row.minThumb, m.MinThumbnail())
	setThumbnail(row.maxThumb, m.MaxThumbnail())
}

func setThumbnail(slot *fyne.Container, img *core.RasterImage) {
	if img == nil {
		slot.Objects = nil
	} else {
		handle := img.Display()
		handle.Image.SetMinSize(fyne.NewSize(thumbnailMinSize, thumbnailMinSize))
		slot.Objects = []fyne.CanvasObject{handle.Image}
	}
	slot.Refresh()
}

// apply routes an edit through the pipeline and resyncs the row.
func (mp *ModifierPanel) apply(index int, fn func(m *modifiers.Modifier)) {
	if mp.pipeline == nil {
		return
	}
	if err := mp.pipeline.Update(index, fn); err != nil {
		mp.logger.WithError(err).Error("GUI: modifier update failed")
		return
	}
	mp.syncRow(index)
	if mp.onChanged != nil {
		mp.onChanged()
	}
}

func (mp *ModifierPanel) syncRow(index int) {
	m := mp.pipeline.Modifier(index)
	if m == nil || index >= len(mp.rows) {
		return
	}
	row := mp.rows[index]
	param := m.Parameter()

	mp.syncing = true
	row.enabled.SetChecked(param.Enabled)
	row.slider.SetValue(float64(param.Percent))
	mp.syncing = false

	row.value.SetText(formatValue(param))
	mp.setThumbnails(row, m)
}

// SyncAll refreshes every row from the live modifiers.
func (mp *ModifierPanel) SyncAll() {
	for i := range mp.rows {
		mp.syncRow(i)
	}
	mp.selectModifier(mp.pipeline.Active())
}

func (mp *ModifierPanel) selectModifier(index int) {
	if mp.pipeline == nil {
		return
	}
	if err := mp.pipeline.SelectModifier(index); err != nil {
		mp.logger.WithError(err).Warn("GUI: invalid modifier selection")
		return
	}
	mp.logger.WithField("index", index).Debug("GUI: modifier selected")

	mp.detail.Objects = nil
	if m := mp.pipeline.Modifier(index); m != nil {
		mp.detail.Objects = []fyne.CanvasObject{
			widget.NewLabelWithStyle(m.Title(), fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
			mp.detailControls(index, m),
		}
	}
	mp.detail.Refresh()
}

func (mp *ModifierPanel) detailControls(index int, m *modifiers.Modifier) fyne.CanvasObject {
	switch m.Kind() {
	case modifiers.KindBrightnessMultiplyLuma:
		return mp.gammaControls(index, m)
	case modifiers.KindColorGrading:
		return mp.matrixControls(index, m)
	default:
		return widget.NewLabel(m.String())
	}
}

func (mp *ModifierPanel) gammaControls(index int, m *modifiers.Modifier) fyne.CanvasObject {
	label := widget.NewLabel(fmt.Sprintf("Gamma %.2f", m.Gamma()))
	slider := widget.NewSlider(modifiers.MinLumaGamma, modifiers.MaxLumaGamma)
	slider.Step = 0.05
	slider.SetValue(float64(m.Gamma()))
	slider.OnChanged = func(v float64) {
		mp.apply(index, func(m *modifiers.Modifier) {
			if err := m.SetGamma(float32(v)); err != nil {
				mp.logger.WithError(err).Error("GUI: set gamma failed")
			}
		})
		label.SetText(fmt.Sprintf("Gamma %.2f", v))
	}
	return container.NewBorder(nil, nil, label, nil, slider)
}

func (mp *ModifierPanel) matrixControls(index int, m *modifiers.Modifier) fyne.CanvasObject {
	var cells [3][3]*widget.Slider
	syncing := false

	syncCells := func() {
		matrix := mp.pipeline.Modifier(index).Matrix()
		syncing = true
		for r := range cells {
			for c := range cells[r] {
				cells[r][c].SetValue(float64(matrix[r][c]))
			}
		}
		syncing = false
	}

	grid := container.NewGridWithColumns(3)
	matrix := m.Matrix()
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			row, col := r, c
			s := widget.NewSlider(modifiers.MinMatrixCell, modifiers.MaxMatrixCell)
			s.Step = 0.01
			s.SetValue(float64(matrix[r][c]))
			s.OnChanged = func(v float64) {
				if syncing {
					return
				}
				mp.apply(index, func(m *modifiers.Modifier) {
					if err := m.SetCell(row, col, float32(v)); err != nil {
						mp.logger.WithError(err).Error("GUI: set matrix cell failed")
					}
				})
			}
			cells[r][c] = s
			grid.Add(s)
		}
	}

	names := make([]string, 0, len(modifiers.Presets))
	for _, p := range modifiers.Presets {
		names = append(names, p.Name)
	}
	presets := widget.NewSelect(names, func(name string) {
		mp.apply(index, func(m *modifiers.Modifier) {
			if err := m.ApplyPreset(name); err != nil {
				mp.logger.WithError(err).Error("GUI: apply preset failed")
			}
		})
		syncCells()
	})
	presets.PlaceHolder = "Preset"

	identity := widget.NewButton("Identity", func() {
		mp.apply(index, func(m *modifiers.Modifier) {
			if err := m.SetMatrix(modifiers.Identity()); err != nil {
				mp.logger.WithError(err).Error("GUI: reset matrix failed")
			}
		})
		syncCells()
	})

	return container.NewVBox(grid, container.NewHBox(presets, identity))
}

func (mp *ModifierPanel) GetContainer() fyne.CanvasObject {
	return mp.container
}

// fineGrained is true for parameters whose whole range fits in a few units.
func fineGrained(p modifiers.Parameter) bool {
	return p.Max-p.Min <= 10
}

func formatValue(p modifiers.Parameter) string {
	if fineGrained(p) {
		return fmt.Sprintf("%.2f%s", p.Percent, p.Units)
	}
	return fmt.Sprintf("%.0f%s", p.Percent, p.Units)
}

func sliderStep(p modifiers.Parameter) float64 {
	if fineGrained(p) {
		return 0.01
	}
	return 1
}
