// Status line: file, image sizes, change metrics and background activity
package gui

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"image-modifier-studio/internal/io"
	"image-modifier-studio/internal/metrics"
	"image-modifier-studio/internal/pipeline"
)

type InfoBar struct {
	container *fyne.Container
	info      *widget.Label
	metrics   *widget.Label
	busy      *widget.ProgressBarInfinite
}

func NewInfoBar() *InfoBar {
	bar := &InfoBar{
		info:    widget.NewLabel("No image loaded"),
		metrics: widget.NewLabel(""),
		busy:    widget.NewProgressBarInfinite(),
	}
	bar.busy.Hide()
	bar.container = container.NewBorder(nil, nil, bar.info, container.NewHBox(bar.metrics, bar.busy))
	return bar
}

// Update redraws the status line from the pipeline state.
func (ib *InfoBar) Update(file *io.MediaFile, p *pipeline.ModifierPipeline) {
	if file == nil || p == nil {
		ib.info.SetText("No image loaded")
		ib.metrics.SetText("")
		ib.busy.Hide()
		return
	}

	ib.info.SetText(io.InfoLine(file, p.Original(), p.Current()))
	if p.Busy() {
		ib.busy.Show()
		ib.busy.Start()
	} else {
		ib.busy.Stop()
		ib.busy.Hide()
	}
}

// ShowReport prints a metrics report in compact form.
func (ib *InfoBar) ShowReport(report metrics.Report) {
	ib.metrics.SetText(formatReport(report))
}

func formatReport(report metrics.Report) string {
	if report.Level == metrics.LevelUnavailable {
		return "metrics unavailable"
	}
	names := make([]string, 0, len(report.Metrics))
	for name := range report.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names)+1)
	parts = append(parts, fmt.Sprintf("%s %.1f%%", report.Level, report.Similarity))
	for _, name := range names {
		value := report.Metrics[name]
		if math.IsInf(value, 1) {
			parts = append(parts, name+" ∞")
			continue
		}
		parts = append(parts, fmt.Sprintf("%s %.3g", name, value))
	}
	return strings.Join(parts, "  ")
}

func (ib *InfoBar) GetContainer() fyne.CanvasObject {
	return ib.container
}
