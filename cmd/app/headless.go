// Headless export: apply modifier settings to a file without opening a window
package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"image-modifier-studio/internal/config"
	"image-modifier-studio/internal/io"
	"image-modifier-studio/internal/metrics"
	"image-modifier-studio/internal/modifiers"
	"image-modifier-studio/internal/pipeline"
)

// setFlags collects repeated -set kind=value flags.
type setFlags []string

func (s *setFlags) String() string {
	return strings.Join(*s, ",")
}

func (s *setFlags) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// setting is one parsed -set flag. Value is a number, "on", "off" or, for
// color_grading, a preset name.
type setting struct {
	Kind  modifiers.Kind
	Value string
}

func parseSettings(raw []string) ([]setting, error) {
	result := make([]setting, 0, len(raw))
	for _, s := range raw {
		name, value, ok := strings.Cut(s, "=")
		if !ok || strings.TrimSpace(value) == "" {
			return nil, fmt.Errorf("invalid setting %q, want kind=value", s)
		}
		kind, err := modifiers.ParseKind(strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}
		result = append(result, setting{Kind: kind, Value: strings.TrimSpace(value)})
	}
	return result, nil
}

func applySetting(p *pipeline.ModifierPipeline, s setting) error {
	index := -1
	for i, m := range p.Modifiers() {
		if m.Kind() == s.Kind {
			index = i
			break
		}
	}
	if index < 0 {
		index = p.PushModifier(modifiers.New(s.Kind))
	}

	switch strings.ToLower(s.Value) {
	case "on":
		return p.SetEnabled(index, true)
	case "off":
		return p.SetEnabled(index, false)
	}

	if v, err := strconv.ParseFloat(s.Value, 32); err == nil {
		return p.SetPercent(index, float32(v))
	}
	if s.Kind == modifiers.KindColorGrading {
		var presetErr error
		err := p.Update(index, func(m *modifiers.Modifier) { presetErr = m.ApplyPreset(s.Value) })
		if err != nil {
			return err
		}
		return presetErr
	}
	return fmt.Errorf("invalid value %q for %s", s.Value, s.Kind)
}

// runHeadless renders in with the configured chain plus raw settings and
// writes the result to out. evaluator may be nil.
func runHeadless(cfg *config.Config, logger logrus.FieldLogger, evaluator *metrics.Evaluator, in, out string, raw []string) error {
	if evaluator == nil {
		evaluator = metrics.NewEvaluator()
	}
	if in == "" {
		return fmt.Errorf("-out needs an input image (-in)")
	}
	settings, err := parseSettings(raw)
	if err != nil {
		return err
	}

	file, err := io.NewLoader(logger).Load(in)
	if err != nil {
		return err
	}

	p := pipeline.New(file.Image, file.Image.Size(), pipeline.WithLogger(logger))
	defer p.Close()

	chain, err := modifiers.ChainFromNames(cfg.Modifiers, nil)
	if err != nil {
		return err
	}
	for _, m := range chain {
		p.PushModifier(m)
	}
	for _, s := range settings {
		if err := applySetting(p, s); err != nil {
			return err
		}
	}

	logger.WithFields(logrus.Fields{
		"in":        file.Summary(),
		"modifiers": len(settings),
	}).Info("Rendering full resolution export")
	result := p.ApplyToOriginal()

	report := evaluator.GenerateReport(file.Image, result)
	logger.WithFields(logrus.Fields{
		"similarity": report.Similarity,
		"level":      report.Level,
		"metrics":    report.Metrics,
	}).Info("Export compared with original")

	return io.NewSaver(logger, io.WithJPEGQuality(cfg.Export.JPEGQuality)).Save(result, out)
}
