package ocr

import "slices"

// Tuner pushes per-input settings to an engine, skipping values already in
// effect. Engines that reload their model whenever a setting is touched use it
// so the reload happens only on a real change.
type Tuner struct {
	SetLanguages func(langs ...string) error
	SetDPI       func(dpi int) error

	languages []string
	dpi       int
}

// NewTuner records the languages the engine was built with.
func NewTuner(languages []string, setLanguages func(...string) error, setDPI func(int) error) *Tuner {
	return &Tuner{
		SetLanguages: setLanguages,
		SetDPI:       setDPI,
		languages:    slices.Clone(languages),
	}
}

// Apply brings the engine in line with in. Empty languages and a zero DPI
// leave the current values alone.
func (t *Tuner) Apply(in Input) error {
	if len(in.Languages) > 0 && !slices.Equal(in.Languages, t.languages) {
		if err := t.SetLanguages(in.Languages...); err != nil {
			return err
		}
		t.languages = slices.Clone(in.Languages)
	}
	if in.DPI > 0 && in.DPI != t.dpi {
		if err := t.SetDPI(in.DPI); err != nil {
			return err
		}
		t.dpi = in.DPI
	}
	return nil
}
