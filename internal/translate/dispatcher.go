package translate

import (
	"context"
	"log"
	"strings"
)

// Dispatcher tries translation backends in priority order.
//
// Order: primary backends keyed by an explicit source/target pair; language
// detection followed by the primary backends again when no source was given;
// finally the general fallback backend with whatever source is known.
type Dispatcher struct {
	primary  []Translator
	detector LanguageDetector
	fallback Translator
}

// NewDispatcher creates a Dispatcher. Any of the backends may be nil or empty.
func NewDispatcher(primary []Translator, detector LanguageDetector, fallback Translator) *Dispatcher {
	return &Dispatcher{
		primary:  primary,
		detector: detector,
		fallback: fallback,
	}
}

// Translate returns text translated to target, or the trimmed input when every
// backend fails. It never returns an error.
func (d *Dispatcher) Translate(ctx context.Context, text, source, target string) string {
	return d.Resolve(ctx, text, source, target).Text
}

// Resolve runs the backend chain and reports which backend answered and which
// attempts failed along the way.
func (d *Dispatcher) Resolve(ctx context.Context, text, source, target string) Result {
	cleaned := strings.TrimSpace(text)
	source = normalizeSource(source)
	target = strings.TrimSpace(target)

	res := Result{Text: cleaned, Source: source}
	if cleaned == "" {
		return res
	}

	if ValidCode(source) && ValidCode(target) && d.tryPrimary(ctx, &res, cleaned, source, target) {
		return res
	}

	if source == "" && d.detector != nil {
		detected, err := d.detector.Detect(ctx, cleaned)
		switch {
		case err != nil:
			res.Attempts = append(res.Attempts, Attempt{Backend: d.detector.Name(), Step: StepDetect, Err: err})
		case !ValidCode(detected):
			res.Attempts = append(res.Attempts, Attempt{Backend: d.detector.Name(), Step: StepDetect, Err: ErrNoResult})
		default:
			res.Source = detected
			if ValidCode(target) && d.tryPrimary(ctx, &res, cleaned, detected, target) {
				return res
			}
		}
	}

	if d.fallback != nil && target != "" {
		src := res.Source
		if src == "" {
			src = AutoSource
		}
		out, err := d.fallback.Translate(ctx, cleaned, src, target)
		out = strings.TrimSpace(out)
		if err == nil && out == "" {
			err = ErrNoResult
		}
		if err == nil {
			res.Text = out
			res.Backend = d.fallback.Name()
			return res
		}
		res.Attempts = append(res.Attempts, Attempt{Backend: d.fallback.Name(), Step: StepFallback, Err: err})
	}

	if len(res.Attempts) > 0 {
		log.Printf("translate: returning original text after %d failed attempts: %v", len(res.Attempts), res.Attempts)
	}
	return res
}

// tryPrimary calls each primary backend until one succeeds.
func (d *Dispatcher) tryPrimary(ctx context.Context, res *Result, text, source, target string) bool {
	for _, backend := range d.primary {
		if ctx.Err() != nil {
			res.Attempts = append(res.Attempts, Attempt{Backend: backend.Name(), Step: StepPrimary, Err: ctx.Err()})
			return false
		}
		out, err := backend.Translate(ctx, text, source, target)
		out = strings.TrimSpace(out)
		if err == nil && out == "" {
			err = ErrNoResult
		}
		if err != nil {
			res.Attempts = append(res.Attempts, Attempt{Backend: backend.Name(), Step: StepPrimary, Err: err})
			continue
		}
		res.Text = out
		res.Source = source
		res.Backend = backend.Name()
		return true
	}
	return false
}
