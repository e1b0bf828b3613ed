// Package translate resolves text translations through an ordered chain of
// fallible backends and degrades to the original text when every backend fails.
package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// AutoSource is the source code sent to backends that detect the language themselves.
const AutoSource = "auto"

var (
	// ErrNoResult is returned by a backend that answered without usable text.
	ErrNoResult = errors.New("no translation in response")
	// ErrQuotaExceeded is returned when a backend credential is out of quota.
	ErrQuotaExceeded = errors.New("translation quota exceeded")
)

// Translator is a translation backend.
type Translator interface {
	Name() string
	Translate(ctx context.Context, text, source, target string) (string, error)
}

// LanguageDetector is a language identification backend.
type LanguageDetector interface {
	Name() string
	Detect(ctx context.Context, text string) (string, error)
}

// Step identifies which stage of the chain an attempt belongs to.
type Step string

const (
	StepPrimary  Step = "primary"
	StepDetect   Step = "detect"
	StepFallback Step = "fallback"
)

// Attempt records one failed backend call.
type Attempt struct {
	Backend string
	Step    Step
	Err     error
}

func (a Attempt) String() string {
	return fmt.Sprintf("%s/%s: %v", a.Step, a.Backend, a.Err)
}

// Result is the outcome of resolving a translation. Backend is empty when the
// text was returned untranslated.
type Result struct {
	Text     string
	Source   string
	Backend  string
	Attempts []Attempt
}

// Translated reports whether a backend produced Text.
func (r Result) Translated() bool {
	return r.Backend != ""
}

// ValidCode reports whether code looks like a short language code such as
// "en", "haw" or "zh-cn". Undetermined codes ("und", "root") are rejected.
func ValidCode(code string) bool {
	if len(code) < 2 || len(code) > 8 {
		return false
	}
	for _, r := range code {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') && r != '-' {
			return false
		}
	}
	tag, err := language.Parse(code)
	if err != nil {
		return false
	}
	_, confidence := tag.Base()
	return confidence == language.Exact
}

// normalizeSource maps empty and "auto" sources to the empty string.
func normalizeSource(source string) string {
	source = strings.TrimSpace(source)
	if strings.EqualFold(source, AutoSource) {
		return ""
	}
	return source
}
