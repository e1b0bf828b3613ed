package speech

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Placeholders substituted in CommandSpeaker arguments.
const (
	TextPlaceholder = "{text}"
	LangPlaceholder = "{lang}"
)

// DefaultSpeakTimeout bounds a single spoken announcement.
const DefaultSpeakTimeout = 10 * time.Second

// Speaker speaks text aloud on the local audio output. Speak blocks until the
// utterance finishes.
type Speaker interface {
	Speak(ctx context.Context, text, lang string) error
}

// CommandSpeaker speaks by running an external TTS program such as espeak-ng.
type CommandSpeaker struct {
	command string
	args    []string
	timeout time.Duration
}

var _ Speaker = (*CommandSpeaker)(nil)

// NewCommandSpeaker creates a speaker that runs command with args. Arguments may
// contain TextPlaceholder and LangPlaceholder. A zero timeout uses DefaultSpeakTimeout.
func NewCommandSpeaker(command string, args []string, timeout time.Duration) *CommandSpeaker {
	if timeout <= 0 {
		timeout = DefaultSpeakTimeout
	}
	return &CommandSpeaker{
		command: command,
		args:    args,
		timeout: timeout,
	}
}

// NewEspeakSpeaker returns a CommandSpeaker for espeak-ng.
func NewEspeakSpeaker(timeout time.Duration) *CommandSpeaker {
	return NewCommandSpeaker("espeak-ng", []string{"-v", LangPlaceholder, TextPlaceholder}, timeout)
}

// Speak runs the command and waits for it to exit.
func (s *CommandSpeaker) Speak(ctx context.Context, text, lang string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyText
	}
	if lang == "" {
		lang = "en"
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	args := make([]string, len(s.args))
	for i, a := range s.args {
		a = strings.ReplaceAll(a, LangPlaceholder, lang)
		args[i] = strings.ReplaceAll(a, TextPlaceholder, text)
	}

	cmd := exec.CommandContext(ctx, s.command, args...)
	cmd.WaitDelay = time.Second

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("speech command timeout after %s", s.timeout)
	}
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("speech command failed: %w, stderr: %s", err, msg)
		}
		return fmt.Errorf("speech command failed: %w", err)
	}
	return nil
}

// FileSpeaker "speaks" by saving synthesized audio to a file that a browser
// plays back.
type FileSpeaker struct {
	synth Synthesizer
	path  string
}

var _ Speaker = (*FileSpeaker)(nil)

// NewFileSpeaker creates a speaker writing audio for each utterance to path.
func NewFileSpeaker(synth Synthesizer, path string) *FileSpeaker {
	return &FileSpeaker{synth: synth, path: path}
}

// Speak synthesizes text and replaces the audio file.
func (s *FileSpeaker) Speak(ctx context.Context, text, lang string) error {
	return SaveFile(ctx, s.synth, text, lang, s.path)
}

// Path returns the audio file location.
func (s *FileSpeaker) Path() string {
	return s.path
}

// Speakers runs every speaker in order. All are attempted; the errors are joined.
type Speakers []Speaker

// Speak calls each speaker in turn.
func (m Speakers) Speak(ctx context.Context, text, lang string) error {
	var errs []error
	for _, s := range m {
		if err := s.Speak(ctx, text, lang); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
