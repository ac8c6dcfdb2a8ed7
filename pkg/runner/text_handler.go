package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/unicorn/internal/presentation/tui"
	"github.com/aretw0/unicorn/pkg/domain"
	"github.com/muesli/termenv"
)

// Control keys with a meaning in text mode.
const (
	KeyCtrlC = 0x03
	KeyCtrlD = 0x04
	KeyEsc   = 0x1b
)

// TextHandler reads one key per rune and prints coloured action lines.
// Ctrl-C and Ctrl-D quit, Esc abandons the composition, line breaks are ignored.
type TextHandler struct {
	Reader  *bufio.Reader
	Writer  io.Writer
	Profile termenv.Profile
	Newline string
}

// TextHandlerOption defines configuration for TextHandler.
type TextHandlerOption func(*TextHandler)

// WithRawNewlines ends lines with CRLF, for terminals in raw mode.
func WithRawNewlines() TextHandlerOption {
	return func(h *TextHandler) {
		h.Newline = "\r\n"
	}
}

// WithProfile overrides the colour profile detected from the writer.
func WithProfile(p termenv.Profile) TextHandlerOption {
	return func(h *TextHandler) {
		h.Profile = p
	}
}

// NewTextHandler creates a handler for terminal IO. nil arguments mean stdin and stdout.
func NewTextHandler(r io.Reader, w io.Writer, opts ...TextHandlerOption) *TextHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	h := &TextHandler{
		Reader:  bufio.NewReader(r),
		Writer:  w,
		Profile: termenv.NewOutput(w).ColorProfile(),
		Newline: "\n",
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *TextHandler) Next(ctx context.Context) (Event, error) {
	for {
		r, _, err := h.Reader.ReadRune()
		if err != nil {
			return Event{}, err
		}
		switch r {
		case KeyCtrlC, KeyCtrlD:
			return Event{Kind: EventQuit}, nil
		case KeyEsc:
			return Event{Kind: EventDeactivate}, nil
		case '\r', '\n':
			continue
		}
		return Event{Kind: EventKey, Key: r}, nil
	}
}

func (h *TextHandler) Output(ctx context.Context, res Result) error {
	showCandidates := res.Selection
	for _, a := range res.Actions {
		if err := h.println(tui.RenderAction(h.Profile, a)); err != nil {
			return err
		}
		if a.Kind == domain.ActionShowCandidates {
			showCandidates = true
		}
	}
	if showCandidates && len(res.Candidates) > 0 {
		return h.println("  " + tui.RenderCandidates(h.Profile, res.Candidates, res.Composition.Selected))
	}
	return nil
}

func (h *TextHandler) println(s string) error {
	_, err := fmt.Fprint(h.Writer, s, h.Newline)
	return err
}
