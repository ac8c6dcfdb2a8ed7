package runner

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/unicorn/pkg/domain"
)

// DefaultMaxLineSize bounds one JSON request line.
const DefaultMaxLineSize = 4096

// ErrInvalidRequest wraps every malformed request line.
var ErrInvalidRequest = errors.New("invalid request")

// Request is one JSON-Lines input. Exactly one field must be set.
type Request struct {
	Key        *string `json:"key,omitempty"`
	Select     *int    `json:"select,omitempty"`
	Deactivate bool    `json:"deactivate,omitempty"`
	Quit       bool    `json:"quit,omitempty"`
}

// Event converts the request.
func (req Request) Event() (Event, error) {
	set := 0
	for _, ok := range []bool{req.Key != nil, req.Select != nil, req.Deactivate, req.Quit} {
		if ok {
			set++
		}
	}
	if set != 1 {
		return Event{}, fmt.Errorf("%w: exactly one of key, select, deactivate, quit must be set", ErrInvalidRequest)
	}

	switch {
	case req.Key != nil:
		r, err := domain.ParseKey(*req.Key)
		if err != nil {
			return Event{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		return Event{Kind: EventKey, Key: r}, nil
	case req.Select != nil:
		return Event{Kind: EventSelect, Index: *req.Select}, nil
	case req.Deactivate:
		return Event{Kind: EventDeactivate}, nil
	default:
		return Event{Kind: EventQuit}, nil
	}
}

// errorLine is written in place of a result when a request cannot be understood.
type errorLine struct {
	Error string `json:"error"`
}

// JSONHandler implements the IOHandler interface for structured JSON-Lines communication.
// Malformed lines are answered with {"error": "..."} and skipped.
type JSONHandler struct {
	Scanner *bufio.Scanner
	Encoder *json.Encoder
}

// NewJSONHandler creates a handler for JSON IO. nil arguments mean stdin and stdout.
func NewJSONHandler(r io.Reader, w io.Writer) *JSONHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 512), DefaultMaxLineSize)

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &JSONHandler{Scanner: scanner, Encoder: enc}
}

func (h *JSONHandler) Next(ctx context.Context) (Event, error) {
	for h.Scanner.Scan() {
		line := bytes.TrimSpace(h.Scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var req Request
		dec := json.NewDecoder(bytes.NewReader(line))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			if err := h.Encoder.Encode(errorLine{Error: fmt.Sprintf("%v: %v", ErrInvalidRequest, err)}); err != nil {
				return Event{}, err
			}
			continue
		}

		ev, err := req.Event()
		if err != nil {
			if err := h.Encoder.Encode(errorLine{Error: err.Error()}); err != nil {
				return Event{}, err
			}
			continue
		}
		return ev, nil
	}
	if err := h.Scanner.Err(); err != nil {
		return Event{}, err
	}
	return Event{}, io.EOF
}

func (h *JSONHandler) Output(ctx context.Context, res Result) error {
	return h.Encoder.Encode(res)
}
