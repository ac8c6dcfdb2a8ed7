package domain

import (
	"encoding/json"
	"fmt"
)

// ActionKind identifies what the host must do in response to a key event.
type ActionKind int

const (
	// ActionReject means the key was not consumed. Hosts usually pass it through or beep.
	ActionReject ActionKind = iota

	// ActionUpdateComposition asks the host to replace the inline pre-edit text.
	ActionUpdateComposition

	// ActionCommit asks the host to insert the text into the target application
	// and clear the pre-edit.
	ActionCommit

	// ActionShowCandidates asks the host to display the candidate window.
	// The text is the current composition, candidates come from Candidates().
	ActionShowCandidates
)

var actionKindNames = map[ActionKind]string{
	ActionReject:            "reject",
	ActionUpdateComposition: "update_composition",
	ActionCommit:            "commit",
	ActionShowCandidates:    "show_candidates",
}

func (k ActionKind) String() string {
	if name, ok := actionKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ActionKind(%d)", int(k))
}

// MarshalText implements encoding.TextMarshaler.
func (k ActionKind) MarshalText() ([]byte, error) {
	name, ok := actionKindNames[k]
	if !ok {
		return nil, fmt.Errorf("unknown action kind %d", int(k))
	}
	return []byte(name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *ActionKind) UnmarshalText(text []byte) error {
	for kind, name := range actionKindNames {
		if name == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown action kind %q", string(text))
}

// Action is one step the host must apply. A single key event may yield
// several actions, which must be applied in order.
type Action struct {
	Kind ActionKind `json:"type"`
	Text string     `json:"text,omitempty"`
}

// Reject builds a Reject action.
func Reject() Action { return Action{Kind: ActionReject} }

// UpdateComposition builds an UpdateComposition action. An empty text clears the pre-edit.
func UpdateComposition(text string) Action {
	return Action{Kind: ActionUpdateComposition, Text: text}
}

// Commit builds a Commit action.
func Commit(text string) Action { return Action{Kind: ActionCommit, Text: text} }

// ShowCandidates builds a ShowCandidates action.
func ShowCandidates(text string) Action {
	return Action{Kind: ActionShowCandidates, Text: text}
}

func (a Action) String() string {
	if a.Kind == ActionReject {
		return a.Kind.String()
	}
	return fmt.Sprintf("%s(%q)", a.Kind, a.Text)
}

// MarshalJSON keeps "text" present for UpdateComposition("") so hosts can
// tell a cleared pre-edit from a missing field.
func (a Action) MarshalJSON() ([]byte, error) {
	type wire struct {
		Kind ActionKind `json:"type"`
		Text *string    `json:"text,omitempty"`
	}
	w := wire{Kind: a.Kind}
	if a.Kind != ActionReject {
		text := a.Text
		w.Text = &text
	}
	return json.Marshal(w)
}
