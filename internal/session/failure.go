// internal/session/failure.go
//
// Structured failures for the session API. Every public entry point
// returns either a success payload or a *Failure — never a panic. The
// transport layer renders Reason to the player and can use the context
// fields (session/room/choice) without knowing about presentation.

package session

import "fmt"

// Failure codes.
const (
	CodeNotFound     = "not_found"
	CodePrecondition = "precondition"
)

// Failure is a recoverable, explicit failure result.
type Failure struct {
	Code   string `json:"code"`
	Reason string `json:"reason"`

	Session string `json:"session,omitempty"`
	Room    string `json:"room,omitempty"`
	Choice  string `json:"choice,omitempty"`
	NPC     string `json:"npc,omitempty"`
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %s", f.Code, f.Reason)
}

func notFound(reason string) *Failure {
	return &Failure{Code: CodeNotFound, Reason: reason}
}

func precondition(reason string) *Failure {
	return &Failure{Code: CodePrecondition, Reason: reason}
}

// AsFailure extracts a *Failure from an error, or wraps a plain error as
// a precondition failure so callers always have structure to render.
func AsFailure(err error) *Failure {
	if err == nil {
		return nil
	}
	if f, ok := err.(*Failure); ok {
		return f
	}
	return &Failure{Code: CodePrecondition, Reason: err.Error()}
}
