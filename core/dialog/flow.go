package dialog

import (
	"fmt"
	"strings"
	"time"
)

// Input is what a validator sees: the trimmed text, the answers collected so
// far and the current time.
type Input[N any] struct {
	Text  string
	Notes *N
	Now   time.Time
}

// Verdict is the outcome of a validator.
// Implied, when non-empty, is fed to the following step as its input within
// the same pass (cascade).
type Verdict struct {
	OK      bool
	Value   string
	Implied string
}

// Accept returns a successful verdict.
func Accept(value string) Verdict { return Verdict{OK: true, Value: value} }

// AcceptImplying returns a successful verdict that cascades implied into the next step.
func AcceptImplying(value, implied string) Verdict {
	return Verdict{OK: true, Value: value, Implied: implied}
}

// Reject returns a failed verdict.
func Reject() Verdict { return Verdict{} }

// Validator checks raw input for one step. It must be pure.
type Validator[N any] func(in Input[N]) Verdict

// Step is the static definition of one question.
type Step[N any] struct {
	ID StepID
	// Validate is required for every non-terminal step.
	Validate Validator[N]
	// Record stores an accepted value into the notes.
	Record func(n *N, value string)
	// Ask renders the prompt for a first visit (empty input).
	Ask func(n *N) string
	// Retry is sent when the user typed something that did not validate.
	// When empty Ask is used.
	Retry    string
	Keyboard *Keyboard
	// Restart, when set, is the accepted value that throws the dialog back to
	// its first step with empty notes.
	Restart string
	// Terminal marks the step that finalises the dialog.
	Terminal bool
}

// Completion is what a flow produces when the terminal step is reached.
type Completion struct {
	AdminText string
	UserText  string
}

// Flow is an ordered list of steps.
type Flow[N any] struct {
	Name     string
	Steps    []Step[N]
	Complete func(n *N, who Participant) Completion
}

// Env carries per-call context into Advance.
type Env struct {
	Now         time.Time
	AdminChatID int64
	Participant Participant
}

// Transition is the result of one Advance call.
type Transition[N any] struct {
	State     State[N]
	Messages  []Message
	Satisfied []StepID
	// Prompted is the step whose prompt was emitted, if any.
	Prompted  StepID
	Restarted bool
	Completed bool
	// Exhausted means the loop ran past the last step without a terminal one.
	Exhausted bool
}

// Validate checks the flow definition.
func (f *Flow[N]) Validate() error {
	if f == nil {
		return fmt.Errorf("dialog: nil flow")
	}
	if strings.TrimSpace(f.Name) == "" {
		return fmt.Errorf("dialog: flow name is required")
	}
	if len(f.Steps) == 0 {
		return fmt.Errorf("dialog: flow %s has no steps", f.Name)
	}
	seen := make(map[StepID]struct{}, len(f.Steps))
	for i, s := range f.Steps {
		if s.ID == "" {
			return fmt.Errorf("dialog: flow %s step #%d has no id", f.Name, i)
		}
		if _, dup := seen[s.ID]; dup {
			return fmt.Errorf("dialog: flow %s has duplicate step %s", f.Name, s.ID)
		}
		seen[s.ID] = struct{}{}
		if s.Terminal {
			if f.Complete == nil {
				return fmt.Errorf("dialog: flow %s has a terminal step but no Complete func", f.Name)
			}
			continue
		}
		if s.Validate == nil || s.Ask == nil {
			return fmt.Errorf("dialog: flow %s step %s needs Validate and Ask", f.Name, s.ID)
		}
	}
	return nil
}

// First returns the id of the first step.
func (f *Flow[N]) First() StepID {
	if len(f.Steps) == 0 {
		return ""
	}
	return f.Steps[0].ID
}

// Has reports whether id belongs to the flow.
func (f *Flow[N]) Has(id StepID) bool {
	return f.index(id) >= 0
}

func (f *Flow[N]) index(id StepID) int {
	for i := range f.Steps {
		if f.Steps[i].ID == id {
			return i
		}
	}
	return -1
}

// Advance feeds text into the dialog described by st and returns the new state
// together with the messages to send. It performs no I/O.
func (f *Flow[N]) Advance(st State[N], text string, env Env) Transition[N] {
	tr := Transition[N]{State: st}

	idx := f.index(st.Step)
	if idx < 0 {
		idx = 0
	}
	input := strings.TrimSpace(text)
	restarted := false

	for idx < len(f.Steps) {
		step := &f.Steps[idx]
		if step.Terminal {
			return f.finish(tr, env)
		}

		v := step.Validate(Input[N]{Text: input, Notes: &tr.State.Notes, Now: env.Now})
		if !v.OK {
			tr.State.Step = step.ID
			tr.Prompted = step.ID
			tr.Messages = append(tr.Messages, f.prompt(step, &tr.State.Notes, input, env.Participant))
			return tr
		}

		if step.Restart != "" && v.Value == step.Restart && !restarted {
			var zero N
			tr.State.Notes = zero
			tr.State.Step = ""
			tr.Satisfied = nil
			tr.Restarted = true
			restarted = true
			idx, input = 0, ""
			continue
		}

		if step.Record != nil {
			step.Record(&tr.State.Notes, v.Value)
		}
		tr.Satisfied = append(tr.Satisfied, step.ID)
		input = v.Implied
		idx++
	}

	tr.State.Step = ""
	tr.Exhausted = true
	return tr
}

func (f *Flow[N]) prompt(step *Step[N], n *N, input string, who Participant) Message {
	text := step.Retry
	if input == "" || text == "" {
		text = step.Ask(n)
	}
	msg := Message{ChatID: who.ChatID, Text: text, Keyboard: step.Keyboard}
	if msg.Keyboard == nil && who.Group {
		msg.ForceReply = true
	}
	return msg
}

func (f *Flow[N]) finish(tr Transition[N], env Env) Transition[N] {
	c := f.Complete(&tr.State.Notes, env.Participant)
	tr.State.Step = ""
	tr.Completed = true
	tr.Messages = append(tr.Messages,
		Message{ChatID: env.AdminChatID, Text: c.AdminText},
		Message{ChatID: env.Participant.ChatID, Text: c.UserText, RemoveKeyboard: true},
	)
	return tr
}
