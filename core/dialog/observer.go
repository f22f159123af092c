package dialog

// Observer receives engine events, typically to feed metrics.
type Observer interface {
	StepAccepted(dialog string, step StepID)
	Reprompted(dialog string, step StepID)
	Restarted(dialog string)
	Completed(dialog string)
	Exhausted(dialog string)
	NotesReset(dialog string)
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) StepAccepted(string, StepID) {}
func (NopObserver) Reprompted(string, StepID)   {}
func (NopObserver) Restarted(string)            {}
func (NopObserver) Completed(string)            {}
func (NopObserver) Exhausted(string)            {}
func (NopObserver) NotesReset(string)           {}
