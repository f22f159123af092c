package dialog_test

import (
	"strings"
	"testing"
	"time"

	"github.com/m3rciful/orderbot/core/dialog"
)

type testNotes struct {
	Kind    string `json:"kind,omitempty"`
	Detail  string `json:"detail,omitempty"`
	Confirm string `json:"confirm,omitempty"`
}

var (
	kindKB    = dialog.Choices([]string{"fast", "slow"})
	confirmKB = dialog.Choices([]string{"ok", "again"})
)

func testFlow() *dialog.Flow[testNotes] {
	return &dialog.Flow[testNotes]{
		Name: "test",
		Steps: []dialog.Step[testNotes]{
			{
				ID: "kind",
				Validate: func(in dialog.Input[testNotes]) dialog.Verdict {
					switch in.Text {
					case "fast":
						return dialog.AcceptImplying("fast", "auto detail")
					case "slow":
						return dialog.Accept("slow")
					}
					return dialog.Reject()
				},
				Record:   func(n *testNotes, v string) { n.Kind = v },
				Ask:      func(*testNotes) string { return "which kind?" },
				Retry:    "pick one",
				Keyboard: kindKB,
			},
			{
				ID:       "detail",
				Validate: dialog.MinLength[testNotes](5),
				Record:   func(n *testNotes, v string) { n.Detail = v },
				Ask:      func(*testNotes) string { return "details?" },
				Retry:    "more please",
			},
			{
				ID:       "confirm",
				Validate: dialog.OneOf[testNotes](confirmKB),
				Record:   func(n *testNotes, v string) { n.Confirm = v },
				Ask: func(n *testNotes) string {
					return "summary: " + n.Kind + "/" + n.Detail
				},
				Retry:    "pick one",
				Keyboard: confirmKB,
				Restart:  "again",
			},
			{ID: "end", Terminal: true},
		},
		Complete: func(n *testNotes, who dialog.Participant) dialog.Completion {
			return dialog.Completion{
				AdminText: who.FirstName + " wants " + n.Kind,
				UserText:  "done",
			}
		},
	}
}

func testEnv(group bool) dialog.Env {
	return dialog.Env{
		Now:         time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC),
		AdminChatID: 999,
		Participant: dialog.Participant{UserID: 1, ChatID: 10, FirstName: "Ann", Group: group},
	}
}

func TestFlowValidate(t *testing.T) {
	if err := testFlow().Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	bad := testFlow()
	bad.Steps[1].ID = "kind"
	if err := bad.Validate(); err == nil {
		t.Fatal("expected duplicate step error")
	}
	noComplete := testFlow()
	noComplete.Complete = nil
	if err := noComplete.Validate(); err == nil {
		t.Fatal("expected missing Complete error")
	}
}

func TestAdvanceFreshPrompt(t *testing.T) {
	f := testFlow()
	tr := f.Advance(dialog.State[testNotes]{}, "", testEnv(false))

	if tr.State.Step != "kind" || tr.Prompted != "kind" {
		t.Fatalf("step = %q prompted = %q", tr.State.Step, tr.Prompted)
	}
	if len(tr.Messages) != 1 {
		t.Fatalf("messages = %d, want 1", len(tr.Messages))
	}
	msg := tr.Messages[0]
	if msg.Text != "which kind?" || msg.Keyboard != kindKB || msg.ChatID != 10 {
		t.Fatalf("unexpected prompt: %+v", msg)
	}
}

func TestAdvanceRepromptIsIdempotent(t *testing.T) {
	f := testFlow()
	st := dialog.State[testNotes]{Step: "kind"}

	first := f.Advance(st, "medium", testEnv(false))
	second := f.Advance(first.State, "medium", testEnv(false))

	for i, tr := range []dialog.Transition[testNotes]{first, second} {
		if tr.State != st {
			t.Fatalf("#%d state changed: %+v", i, tr.State)
		}
		if len(tr.Messages) != 1 || tr.Messages[0].Text != "pick one" {
			t.Fatalf("#%d unexpected messages: %+v", i, tr.Messages)
		}
		if len(tr.Satisfied) != 0 {
			t.Fatalf("#%d satisfied = %v", i, tr.Satisfied)
		}
	}
}

func TestAdvanceCascadesImpliedInput(t *testing.T) {
	f := testFlow()
	tr := f.Advance(dialog.State[testNotes]{Step: "kind"}, "fast", testEnv(false))

	if tr.State.Notes.Kind != "fast" || tr.State.Notes.Detail != "auto detail" {
		t.Fatalf("notes = %+v", tr.State.Notes)
	}
	if tr.State.Step != "confirm" {
		t.Fatalf("step = %q, want confirm", tr.State.Step)
	}
	if got := len(tr.Satisfied); got != 2 {
		t.Fatalf("satisfied = %v, want 2 steps", tr.Satisfied)
	}
	if len(tr.Messages) != 1 || tr.Messages[0].Text != "summary: fast/auto detail" {
		t.Fatalf("unexpected messages: %+v", tr.Messages)
	}
}

func TestAdvanceWithoutCascadeStopsOnNextStep(t *testing.T) {
	f := testFlow()
	tr := f.Advance(dialog.State[testNotes]{Step: "kind"}, "slow", testEnv(true))

	if tr.State.Step != "detail" {
		t.Fatalf("step = %q, want detail", tr.State.Step)
	}
	msg := tr.Messages[0]
	if msg.Text != "details?" {
		t.Fatalf("expected fresh prompt, got %q", msg.Text)
	}
	if !msg.ForceReply || msg.Keyboard != nil {
		t.Fatalf("group prompt without keyboard must force reply: %+v", msg)
	}
}

func TestAdvanceRestartIsAtomic(t *testing.T) {
	f := testFlow()
	st := dialog.State[testNotes]{
		Step:  "confirm",
		Notes: testNotes{Kind: "slow", Detail: "something long"},
	}
	tr := f.Advance(st, "again", testEnv(false))

	if !tr.Restarted {
		t.Fatal("expected restart flag")
	}
	if tr.State.Notes != (testNotes{}) {
		t.Fatalf("notes not reset: %+v", tr.State.Notes)
	}
	if tr.State.Step != "kind" {
		t.Fatalf("step = %q, want kind", tr.State.Step)
	}
	if len(tr.Messages) != 1 || tr.Messages[0].Text != "which kind?" {
		t.Fatalf("restart must emit only the first prompt: %+v", tr.Messages)
	}
	if len(tr.Satisfied) != 0 {
		t.Fatalf("satisfied = %v", tr.Satisfied)
	}
}

func TestAdvanceCompletion(t *testing.T) {
	f := testFlow()
	st := dialog.State[testNotes]{
		Step:  "confirm",
		Notes: testNotes{Kind: "slow", Detail: "something long"},
	}
	tr := f.Advance(st, " ok ", testEnv(false))

	if !tr.Completed || tr.State.Step != "" {
		t.Fatalf("completed = %v step = %q", tr.Completed, tr.State.Step)
	}
	if len(tr.Messages) != 2 {
		t.Fatalf("messages = %d, want 2", len(tr.Messages))
	}
	admin, user := tr.Messages[0], tr.Messages[1]
	if admin.ChatID != 999 || admin.Text != "Ann wants slow" {
		t.Fatalf("admin message = %+v", admin)
	}
	if user.ChatID != 10 || user.Text != "done" || !user.RemoveKeyboard {
		t.Fatalf("user message = %+v", user)
	}
	if tr.State.Notes.Confirm != "ok" {
		t.Fatalf("confirm not recorded: %+v", tr.State.Notes)
	}
}

func TestAdvanceUnknownStepStartsOver(t *testing.T) {
	f := testFlow()
	tr := f.Advance(dialog.State[testNotes]{Step: "gone"}, "", testEnv(false))
	if tr.State.Step != "kind" {
		t.Fatalf("step = %q, want kind", tr.State.Step)
	}
}

func TestAdvanceExhausted(t *testing.T) {
	f := testFlow()
	f.Steps = f.Steps[:1]
	tr := f.Advance(dialog.State[testNotes]{}, "slow", testEnv(false))
	if !tr.Exhausted || len(tr.Messages) != 0 || tr.State.Step != "" {
		t.Fatalf("unexpected transition: %+v", tr)
	}
}

func TestMinLengthCountsRunes(t *testing.T) {
	v := dialog.MinLength[testNotes](8)
	cases := []struct {
		in string
		ok bool
	}{
		{"", false},
		{"   ", false},
		{"коротко", false},
		{"подробно", true},
		{"  подробно  ", true},
		{strings.Repeat("a", 7), false},
	}
	for _, tc := range cases {
		if got := v(dialog.Input[testNotes]{Text: tc.in}).OK; got != tc.ok {
			t.Fatalf("MinLength(%q) = %v, want %v", tc.in, got, tc.ok)
		}
	}
}

func TestOneOfRequiresExactMatch(t *testing.T) {
	v := dialog.OneOf[testNotes](confirmKB)
	for in, want := range map[string]bool{"ok": true, "OK": false, "again": true, "": false, "okay": false} {
		if got := v(dialog.Input[testNotes]{Text: in}).OK; got != want {
			t.Fatalf("OneOf(%q) = %v, want %v", in, got, want)
		}
	}
}
