package order_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/m3rciful/orderbot/core/dialog"
	"github.com/m3rciful/orderbot/core/dialog/memstore"
	"github.com/m3rciful/orderbot/internal/orderbot/order"
)

var now = time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

type sink struct {
	mu   sync.Mutex
	msgs []dialog.Message
}

func (s *sink) Send(_ context.Context, msg dialog.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, msg)
	return nil
}

func (s *sink) take() []dialog.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.msgs
	s.msgs = nil
	return out
}

func env(group bool) dialog.Env {
	return dialog.Env{
		Now:         now,
		AdminChatID: 777,
		Participant: dialog.Participant{UserID: 5, ChatID: 50, FirstName: "Иван", LastName: "Петров", Group: group},
	}
}

func TestFlowIsValid(t *testing.T) {
	if err := order.NewFlow(order.Options{}).Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestFreshDialogAsksForProduct(t *testing.T) {
	f := order.NewFlow(order.Options{})
	tr := f.Advance(dialog.State[order.Notes]{}, "", env(false))
	if tr.State.Step != order.StepProductSelection || len(tr.Messages) != 1 {
		t.Fatalf("unexpected transition: %+v", tr)
	}
	msg := tr.Messages[0]
	if msg.Text != "Отлично, что тебе нужно заказать?" || msg.Keyboard == nil || len(msg.Keyboard.Rows) != 4 {
		t.Fatalf("unexpected prompt: %+v", msg)
	}

	tr = f.Advance(tr.State, "Телевизор", env(false))
	if tr.State.Step != order.StepProductSelection || tr.Messages[0].Text != "Выберите из предложеных вариантов" {
		t.Fatalf("unknown product must re-prompt: %+v", tr)
	}
}

func TestStandardProductShowsEquipment(t *testing.T) {
	f := order.NewFlow(order.Options{})
	tr := f.Advance(dialog.State[order.Notes]{Step: order.StepProductSelection}, order.ProductMonitor, env(false))
	if tr.State.Step != order.StepDefaultProduct {
		t.Fatalf("step = %s", tr.State.Step)
	}
	if got := tr.Messages[0].Text; got != order.StandardEquipment(order.ProductMonitor) {
		t.Fatalf("prompt = %q", got)
	}

	tr = f.Advance(tr.State, order.ChoiceAccept, env(false))
	if tr.State.Step != order.StepDateSelection {
		t.Fatalf("accepting the kit must skip the description, step = %s", tr.State.Step)
	}
	if tr.State.Notes.Description != order.StandardKitDescription {
		t.Fatalf("description = %q", tr.State.Notes.Description)
	}
	if tr.State.Notes.DefaultProduct != order.StandardEquipment(order.ProductMonitor) {
		t.Fatalf("default product = %q", tr.State.Notes.DefaultProduct)
	}
}

func TestCustomProductCascadesToDescription(t *testing.T) {
	f := order.NewFlow(order.Options{})
	tr := f.Advance(dialog.State[order.Notes]{Step: order.StepProductSelection}, order.ProductPeripheral, env(false))
	if tr.State.Step != order.StepDescriptionProduct {
		t.Fatalf("step = %s", tr.State.Step)
	}
	if len(tr.Satisfied) != 2 || tr.State.Notes.DefaultProduct != order.ChoiceOwn {
		t.Fatalf("cascade not recorded: %+v", tr)
	}
	if tr.Messages[0].Text != "Можно подробнее?" {
		t.Fatalf("prompt = %q", tr.Messages[0].Text)
	}
}

func TestTextStepThresholds(t *testing.T) {
	f := order.NewFlow(order.Options{})
	cases := []struct {
		step dialog.StepID
		min  int
		next dialog.StepID
	}{
		{order.StepDescriptionProduct, 8, order.StepDateSelection},
		{order.StepWhyNeedIt, 8, order.StepForWhom},
		{order.StepForWhom, 15, order.StepCustomer},
		{order.StepCustomer, 15, order.StepConfirmation},
	}
	for _, tc := range cases {
		st := dialog.State[order.Notes]{Step: tc.step}

		short := "  " + strings.Repeat("ж", tc.min-1) + "  "
		tr := f.Advance(st, short, env(false))
		if tr.State.Step != tc.step || len(tr.Satisfied) != 0 {
			t.Fatalf("%s: %d runes must be rejected, step = %s", tc.step, tc.min-1, tr.State.Step)
		}

		tr = f.Advance(st, strings.Repeat("ж", tc.min), env(false))
		if tr.State.Step != tc.next {
			t.Fatalf("%s: %d runes must be accepted, step = %s", tc.step, tc.min, tr.State.Step)
		}
	}
}

func TestGroupPromptsForceReply(t *testing.T) {
	f := order.NewFlow(order.Options{})
	tr := f.Advance(dialog.State[order.Notes]{Step: order.StepDescriptionProduct}, "", env(true))
	if !tr.Messages[0].ForceReply {
		t.Fatalf("group prompt without keyboard must force a reply")
	}
}

func TestPastDateIsRejected(t *testing.T) {
	f := order.NewFlow(order.Options{})
	st := dialog.State[order.Notes]{Step: order.StepDateSelection}
	tr := f.Advance(st, "01 01 2000", env(false))
	if tr.State.Step != order.StepDateSelection {
		t.Fatalf("step = %s", tr.State.Step)
	}
	if tr.Messages[0].Text != "Некоректная дата, нужно в формате `31 01 2019`" {
		t.Fatalf("prompt = %q", tr.Messages[0].Text)
	}
}

func TestConfirmationSummaryAndRestart(t *testing.T) {
	f := order.NewFlow(order.Options{})
	st := dialog.State[order.Notes]{Step: order.StepConfirmation, Notes: order.Notes{
		Product:        order.ProductLaptop,
		DefaultProduct: order.ChoiceOwn,
		Description:    "Нужен лёгкий ноутбук",
		Date:           "15-03-2030",
		WhyNeedIt:      "Командировки",
		ForWhom:        "Иванов Иван, продажи",
		Customer:       "Петров Пётр, продажи",
	}}
	tr := f.Advance(st, "", env(false))
	summary := tr.Messages[0].Text
	if !strings.HasPrefix(summary, "Итак, тебе надо:\n") || !strings.HasSuffix(summary, "Подтвердите или начните заново") {
		t.Fatalf("summary = %q", summary)
	}
	if strings.Contains(summary, order.LabelDefaultProduct) {
		t.Fatalf("summary must not mention the default product: %q", summary)
	}
	if !strings.Contains(summary, "Описание : Нужен лёгкий ноутбук") {
		t.Fatalf("summary misses the description: %q", summary)
	}

	tr = f.Advance(st, order.ChoiceRestart, env(false))
	if !tr.Restarted || tr.State.Step != order.StepProductSelection || len(tr.Messages) != 1 {
		t.Fatalf("restart must land on the first prompt only: %+v", tr)
	}
	if tr.State.Notes != (order.Notes{}) {
		t.Fatalf("notes not reset: %+v", tr.State.Notes)
	}
}

func TestHappyPathThroughEngine(t *testing.T) {
	out := &sink{}
	store := memstore.New()
	eng, err := dialog.NewEngine(order.NewFlow(order.Options{}), store, out, dialog.Options{
		AdminChatID: 777,
		Now:         func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	who := dialog.Participant{UserID: 5, ChatID: 50, FirstName: "Иван", LastName: "Петров"}
	send := func(text string) []dialog.Message {
		t.Helper()
		if err := eng.Run(context.Background(), dialog.Inbound{Participant: who, Text: text}); err != nil {
			t.Fatalf("run %q: %v", text, err)
		}
		return out.take()
	}

	steps := []struct {
		text string
		want dialog.StepID
	}{
		{"", order.StepProductSelection},
		{"Монитор", order.StepDefaultProduct},
		{"Устраивает", order.StepDateSelection},
		{"15 03 2030", order.StepWhyNeedIt},
		{"Для проведения презентаций клиентам", order.StepForWhom},
		{"Иванов Иван, Отдел продаж, менеджер", order.StepCustomer},
		{"Сидоров Сидор, Отдел продаж", order.StepConfirmation},
	}
	for _, s := range steps {
		send(s.text)
		st, err := eng.Peek(context.Background(), who.UserID, who.ChatID)
		if err != nil {
			t.Fatalf("peek: %v", err)
		}
		if st.Step != s.want {
			t.Fatalf("after %q step = %s, want %s", s.text, st.Step, s.want)
		}
	}

	msgs := send("ОК")
	if len(msgs) != 2 {
		t.Fatalf("completion must send two messages, got %d", len(msgs))
	}
	admin, user := msgs[0], msgs[1]
	if admin.ChatID != 777 || !strings.HasPrefix(admin.Text, "Тут Иван Петров технику заказал(а)") {
		t.Fatalf("admin message = %+v", admin)
	}
	for _, want := range []string{"Монитор", "Стандартная комплекация", "15-03-2030", "Подтверждение : ОК"} {
		if !strings.Contains(admin.Text, want) {
			t.Fatalf("admin report misses %q: %q", want, admin.Text)
		}
	}
	if user.ChatID != 50 || !user.RemoveKeyboard || !strings.Contains(user.Text, order.DefaultSupportContact) {
		t.Fatalf("user message = %+v", user)
	}
	if name, ok, _ := store.Active(context.Background(), who.UserID, who.ChatID); ok {
		t.Fatalf("dialog %s still active after completion", name)
	}
}
