package order

import (
	"strings"

	"github.com/m3rciful/orderbot/core/dialog"
)

// Name is the dialog name persisted with every conversation.
const Name = "order"

const (
	StepProductSelection   dialog.StepID = "product_selection"
	StepDefaultProduct     dialog.StepID = "default_product"
	StepDescriptionProduct dialog.StepID = "description_product"
	StepDateSelection      dialog.StepID = "date_selection"
	StepWhyNeedIt          dialog.StepID = "why_need_it"
	StepForWhom            dialog.StepID = "for_whom"
	StepCustomer           dialog.StepID = "customer"
	StepConfirmation       dialog.StepID = "confirmation"
	StepEnd                dialog.StepID = "end"
)

// Button texts.
const (
	ChoiceAccept  = "Устраивает"
	ChoiceOwn     = ProductCustom
	ChoiceConfirm = "ОК"
	ChoiceRestart = "Начать заново"

	StandardKitDescription = "Стандартная комплекация"
)

// Minimal answer lengths in runes.
const (
	MinDescription = 8
	MinWhyNeedIt   = 8
	MinForWhom     = 15
	MinCustomer    = 15
)

const (
	textChooseOption = "Выберите из предложеных вариантов"
	textMoreDetails  = "Пожалуйста более подробно"
)

// DefaultSupportContact is mentioned in the closing message.
const DefaultSupportContact = "@h5_h5_h5_h5_h5"

var (
	productKeyboard = dialog.Choices(
		[]string{ProductComputer, ProductLaptop},
		[]string{ProductMonitor, ProductSystemUnit},
		[]string{ProductPeripheral},
		[]string{ProductCustom},
	)
	defaultProductKeyboard = dialog.Choices([]string{ChoiceAccept, ChoiceOwn})
	confirmationKeyboard   = dialog.Choices([]string{ChoiceConfirm, ChoiceRestart})
)

// Options configure the order flow.
type Options struct {
	SupportContact string
}

func fixed(text string) func(*Notes) string {
	return func(*Notes) string { return text }
}

// NewFlow builds the order questionnaire.
func NewFlow(opts Options) *dialog.Flow[Notes] {
	support := strings.TrimSpace(opts.SupportContact)
	if support == "" {
		support = DefaultSupportContact
	}

	return &dialog.Flow[Notes]{
		Name: Name,
		Steps: []dialog.Step[Notes]{
			{
				ID:       StepProductSelection,
				Validate: ProductValidator,
				Record:   func(n *Notes, v string) { n.Product = v },
				Ask:      fixed("Отлично, что тебе нужно заказать?"),
				Retry:    textChooseOption,
				Keyboard: productKeyboard,
			},
			{
				ID:       StepDefaultProduct,
				Validate: DefaultProductValidator,
				Record: func(n *Notes, v string) {
					if v == ChoiceAccept {
						n.DefaultProduct = StandardEquipment(n.Product)
						return
					}
					n.DefaultProduct = ChoiceOwn
				},
				Ask:      func(n *Notes) string { return StandardEquipment(n.Product) },
				Retry:    textChooseOption,
				Keyboard: defaultProductKeyboard,
			},
			{
				ID:       StepDescriptionProduct,
				Validate: dialog.MinLength[Notes](MinDescription),
				Record:   func(n *Notes, v string) { n.Description = v },
				Ask:      fixed("Можно подробнее?"),
				Retry:    textMoreDetails,
			},
			{
				ID:       StepDateSelection,
				Validate: DateValidator,
				Record:   func(n *Notes, v string) { n.Date = v },
				Ask:      fixed("Когда надо? (в формате `31 01 2019`)"),
				Retry:    "Некоректная дата, нужно в формате `31 01 2019`",
			},
			{
				ID:       StepWhyNeedIt,
				Validate: dialog.MinLength[Notes](MinWhyNeedIt),
				Record:   func(n *Notes, v string) { n.WhyNeedIt = v },
				Ask:      fixed("Напиши для чего тебе это?"),
				Retry:    textMoreDetails,
			},
			{
				ID:       StepForWhom,
				Validate: dialog.MinLength[Notes](MinForWhom),
				Record:   func(n *Notes, v string) { n.ForWhom = v },
				Ask:      fixed("Для кого тебе это нужно?\nФИО\nОтдел\nДолжность"),
				Retry:    textMoreDetails,
			},
			{
				ID:       StepCustomer,
				Validate: dialog.MinLength[Notes](MinCustomer),
				Record:   func(n *Notes, v string) { n.Customer = v },
				Ask:      fixed("Обещаю, это последний пункт\nКто заказчик?\nФИО\nОтдел"),
				Retry:    textMoreDetails,
			},
			{
				ID:       StepConfirmation,
				Validate: dialog.OneOf[Notes](confirmationKeyboard),
				Record:   func(n *Notes, v string) { n.Confirmation = v },
				Ask:      Summary,
				Retry:    textChooseOption,
				Keyboard: confirmationKeyboard,
				Restart:  ChoiceRestart,
			},
			{ID: StepEnd, Terminal: true},
		},
		Complete: func(n *Notes, who dialog.Participant) dialog.Completion {
			return dialog.Completion{
				AdminText: AdminReport(n, who),
				UserText: "Я сделалЬ.\n" +
					"Появятся вопросы по заказу, можешь задать их\n" +
					support + "\n" +
					"Что бы начать заново введи команду /start",
			}
		},
	}
}

// Summary renders the confirmation question.
func Summary(n *Notes) string {
	var b strings.Builder
	b.WriteString("Итак, тебе надо:\n")
	renderFields(&b, n.SummaryFields())
	b.WriteString("\nПодтвердите или начните заново")
	return b.String()
}

// AdminReport renders the notification sent to the admin chat.
func AdminReport(n *Notes, who dialog.Participant) string {
	var b strings.Builder
	b.WriteString("Тут ")
	b.WriteString(who.FirstName)
	b.WriteString(" ")
	b.WriteString(who.LastName)
	b.WriteString(" технику заказал(а)\n")
	renderFields(&b, n.Fields())
	return b.String()
}
