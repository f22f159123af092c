package order

import (
	"strings"

	"github.com/m3rciful/orderbot/core/dialog"
)

// Field labels, also used as summary keys.
const (
	LabelProduct        = "Выбранный продукт"
	LabelDefaultProduct = "По умолчанию"
	LabelDescription    = "Описание"
	LabelDate           = "Выбранная дата"
	LabelWhyNeedIt      = "Зачем это нужно"
	LabelForWhom        = "Для кого"
	LabelCustomer       = "Заказчик"
	LabelConfirmation   = "Подтверждение"
)

// Notes holds the answers of one order dialog.
type Notes struct {
	Product        string `json:"product,omitempty"`
	DefaultProduct string `json:"default_product,omitempty"`
	Description    string `json:"description,omitempty"`
	Date           string `json:"date,omitempty"`
	WhyNeedIt      string `json:"why_need_it,omitempty"`
	ForWhom        string `json:"for_whom,omitempty"`
	Customer       string `json:"customer,omitempty"`
	Confirmation   string `json:"confirmation,omitempty"`
}

// Fields returns the recorded answers in dialog order. Unanswered steps are skipped.
func (n *Notes) Fields() []dialog.Field {
	all := []dialog.Field{
		{Label: LabelProduct, Value: n.Product},
		{Label: LabelDefaultProduct, Value: n.DefaultProduct},
		{Label: LabelDescription, Value: n.Description},
		{Label: LabelDate, Value: n.Date},
		{Label: LabelWhyNeedIt, Value: n.WhyNeedIt},
		{Label: LabelForWhom, Value: n.ForWhom},
		{Label: LabelCustomer, Value: n.Customer},
		{Label: LabelConfirmation, Value: n.Confirmation},
	}
	out := all[:0]
	for _, f := range all {
		if f.Value != "" {
			out = append(out, f)
		}
	}
	return out
}

// SummaryFields is Fields without the default-product scratch value.
func (n *Notes) SummaryFields() []dialog.Field {
	fields := n.Fields()
	out := fields[:0]
	for _, f := range fields {
		if f.Label != LabelDefaultProduct {
			out = append(out, f)
		}
	}
	return out
}

func renderFields(b *strings.Builder, fields []dialog.Field) {
	for _, f := range fields {
		b.WriteString("\n")
		b.WriteString(f.Label)
		b.WriteString(" : ")
		b.WriteString(f.Value)
	}
}
