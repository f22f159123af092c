package order

import (
	"strconv"
	"strings"
	"time"

	"github.com/m3rciful/orderbot/core/dialog"
)

// DateLayout is the storage format of the accepted date.
const DateLayout = "02-01-2006"

// ProductValidator accepts one of the product buttons. Products without a
// standard kit skip the default-product question by implying "Свой вариант".
func ProductValidator(in dialog.Input[Notes]) dialog.Verdict {
	if !productKeyboard.Contains(in.Text) {
		return dialog.Reject()
	}
	if !HasStandardEquipment(in.Text) {
		return dialog.AcceptImplying(in.Text, ChoiceOwn)
	}
	return dialog.Accept(in.Text)
}

// DefaultProductValidator accepts the standard kit or the custom option.
// Accepting the kit pre-fills the description step.
func DefaultProductValidator(in dialog.Input[Notes]) dialog.Verdict {
	switch in.Text {
	case ChoiceAccept:
		return dialog.AcceptImplying(in.Text, StandardKitDescription)
	case ChoiceOwn:
		return dialog.Accept(in.Text)
	}
	return dialog.Reject()
}

// DateValidator accepts "DD MM YYYY" for today or a later day and stores it as DD-MM-YYYY.
func DateValidator(in dialog.Input[Notes]) dialog.Verdict {
	d, ok := ParseDate(in.Text, in.Now.Location())
	if !ok {
		return dialog.Reject()
	}
	y, m, day := in.Now.Date()
	today := time.Date(y, m, day, 0, 0, 0, 0, in.Now.Location())
	if d.Before(today) {
		return dialog.Reject()
	}
	return dialog.Accept(d.Format(DateLayout))
}

// ParseDate parses three space separated tokens: day, month and year.
// Calendar-invalid dates such as 31 02 2030 are rejected.
func ParseDate(text string, loc *time.Location) (time.Time, bool) {
	parts := strings.Fields(text)
	if len(parts) != 3 || len(parts[2]) != 4 {
		return time.Time{}, false
	}
	var nums [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n <= 0 {
			return time.Time{}, false
		}
		nums[i] = n
	}
	if loc == nil {
		loc = time.UTC
	}
	d := time.Date(nums[2], time.Month(nums[1]), nums[0], 0, 0, 0, 0, loc)
	if d.Day() != nums[0] || int(d.Month()) != nums[1] || d.Year() != nums[2] {
		return time.Time{}, false
	}
	return d, true
}
