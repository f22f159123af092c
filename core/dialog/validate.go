package dialog

import (
	"strings"
	"unicode/utf8"
)

// OneOf accepts input that exactly matches one of the keyboard buttons.
func OneOf[N any](kb *Keyboard) Validator[N] {
	return func(in Input[N]) Verdict {
		if in.Text == "" || !kb.Contains(in.Text) {
			return Reject()
		}
		return Accept(in.Text)
	}
}

// MinLength accepts input of at least min runes after trimming.
func MinLength[N any](min int) Validator[N] {
	return func(in Input[N]) Verdict {
		text := strings.TrimSpace(in.Text)
		if text == "" || utf8.RuneCountInString(text) < min {
			return Reject()
		}
		return Accept(text)
	}
}
