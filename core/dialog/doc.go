// Package dialog drives sequential, resumable, validated multi-turn
// conversations. A Flow is an ordered list of steps; the Engine loads the
// persisted state for one (user, chat, dialog) key, advances it with the
// latest inbound text, persists the result and only then hands the outbound
// messages to a Sink.
//
// The package knows nothing about Telegram: transport, keyboards rendering
// and storage backends live behind the Sink, Store and Locker interfaces.
package dialog
