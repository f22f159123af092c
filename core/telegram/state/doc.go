// Package state routes Telegram updates into persisted dialogs. The Manager
// keeps the registered dialog runners, asks the conversation store which
// dialog a user is in and forwards the message text to that runner.
package state
