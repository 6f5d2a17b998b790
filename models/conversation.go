package models

// ConversationTurn is one user/bot exchange kept in session history
type ConversationTurn struct {
	User string `json:"user"`
	Bot  string `json:"bot"`
}
