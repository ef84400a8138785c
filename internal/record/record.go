package record

// Email is one normalized email message extracted from agent output or
// fetched directly from a mailbox.
type Email struct {
	MessageID string `json:"message_id"`
	ThreadID  string `json:"thread_id"`
	From      string `json:"from"`
	Subject   string `json:"subject"`
	Date      string `json:"date"`
	Body      string `json:"body"`
}

// Identifiable reports whether the record can be targeted by a reply.
// Records without a message ID are still deliverable as notifications.
func (e Email) Identifiable() bool {
	return e.MessageID != ""
}
