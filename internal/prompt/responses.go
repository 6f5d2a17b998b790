package prompt

// Fixed response texts. Evaluation cases match on these strings, so they
// must not be paraphrased.
const (
	RefusalText     = "The documentation does not mention this feature.\nPlease contact support for confirmation."
	SyncRefusalText = "The documentation does not mention task syncing issues.\nPlease contact support for confirmation."
	GreetingText    = "Hello! How can I help you with Clearpath today?"
	ApologyText     = "Sorry, I encountered an error connecting to the server. Please try again."
)
