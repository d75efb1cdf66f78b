package engine

// User-facing texts.
const (
	msgRetry            = "I'm having trouble processing that. Could you please try again?"
	msgMalformed        = "Couldn't extract a valid field from your response."
	msgUnrecognized     = "Unrecognized field: %s"
	msgOpening          = "What food would you like to add to your inventory?"
	msgNext             = "What other details can you provide about this food item?"
	msgCompleted        = "All fields successfully collected.\n%s"
	msgHandoff          = "Having trouble collecting food details, let me guide you step by step\n"
	msgInvalidFood      = "That doesn't seem like a valid food. Let's try again.\n"
	msgInvalidValue     = "That doesn't look like a valid %s. Let's try again.\n"
	msgNotConfirmed     = "Some of those details don't look quite right yet."
	msgInvalidFields    = "Some details are not in the expected format: %s."
	msgStorageFailed    = "I couldn't save %s to your inventory right now. Send any message to try again."
	msgCheckUnavailable = "I couldn't check that name right now. Let's try again.\n"
)
