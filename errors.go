package foodagent

import "errors"

// Error taxonomy shared by the engine and its collaborators.
var (
	ErrMalformedExtraction = errors.New("extraction did not yield a field=value pair")
	ErrUnknownField        = errors.New("unrecognized field")
	ErrValidation          = errors.New("value does not match field grammar")
	ErrCollaborator        = errors.New("collaborator call failed")
	ErrStorage             = errors.New("inventory commit failed")
)
