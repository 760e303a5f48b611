package queries

import (
	"context"
	"errors"
)

type ValidateMachineParametersQueryHandler struct {
	machines MachineReader
}

func NewValidateMachineParametersQueryHandler(machines MachineReader) ValidateMachineParametersQueryHandler {
	return ValidateMachineParametersQueryHandler{machines: machines}
}

// Handle resolves the parameters against the machine. Rule violations are
// reported in the response; only lookup failures are returned as errors.
func (h ValidateMachineParametersQueryHandler) Handle(
	ctx context.Context,
	query ValidateMachineParametersQuery,
) (ValidateMachineParametersQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return ValidateMachineParametersQueryResponse{}, err
	}

	def, err := h.machines.GetBySlug(ctx, query.Slug())
	if err != nil {
		return ValidateMachineParametersQueryResponse{}, err
	}

	resolved, err := def.ResolveParameters(query.Parameters())
	if err != nil {
		return ValidateMachineParametersQueryResponse{Errors: flatten(err)}, nil
	}
	return ValidateMachineParametersQueryResponse{Valid: true, Resolved: resolved.Map(), Errors: []string{}}, nil
}

// flatten unwraps joined errors into one message per problem.
func flatten(err error) []string {
	var joined interface{ Unwrap() []error }
	if !errors.As(err, &joined) {
		return []string{err.Error()}
	}
	var messages []string
	for _, e := range joined.Unwrap() {
		messages = append(messages, flatten(e)...)
	}
	return messages
}
