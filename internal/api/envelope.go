package api

import (
	"errors"
	"strconv"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/bookshelfapp/bookshelf-server/internal/errors"
	"github.com/bookshelfapp/bookshelf-server/internal/http/response"
)

// EnvelopeVersion is the envelope schema version, sent as "v".
// Clients reject envelopes with an unknown version.
const EnvelopeVersion = response.Version

// APIEnvelope wraps every successful body and plain errors.
type APIEnvelope struct { //nolint:revive // API prefix is intentional for clarity
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Data    any    `json:"data"`
	Error   string `json:"error,omitempty"`
}

// APIErrorEnvelope wraps coded errors.
type APIErrorEnvelope struct { //nolint:revive // API prefix is intentional for clarity
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// EnvelopeTransformer is a huma transformer that wraps response bodies in
// the versioned envelope. ctx may be nil.
func EnvelopeTransformer(_ huma.Context, status string, v any) (any, error) {
	code, _ := strconv.Atoi(status)

	var apiErr *APIError
	var domainErr *domainerrors.Error
	switch err := v.(type) {
	case error:
		switch {
		case errors.As(err, &apiErr):
			return errorEnvelope(apiErr.Code, apiErr.Message, apiErr.Details), nil
		case errors.As(err, &domainErr):
			return errorEnvelope(string(domainErr.Code), domainErr.Message, domainErr.Details), nil
		}
		return APIEnvelope{
			Version: EnvelopeVersion,
			Success: false,
			Error:   err.Error(),
		}, nil
	}

	return APIEnvelope{
		Version: EnvelopeVersion,
		Success: code < 400,
		Data:    v,
	}, nil
}

func errorEnvelope(code, message string, details any) APIErrorEnvelope {
	return APIErrorEnvelope{
		Version: EnvelopeVersion,
		Success: false,
		Error:   message,
		Code:    code,
		Message: message,
		Details: details,
	}
}
