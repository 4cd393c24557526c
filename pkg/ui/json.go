package ui

import (
	"encoding/json"
	"io"

	"github.com/nirvanamm/nirvanamm/pkg/errors"
)

type jsonRenderer struct {
	w io.Writer
}

type jsonError struct {
	Error   string                 `json:"error"`
	Code    string                 `json:"code"`
	Details map[string]interface{} `json:"details,omitempty"`
}

type jsonMessage struct {
	Message string `json:"message"`
}

func (r *jsonRenderer) RenderResult(result interface{}) error {
	return r.encode(result)
}

func (r *jsonRenderer) RenderError(err error) error {
	return r.encode(jsonError{
		Error:   err.Error(),
		Code:    string(errors.GetErrorCode(err)),
		Details: errors.GetErrorDetails(err),
	})
}

func (r *jsonRenderer) RenderMessage(msg string) error {
	return r.encode(jsonMessage{Message: msg})
}

func (r *jsonRenderer) encode(v interface{}) error {
	enc := json.NewEncoder(r.w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return errors.Wrap(err, errors.ErrIO, "failed to encode JSON output")
	}
	return nil
}
