package handler

import (
	"errors"

	"custodia/pkg/domain"
)

type createProductRequest struct {
	// Code is the opaque numeric payload. The uint16 type bounds it to the
	// 16-bit range at decode time.
	Code uint16 `json:"code"`
}

type delegateProductRequest struct {
	DelegateTo *string `json:"delegate_to"`
}

// Target parses the delegate target. The field must be present; the custody
// rules themselves place no restriction on its value, so self-delegation and
// the zero principal are accepted here.
func (r delegateProductRequest) Target() (domain.Principal, error) {
	if r.DelegateTo == nil {
		return domain.Principal{}, errors.New("delegate_to is required")
	}
	return domain.ParsePrincipal(*r.DelegateTo)
}
