package tenant

import (
	"errors"
	"strings"
)

var ErrMissingOrg = errors.New("tenant org id is required")

// Context identifies the organization a call operates on. It is passed
// explicitly to every port method; storage adapters resolve it to the tenant
// namespace. Never ambient, never global.
type Context struct {
	OrgID string
}

func New(orgID string) Context {
	return Context{OrgID: strings.TrimSpace(orgID)}
}

func (c Context) Validate() error {
	if strings.TrimSpace(c.OrgID) == "" {
		return ErrMissingOrg
	}
	return nil
}
