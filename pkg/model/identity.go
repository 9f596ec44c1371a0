package model

import "roombook/pkg/config"

// Identity is the authenticated caller, taken from the bearer token.
type Identity struct {
	ID         string `json:"id"`
	Role       string `json:"role"`
	Department string `json:"department,omitempty"`
}

func (i Identity) IsAdmin() bool {
	return i.Role == config.RoleAdmin
}
