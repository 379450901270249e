package session

import (
	"fmt"
	"strings"
)

// AccountType is the value picked in the login form's account selector.
type AccountType string

const (
	AccountParent AccountType = "parent"
	AccountAdmin  AccountType = "admin"
	AccountDriver AccountType = "driver"
)

// accountRoles maps selector values onto roles. Drivers have no section of
// their own and are deliberately missing here; see UnhandledAccountPolicy.
var accountRoles = map[AccountType]Role{
	AccountAdmin:  RoleAdministrator,
	AccountParent: RoleCustomer,
}

func (a AccountType) Known() bool {
	switch a {
	case AccountParent, AccountAdmin, AccountDriver:
		return true
	default:
		return false
	}
}

// Role returns the mapped role; ok is false for unhandled account types.
func (a AccountType) Role() (Role, bool) {
	r, ok := accountRoles[a]
	return r, ok
}

// UnhandledAccountPolicy decides what a known account type without a role
// mapping (driver) logs in as.
type UnhandledAccountPolicy string

const (
	// FoldIntoCustomer treats every non-admin selection as a customer.
	FoldIntoCustomer UnhandledAccountPolicy = "customer"
	// RejectUnhandled refuses the login with ErrUnknownRole.
	RejectUnhandled UnhandledAccountPolicy = "reject"
)

func ParseUnhandledAccountPolicy(raw string) (UnhandledAccountPolicy, error) {
	switch p := UnhandledAccountPolicy(strings.ToLower(strings.TrimSpace(raw))); p {
	case FoldIntoCustomer, RejectUnhandled:
		return p, nil
	case "":
		return FoldIntoCustomer, nil
	default:
		return "", fmt.Errorf("unknown unhandled account policy %q", raw)
	}
}

// ResolveRole maps a selector value to a role under the given policy.
func ResolveRole(a AccountType, policy UnhandledAccountPolicy) (Role, error) {
	if !a.Known() {
		return "", fmt.Errorf("%w: account type %q", ErrUnknownRole, string(a))
	}

	if r, ok := a.Role(); ok {
		return r, nil
	}

	if policy == FoldIntoCustomer {
		return RoleCustomer, nil
	}

	return "", fmt.Errorf("%w: account type %q has no role", ErrUnknownRole, string(a))
}
