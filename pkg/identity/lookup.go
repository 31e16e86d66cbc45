package identity

import (
	"context"
	"errors"

	idmerrors "github.com/tendant/profile-property-node/pkg/errors"
)

// LookupStatus tells how a lookup ended.
type LookupStatus int

const (
	LookupResolved LookupStatus = iota
	LookupNotFound
	LookupBackendError
)

func (s LookupStatus) String() string {
	switch s {
	case LookupResolved:
		return "resolved"
	case LookupNotFound:
		return "not_found"
	case LookupBackendError:
		return "backend_error"
	default:
		return "unknown"
	}
}

// LookupResult is the outcome of resolving a principal and fetching its
// attributes. Values is only set when Status is LookupResolved; Err is only
// set when Status is LookupBackendError.
type LookupResult struct {
	Status    LookupStatus
	Principal PrincipalRef
	Values    AttributeValues
	Err       error
}

// Lookup resolves username in realm and fetches names with a single
// GetAttributes call. No attribute call is made when names is empty.
func Lookup(ctx context.Context, repo IdentityRepository, realm, username string, names []string) LookupResult {
	principal, err := repo.FindIdentityByUsername(ctx, NormalizeRealm(realm), username)
	if err != nil {
		return failedLookup(err)
	}

	if len(names) == 0 {
		return LookupResult{Status: LookupResolved, Principal: principal, Values: AttributeValues{}}
	}

	values, err := repo.GetAttributes(ctx, principal, names)
	if err != nil {
		return failedLookup(err)
	}

	return LookupResult{
		Status:    LookupResolved,
		Principal: principal,
		Values:    NewAttributeValues(values).only(names),
	}
}

func failedLookup(err error) LookupResult {
	if errors.Is(err, ErrIdentityNotFound) {
		return LookupResult{Status: LookupNotFound}
	}
	return LookupResult{Status: LookupBackendError, Err: idmerrors.IdentityBackend(err)}
}
