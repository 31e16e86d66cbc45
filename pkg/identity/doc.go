// Package identity provides identity store backends that resolve a username
// to a principal and read its profile attributes.
//
// Four backends implement IdentityStore: in-memory, a JSON file, PostgreSQL
// (pgx) and Redis (redigo). Pick one with NewIdentityRepository:
//
//	store, err := identity.NewIdentityRepository("postgres", identity.RepositoryConfig{DB: pool})
//
// Lookup wraps the two repository calls and folds their errors into a
// LookupResult, so callers switch on a status instead of inspecting errors:
//
//	result := identity.Lookup(ctx, store, "/", "bob", []string{"mail", "memberOf"})
//	switch result.Status {
//	case identity.LookupResolved:
//		mail := result.Values.Values("mail")
//	case identity.LookupNotFound:
//	case identity.LookupBackendError:
//		slog.Error("lookup failed", "err", result.Err)
//	}
//
// Attribute values have set semantics: duplicates and empty strings are
// dropped and value order carries no meaning.
package identity
