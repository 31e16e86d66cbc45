// Package sessiontoken provides a tree node that signs an HS256 session
// token from shared state, so attributes projected by earlier nodes end up
// in the session.
//
// The token carries the username as sub, the realm, and the configured
// claim keys under session_properties. It is written to transient state
// under TokenKey.
package sessiontoken
