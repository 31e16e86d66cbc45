// Package profileproperty provides the authentication tree node that copies
// profile attributes of the authenticated user into shared state.
//
// The node reads the username from shared state, resolves it in the
// identity store, fetches every configured attribute in one call and writes
// each attribute that has a value under its destination key. One value is
// written as a scalar string and several as a sequence. Attributes without a
// value leave their key untouched.
//
// The node always proceeds. An unknown user, a failing identity store, or a
// failed write degrades to fewer attributes in shared state; none of them
// stops the tree.
//
//	cfg, err := profileproperty.NewConfig("/", map[string]string{
//		"mail":     "email",
//		"memberOf": "groups",
//	})
//	node, err := profileproperty.NewNode(cfg, store)
//
// Two attributes may not share a destination key; NewConfig and
// LoadConfigFile reject such configurations.
package profileproperty
