// Package authtree runs authentication trees: ordered nodes that share a
// key/value state for one request.
//
// A Node declares the shared state keys it reads (Inputs) and may write
// (Outputs), so a tree can be checked before it ever runs:
//
//	executor, err := authtree.NewTreeBuilder().
//		AddNode(profileNode).
//		AddNode(sessionNode).
//		BuildValidated([]string{authtree.UsernameKey, authtree.RealmKey})
//	if err != nil {
//		// a node needs a key nothing upstream provides
//	}
//
//	result := executor.Execute(ctx, authtree.Request{Username: "bob"}, nil)
//	if result.Error != nil {
//		// a node returned an error
//	}
//
// Nodes finish with an Action. Proceed returns the single success
// transition, OutcomeNext. Any other outcome, or EarlyReturn, stops the run.
//
// Values written by projecting nodes are Value: Scalar for one string and
// Sequence for more than one. They flatten to string and []string in
// Result.SharedState and in JSON.
package authtree
