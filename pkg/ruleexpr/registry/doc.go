// Package registry provides a thread-safe, insertion-ordered registry of
// values indexed by key.
//
// Rule sets keep their actions in a Registry: Add rejects duplicate names,
// Keys and Range visit entries in the order they were added, and Clone
// gives a compiled rule set its own copy that later builder calls cannot
// change.
//
//	actions := registry.New[string, ActionFunc]()
//	if err := actions.Add("page", page); err != nil {
//	    // errors.Is(err, registry.ErrDuplicate)
//	}
//
//	fn, ok := actions.Get("page")
//
// All methods are safe for concurrent use.
package registry
