// Package access decides which navigation sections an identity may see.
//
// The role gating is a single static table defined at construction. Both
// menu rendering and direct-navigation guards consult the same predicate
// (CanAccess), so there is no path to a gated section that the menu
// would not show. Queries are pure reads over the table plus the caller-
// supplied identity; the package never mutates session state.
package access
