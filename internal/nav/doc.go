// Package nav implements the folder-navigation state machine: the current
// folder, a back-stack of visited folder ids, and the breadcrumb trail used
// for display and jump navigation.
//
// The state is mutated only through its transition methods and is not safe
// for concurrent use; the browser controller serializes access to it.
package nav
