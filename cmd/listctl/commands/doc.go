// Package commands defines the listctl CLI.
//
// Commands
//
//   - login, register, logout, me   Manage the stored credential
//   - lists, show, create, rename, delete
//   - add, edit, toggle, rm, clear  Item operations on a list
//   - share-code, join, invite, unshare
//
// # Implementation
//
// The root command loads the YAML profile, builds one remote client with the
// stored credential and a collection cache over it before any subcommand
// runs. A 401 from the authority forgets the stored credential.
package commands
