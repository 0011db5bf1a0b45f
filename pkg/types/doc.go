// Package types defines the Store and Collection interfaces, the note, note
// type and deck entities, user-visible notices, and the standard errors shared
// by the propagation engines and the storage backends.
package types
