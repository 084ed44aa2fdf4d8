// Package domain holds the ActiveSync core's data model: principals, devices,
// collections, sync state and the item projection consumed by WBXML encoding.
package domain

// Principal is the authenticated mailbox owner for a request. It is created
// by the external auth collaborator and is immutable for the lifetime of the
// request that carries it.
type Principal struct {
	ID    int64
	Email string
}
