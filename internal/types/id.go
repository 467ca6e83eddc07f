// README: Shared identifier type for owners and records.
package types

// ID is an opaque identifier. Owner IDs come from the identity provider; plan IDs are UUIDs.
type ID string

func (id ID) String() string { return string(id) }
