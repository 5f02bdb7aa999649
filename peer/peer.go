// Package peer implements the org.freedesktop.DBus.Peer interface as a
// pure function, consumed by the connection engine's inbound dispatcher
// (spec.md §4.3). Grounded on the inline Peer handling in the teacher's
// export.go, pulled out into its own collaborator per spec.md §9.
package peer

// Handle answers a Peer method call. ok is false if member is not a Peer
// method the engine should delegate elsewhere (there is none to delegate
// to — Peer is fully specified — but the shape matches the other
// collaborators for consistency).
func Handle(member string, machineID string) (values []interface{}, ok bool) {
	switch member {
	case "Ping":
		return nil, true
	case "GetMachineId":
		return []interface{}{machineID}, true
	}
	return nil, false
}
