package dbus

import "context"

// Name-acquisition reply codes returned by RequestName (spec.md §4.4).
const (
	RequestNameReplyPrimaryOwner = uint32(1)
	RequestNameReplyInQueue      = uint32(2)
	RequestNameReplyExists       = uint32(3)
	RequestNameReplyAlreadyOwner = uint32(4)
)

// ReleaseName reply codes (spec.md §4.4).
const (
	ReleaseNameReplyReleased    = uint32(1)
	ReleaseNameReplyNonExistent = uint32(2)
	ReleaseNameReplyNotOwner    = uint32(3)
)

// RequestName flag bits accepted by RequestName.
const (
	NameFlagAllowReplacement = uint32(1) << 0
	NameFlagReplaceExisting  = uint32(1) << 1
	NameFlagDoNotQueue       = uint32(1) << 2
)

// RequestName asks the bus to assign the well-known name to this
// connection, per the flag semantics in spec.md §4.4. On
// RequestNameReplyPrimaryOwner or RequestNameReplyAlreadyOwner, name is
// added to OwnedNames and a value is published on NameAcquired once the
// bus's own NameAcquired signal arrives.
func (c *Connection) RequestName(ctx context.Context, name string, flags uint32) (uint32, error) {
	var reply uint32
	err := c.CallMethod(ctx, busName, busPath, busName, "RequestName", []interface{}{name, flags}, &reply)
	if err != nil {
		return 0, err
	}
	return reply, nil
}

// ReleaseName asks the bus to give up ownership of name.
func (c *Connection) ReleaseName(ctx context.Context, name string) (uint32, error) {
	var reply uint32
	err := c.CallMethod(ctx, busName, busPath, busName, "ReleaseName", []interface{}{name}, &reply)
	if err != nil {
		return 0, err
	}
	return reply, nil
}

// ListNames returns the names currently registered on the bus.
func (c *Connection) ListNames(ctx context.Context) ([]string, error) {
	var names []string
	err := c.CallMethod(ctx, busName, busPath, busName, "ListNames", nil, &names)
	return names, err
}

// ListActivatableNames returns the names the bus can activate a service
// for on demand.
func (c *Connection) ListActivatableNames(ctx context.Context) ([]string, error) {
	var names []string
	err := c.CallMethod(ctx, busName, busPath, busName, "ListActivatableNames", nil, &names)
	return names, err
}

// NameHasOwner reports whether name currently has an owner.
func (c *Connection) NameHasOwner(ctx context.Context, name string) (bool, error) {
	var has bool
	err := c.CallMethod(ctx, busName, busPath, busName, "NameHasOwner", []interface{}{name}, &has)
	return has, err
}

// GetNameOwner returns the unique name currently owning the well-known
// name. Also primes the local name-owner cache used to resolve
// well-known-name sender filters on subscriptions.
func (c *Connection) GetNameOwner(ctx context.Context, name string) (string, error) {
	var owner string
	err := c.CallMethod(ctx, busName, busPath, busName, "GetNameOwner", []interface{}{name}, &owner)
	if err == nil {
		c.namesMu.Lock()
		c.nameOwners[name] = owner
		c.namesMu.Unlock()
	}
	return owner, err
}

// ListQueuedOwners returns the ordered queue of unique names waiting for
// ownership of name.
func (c *Connection) ListQueuedOwners(ctx context.Context, name string) ([]string, error) {
	var owners []string
	err := c.CallMethod(ctx, busName, busPath, busName, "ListQueuedOwners", []interface{}{name}, &owners)
	return owners, err
}

// GetId returns the bus daemon's own unique identifier string.
func (c *Connection) GetId(ctx context.Context) (string, error) {
	var id string
	err := c.CallMethod(ctx, busName, busPath, busName, "GetId", nil, &id)
	return id, err
}

// primeNameOwner resolves name's current owner into the cache so that a
// freshly installed sender filter doesn't have to wait for the next
// NameOwnerChanged signal to be able to match (spec.md §9 Open Question:
// resolved in favor of an eager GetNameOwner call, matching the common
// client pattern of watching a well-known name from the moment it
// subscribes). Called detached from the subscribing goroutine; GetNameOwner
// itself writes the result into the owner cache, so there's nothing further
// to do with its return value here.
func (c *Connection) primeNameOwner(ctx context.Context, name string) {
	c.GetNameOwner(ctx, name)
}

func (c *Connection) lookupOwner(name string) (string, bool) {
	c.namesMu.RLock()
	defer c.namesMu.RUnlock()
	owner, ok := c.nameOwners[name]
	return owner, ok
}

// handleNameAcquired updates owned-name bookkeeping and publishes name
// on the NameAcquired channel. Delivery is best-effort: a channel with
// no reader and a full buffer drops the notification rather than
// blocking the dispatcher (spec.md §4.4).
func (c *Connection) handleNameAcquired(name string) {
	c.namesMu.Lock()
	c.ownedNames[name] = struct{}{}
	c.nameOwners[name] = c.uniqueName
	c.namesMu.Unlock()
	select {
	case c.nameAcquiredCh <- name:
	default:
	}
}

// handleNameLost mirrors handleNameAcquired for name loss.
func (c *Connection) handleNameLost(name string) {
	c.namesMu.Lock()
	delete(c.ownedNames, name)
	delete(c.nameOwners, name)
	c.namesMu.Unlock()
	select {
	case c.nameLostCh <- name:
	default:
	}
}

// handleNameOwnerChanged keeps the name-owner cache current for
// subscriptions filtering on a well-known sender name.
func (c *Connection) handleNameOwnerChanged(name, oldOwner, newOwner string) {
	c.namesMu.Lock()
	defer c.namesMu.Unlock()
	if newOwner == "" {
		delete(c.nameOwners, name)
		return
	}
	c.nameOwners[name] = newOwner
}
