package pbs

import "context"

// Adapter connects the auction to one demand partner. An adapter translates
// the validated ad unit batch for its bidder into the partner's native
// protocol, and turns the partner's response into a PBSBidSlice ordered the
// same way as the ad units it was given.
type Adapter interface {
	Name() string
	// FamilyName identifies the space of cookies which this adapter accesses.
	FamilyName() string
	// Determines whether this adapter should get callouts if there is not a synched user ID
	SkipNoCookies() bool
	GetUsersyncInfo() *UsersyncInfo
	Call(ctx context.Context, req *PBSRequest, bidder *PBSBidder) (PBSBidSlice, error)
}
