// Package session runs watch sessions. A session plays one content item
// (or, for the embedded external player, a sequence of videos), interposes
// ads when the rate limit and campaign availability allow, and issues
// exactly one reward call per completed ad.
//
// Internal content:
//
//	Idle -> ContentPlaying -> AdPending -> AdPlaying -> AdSettling -> Idle
//
// External content (pre-roll):
//
//	Idle -> AdGate -> AdPlaying -> AdSettling -> ContentPlaying
//
// Any state may move to Closed. Closed is terminal.
package session

import "errors"

// State is a session lifecycle state.
type State string

const (
	StateIdle           State = "idle"
	StateContentPlaying State = "content_playing"
	StateAdPending      State = "ad_pending"
	StateAdGate         State = "ad_gate"
	StateAdPlaying      State = "ad_playing"
	StateAdSettling     State = "ad_settling"
	StateClosed         State = "closed"
)

// Kind is the player a session drives.
type Kind string

const (
	KindInternal Kind = "internal"
	KindExternal Kind = "external"
)

// AdPosition says whether the current ad runs before or after the content.
type AdPosition string

const (
	PreRoll  AdPosition = "pre_roll"
	PostRoll AdPosition = "post_roll"
)

// ReasonNoCampaign is the ad slot decision when the limits allow an ad but
// no campaign is eligible.
const ReasonNoCampaign = "no_eligible_campaign"

var (
	ErrNotFound        = errors.New("session not found")
	ErrClosed          = errors.New("session closed")
	ErrNotExternal     = errors.New("session does not use the external player")
	ErrBusy            = errors.New("session is not ready for the next video")
	ErrContentNotFound = errors.New("content not found")
	ErrMissingUser     = errors.New("user id required")
)
