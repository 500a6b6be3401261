package models

// InvitationCounts aggregates an event's invitations across the four RSVP
// buckets. Each bucket stays non-negative and the sum tracks the number of
// invitations issued for the event.
type InvitationCounts struct {
	Invited   int `json:"invited"`
	Attending int `json:"attending"`
	Maybe     int `json:"maybe"`
	Declined  int `json:"declined"`
}

// ApplyDelta returns the counts after moving one invitation from one bucket
// to another. A nil from represents first-time issuance. Decrements are
// clamped at zero so out-of-order replay can never drive a bucket negative.
// This is the only sanctioned way to mutate invitation counts; callers must
// serialize concurrent updates through the storage transaction.
func (c InvitationCounts) ApplyDelta(from *RsvpStatus, to RsvpStatus) InvitationCounts {
	next := c
	if from != nil {
		switch *from {
		case RsvpInvited:
			next.Invited = max(0, next.Invited-1)
		case RsvpAttending:
			next.Attending = max(0, next.Attending-1)
		case RsvpMaybe:
			next.Maybe = max(0, next.Maybe-1)
		case RsvpDeclined:
			next.Declined = max(0, next.Declined-1)
		}
	}

	switch to {
	case RsvpInvited:
		next.Invited++
	case RsvpAttending:
		next.Attending++
	case RsvpMaybe:
		next.Maybe++
	case RsvpDeclined:
		next.Declined++
	}

	return next
}

// Total returns the number of invitations represented by the counts.
func (c InvitationCounts) Total() int {
	return c.Invited + c.Attending + c.Maybe + c.Declined
}
