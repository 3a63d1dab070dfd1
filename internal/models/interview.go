// internal/models/interview.go
package models

import (
	"fmt"
	"time"
)

// Interview statuses.
const (
	InterviewScheduled = "Scheduled"
	InterviewCompleted = "Completed"
	InterviewCancelled = "Cancelled"
)

// ParticipantRole tags which side of the interview a participant is on.
type ParticipantRole string

const (
	RoleJobSeeker ParticipantRole = "JobSeeker"
	RoleRecruiter ParticipantRole = "Recruiter"
)

type Participant struct {
	UserID     string          `json:"userId"`
	Name       string          `json:"name"`
	ProfilePic string          `json:"profilePic,omitempty"`
	Role       ParticipantRole `json:"role"`
}

// ParticipantPair fixes the two-participant shape of an interview in the
// type system instead of a runtime length check. Exactly one job seeker
// and exactly one recruiter, resolved by role tag, never by position.
type ParticipantPair struct {
	JobSeeker Participant `json:"jobSeeker"`
	Recruiter Participant `json:"recruiter"`
}

// PairFromList builds a ParticipantPair from a tagged participant list.
// The list must contain exactly one participant per role.
func PairFromList(list []Participant) (ParticipantPair, error) {
	var pair ParticipantPair
	if len(list) != 2 {
		return pair, fmt.Errorf("expected exactly 2 participants, got %d", len(list))
	}
	var haveSeeker, haveRecruiter bool
	for _, p := range list {
		switch p.Role {
		case RoleJobSeeker:
			if haveSeeker {
				return pair, fmt.Errorf("duplicate %s participant", RoleJobSeeker)
			}
			pair.JobSeeker = p
			haveSeeker = true
		case RoleRecruiter:
			if haveRecruiter {
				return pair, fmt.Errorf("duplicate %s participant", RoleRecruiter)
			}
			pair.Recruiter = p
			haveRecruiter = true
		default:
			return pair, fmt.Errorf("unknown participant role %q", p.Role)
		}
	}
	if !haveSeeker || !haveRecruiter {
		return pair, fmt.Errorf("participants must include one %s and one %s", RoleJobSeeker, RoleRecruiter)
	}
	return pair, nil
}

// List returns the pair in wire order (job seeker first).
func (p ParticipantPair) List() []Participant {
	return []Participant{p.JobSeeker, p.Recruiter}
}

type Interview struct {
	ID            string          `json:"id"`
	JobListingID  string          `json:"jobListingId"`
	ApplicantID   string          `json:"applicantId"`
	Participants  ParticipantPair `json:"participants"`
	ScheduledTime time.Time       `json:"scheduledTime"`
	MeetingLink   string          `json:"meetingLink,omitempty"`
	Status        string          `json:"status"`
	CreatedAt     time.Time       `json:"createdAt,omitempty"`
}
