// internal/store/interviews.go
package store

import (
	"context"
	"database/sql"
	"fmt"

	"careeragent-workers/internal/models"
)

// InsertInterview creates an interview row. The participant pair is
// denormalized into role-named columns, so an interview can never be stored
// with a missing side.
func (s *Store) InsertInterview(ctx context.Context, iv *models.Interview) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO interviews (
			id, job_listing_id, applicant_id,
			seeker_id, seeker_name, seeker_pic,
			recruiter_id, recruiter_name, recruiter_pic,
			scheduled_time, meeting_link, status, created_at
		) VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8, NULLIF($9, ''), $10, NULLIF($11, ''), $12, NOW())`,
		iv.ID, iv.JobListingID, iv.ApplicantID,
		iv.Participants.JobSeeker.UserID, iv.Participants.JobSeeker.Name, iv.Participants.JobSeeker.ProfilePic,
		iv.Participants.Recruiter.UserID, iv.Participants.Recruiter.Name, iv.Participants.Recruiter.ProfilePic,
		iv.ScheduledTime, iv.MeetingLink, iv.Status,
	)
	if err != nil {
		return fmt.Errorf("insert interview: %w", err)
	}
	return nil
}

// GetInterview fetches one interview.
func (s *Store) GetInterview(ctx context.Context, id string) (*models.Interview, error) {
	var iv models.Interview
	err := s.q.QueryRowContext(ctx, `
		SELECT id, job_listing_id, applicant_id,
		       seeker_id, seeker_name, COALESCE(seeker_pic, ''),
		       recruiter_id, recruiter_name, COALESCE(recruiter_pic, ''),
		       scheduled_time, COALESCE(meeting_link, ''), status, created_at
		FROM interviews WHERE id = $1`, id,
	).Scan(
		&iv.ID, &iv.JobListingID, &iv.ApplicantID,
		&iv.Participants.JobSeeker.UserID, &iv.Participants.JobSeeker.Name, &iv.Participants.JobSeeker.ProfilePic,
		&iv.Participants.Recruiter.UserID, &iv.Participants.Recruiter.Name, &iv.Participants.Recruiter.ProfilePic,
		&iv.ScheduledTime, &iv.MeetingLink, &iv.Status, &iv.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get interview %s: %w", id, err)
	}
	iv.Participants.JobSeeker.Role = models.RoleJobSeeker
	iv.Participants.Recruiter.Role = models.RoleRecruiter
	return &iv, nil
}

// DeleteInterview removes an interview row. Deleting an already-deleted
// interview is not an error; teardown has to be idempotent.
func (s *Store) DeleteInterview(ctx context.Context, id string) error {
	if _, err := s.q.ExecContext(ctx, `DELETE FROM interviews WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete interview %s: %w", id, err)
	}
	return nil
}
