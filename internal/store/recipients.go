// internal/store/recipients.go
package store

import (
	"context"
	"database/sql"
	"fmt"

	"careeragent-workers/internal/models"
)

// GetJobSeeker fetches one job seeker with counters and preferences.
func (s *Store) GetJobSeeker(ctx context.Context, id string) (*models.JobSeeker, error) {
	var js models.JobSeeker
	err := s.q.QueryRowContext(ctx, `
		SELECT id, full_name, email, COALESCE(phone, ''), COALESCE(profile_pic, ''),
		       email_notifications_enabled,
		       num_of_applications_sent, num_of_reviewed_applications, num_of_interviews_scheduled
		FROM job_seekers WHERE id = $1`, id,
	).Scan(&js.ID, &js.FullName, &js.Email, &js.Phone, &js.ProfilePic,
		&js.EmailNotificationsEnabled,
		&js.NumOfApplicationsSent, &js.NumOfReviewedApplications, &js.NumOfInterviewsScheduled)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job seeker %s: %w", id, err)
	}
	return &js, nil
}

// GetRecruiter fetches one recruiter.
func (s *Store) GetRecruiter(ctx context.Context, id string) (*models.Recruiter, error) {
	var r models.Recruiter
	err := s.q.QueryRowContext(ctx, `
		SELECT id, full_name, email, COALESCE(company_name, ''), COALESCE(profile_pic, '')
		FROM recruiters WHERE id = $1`, id,
	).Scan(&r.ID, &r.FullName, &r.Email, &r.CompanyName, &r.ProfilePic)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get recruiter %s: %w", id, err)
	}
	return &r, nil
}

// Counter increments run as single UPDATE ... = ... + 1 statements so
// concurrent workers never lose an increment to a read-modify-write race.

func (s *Store) IncApplicationsSent(ctx context.Context, jobSeekerID string) error {
	return s.incCounter(ctx, jobSeekerID, `
		UPDATE job_seekers SET num_of_applications_sent = num_of_applications_sent + 1 WHERE id = $1`)
}

func (s *Store) IncReviewedApplications(ctx context.Context, jobSeekerID string) error {
	return s.incCounter(ctx, jobSeekerID, `
		UPDATE job_seekers SET num_of_reviewed_applications = num_of_reviewed_applications + 1 WHERE id = $1`)
}

func (s *Store) IncInterviewsScheduled(ctx context.Context, jobSeekerID string) error {
	return s.incCounter(ctx, jobSeekerID, `
		UPDATE job_seekers SET num_of_interviews_scheduled = num_of_interviews_scheduled + 1 WHERE id = $1`)
}

func (s *Store) incCounter(ctx context.Context, jobSeekerID, query string) error {
	res, err := s.q.ExecContext(ctx, query, jobSeekerID)
	if err != nil {
		return fmt.Errorf("increment counter for job seeker %s: %w", jobSeekerID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
