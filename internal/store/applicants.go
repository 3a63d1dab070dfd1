// internal/store/applicants.go
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"careeragent-workers/internal/models"
)

const applicantColumns = `
	a.id, a.name, a.email, COALESCE(a.phone, ''), a.status,
	a.job_id, a.recruiter_id, a.job_seeker_id, COALESCE(a.job_title, ''),
	COALESCE(a.interview_id, ''), a.applied_at,
	l.job_role, l.company, COALESCE(l.location, ''), COALESCE(l.company_website, ''),
	l.recruiter_id, COALESCE(l.recruiter_name, ''), l.status`

func scanApplicant(row interface{ Scan(...interface{}) error }) (*models.Applicant, error) {
	var a models.Applicant
	var listing models.JobListing
	var appliedAt time.Time

	err := row.Scan(
		&a.ID, &a.Name, &a.Email, &a.Phone, &a.Status,
		&a.JobID, &a.RecruiterID, &a.JobSeekerID, &a.JobTitle,
		&a.InterviewID, &appliedAt,
		&listing.JobRole, &listing.Company, &listing.Location, &listing.CompanyWebsite,
		&listing.RecruiterID, &listing.RecruiterName, &listing.Status,
	)
	if err != nil {
		return nil, err
	}

	a.AppliedAt = appliedAt.UTC().Format(time.RFC3339)
	listing.ID = a.JobID
	a.JobListing = &listing
	return &a, nil
}

// GetApplicant fetches one applicant with its job listing populated.
func (s *Store) GetApplicant(ctx context.Context, id string) (*models.Applicant, error) {
	query := `
		SELECT ` + applicantColumns + `
		FROM applicants a
		JOIN job_listings l ON l.id = a.job_id
		WHERE a.id = $1`

	a, err := scanApplicant(s.q.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get applicant %s: %w", id, err)
	}
	return a, nil
}

// ListActiveSiblings returns all applicants for jobID, excluding excludeID and
// anyone already Rejected. Used by the hire cascade.
func (s *Store) ListActiveSiblings(ctx context.Context, jobID, excludeID string) ([]models.Applicant, error) {
	query := `
		SELECT ` + applicantColumns + `
		FROM applicants a
		JOIN job_listings l ON l.id = a.job_id
		WHERE a.job_id = $1 AND a.id <> $2 AND a.status <> $3
		ORDER BY a.applied_at`

	rows, err := s.q.QueryContext(ctx, query, jobID, excludeID, models.StatusRejected)
	if err != nil {
		return nil, fmt.Errorf("list siblings for job %s: %w", jobID, err)
	}
	defer rows.Close()

	var out []models.Applicant
	for rows.Next() {
		a, err := scanApplicant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sibling: %w", err)
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// UpdateApplicantStatus sets the status and interview link in one statement.
// An empty interviewID clears the link.
func (s *Store) UpdateApplicantStatus(ctx context.Context, id, status, interviewID string) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE applicants SET status = $2, interview_id = NULLIF($3, ''), updated_at = NOW() WHERE id = $1`,
		id, status, interviewID,
	)
	if err != nil {
		return fmt.Errorf("update applicant %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// RejectApplicant marks an applicant Rejected and clears any interview link.
func (s *Store) RejectApplicant(ctx context.Context, id string) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE applicants SET status = $2, interview_id = NULL, updated_at = NOW() WHERE id = $1`,
		id, models.StatusRejected,
	)
	if err != nil {
		return fmt.Errorf("reject applicant %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// ApplicantExists reports whether the job seeker already applied to the listing.
func (s *Store) ApplicantExists(ctx context.Context, jobID, jobSeekerID string) (bool, error) {
	var exists bool
	err := s.q.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM applicants WHERE job_id = $1 AND job_seeker_id = $2)`,
		jobID, jobSeekerID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check duplicate application: %w", err)
	}
	return exists, nil
}

// InsertApplicant creates a new applicant row.
func (s *Store) InsertApplicant(ctx context.Context, a *models.Applicant) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO applicants (id, name, email, phone, status, job_id, recruiter_id, job_seeker_id, job_title, applied_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8, NULLIF($9, ''), NOW())`,
		a.ID, a.Name, a.Email, a.Phone, a.Status,
		a.JobID, a.RecruiterID, a.JobSeekerID, a.JobTitle,
	)
	if err != nil {
		return fmt.Errorf("insert applicant: %w", err)
	}
	return nil
}

// GetJobListing fetches one job listing.
func (s *Store) GetJobListing(ctx context.Context, id string) (*models.JobListing, error) {
	var l models.JobListing
	err := s.q.QueryRowContext(ctx, `
		SELECT id, job_role, company, COALESCE(location, ''), COALESCE(company_website, ''),
		       recruiter_id, COALESCE(recruiter_name, ''), status
		FROM job_listings WHERE id = $1`, id,
	).Scan(&l.ID, &l.JobRole, &l.Company, &l.Location, &l.CompanyWebsite,
		&l.RecruiterID, &l.RecruiterName, &l.Status)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job listing %s: %w", id, err)
	}
	return &l, nil
}
