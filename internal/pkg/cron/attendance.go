package cron

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/attendly-hr/attendly-backend-go/internal/domain/attendance"
	"github.com/attendly-hr/attendly-backend-go/internal/domain/company"
	"github.com/attendly-hr/attendly-backend-go/internal/domain/user"
)

type AttendanceJobs struct {
	attendanceRepo attendance.AttendanceRepository
	userRepo       user.UserRepository
	companyRepo    company.CompanyRepository
}

func NewAttendanceJobs(
	attendanceRepo attendance.AttendanceRepository,
	userRepo user.UserRepository,
	companyRepo company.CompanyRepository,
) *AttendanceJobs {
	return &AttendanceJobs{
		attendanceRepo: attendanceRepo,
		userRepo:       userRepo,
		companyRepo:    companyRepo,
	}
}

func (j *AttendanceJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob("mark_absent_employees", 1*time.Hour, j.MarkAbsentEmployees)
}

// MarkAbsentEmployees backfills an Absent record for every active employee who
// has no record at all for yesterday (tenant-local). Existing records of any
// kind, including punched or reconciled days, are left untouched.
func (j *AttendanceJobs) MarkAbsentEmployees(ctx context.Context) error {
	// Only run at midnight (00:00-00:59 UTC)
	if time.Now().UTC().Hour() != 0 {
		return nil
	}

	slog.Info("Cron: Starting mark absent employees job")

	companyIDs, err := j.companyRepo.ListActiveIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list active companies: %w", err)
	}

	totalAbsent := 0

	for _, companyID := range companyIDs {
		comp, err := j.companyRepo.GetByID(ctx, companyID)
		if err != nil {
			slog.Error("Cron: Failed to get company", "company_id", companyID, "error", err)
			continue
		}

		users, err := j.userRepo.ListActiveByCompany(ctx, companyID)
		if err != nil {
			slog.Error("Cron: Failed to list users", "company_id", companyID, "error", err)
			continue
		}

		yesterdayStr := time.Now().In(comp.Location()).AddDate(0, 0, -1).Format("2006-01-02")

		for _, usr := range users {
			if usr.JoiningDate != nil && usr.JoiningDate.Format("2006-01-02") > yesterdayStr {
				continue
			}

			existing, err := j.attendanceRepo.GetByUserAndDate(ctx, usr.ID, yesterdayStr, companyID)
			if err != nil {
				slog.Error("Cron: Failed to check attendance", "user_id", usr.ID, "error", err)
				continue
			}
			if existing != nil {
				continue
			}

			_, err = j.attendanceRepo.Create(ctx, attendance.Attendance{
				UserID:    usr.ID,
				CompanyID: companyID,
				Date:      yesterdayStr,
				Status:    attendance.StatusAbsent,
				Mode:      attendance.ModeManual,
				Source:    attendance.SourceSystem,
			})
			if err != nil {
				// Another instance may have written the day between the read
				// and the insert; the unique index decides.
				if errors.Is(err, attendance.ErrAlreadyMarked) {
					continue
				}
				slog.Error("Cron: Failed to create absence", "user_id", usr.ID, "date", yesterdayStr, "error", err)
				continue
			}

			totalAbsent++
		}
	}

	slog.Info("Cron: Marked absent employees", "count", totalAbsent)
	return nil
}
