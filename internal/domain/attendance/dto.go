package attendance

import (
	"encoding/json"
	"mime/multipart"
	"strings"

	"github.com/attendly-hr/attendly-backend-go/internal/pkg/validator"
)

type PunchInRequest struct {
	Latitude   float64         `json:"latitude"`
	Longitude  float64         `json:"longitude"`
	Address    *string         `json:"address,omitempty"`
	Mode       *string         `json:"mode,omitempty"`
	Descriptor json.RawMessage `json:"descriptor"`

	Photo       multipart.File        `json:"-"`
	PhotoHeader *multipart.FileHeader `json:"-"`
}

func (r *PunchInRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.Latitude < -90 || r.Latitude > 90 {
		errs = append(errs, validator.ValidationError{
			Field:   "latitude",
			Message: "latitude must be between -90 and 90",
		})
	}
	if r.Longitude < -180 || r.Longitude > 180 {
		errs = append(errs, validator.ValidationError{
			Field:   "longitude",
			Message: "longitude must be between -180 and 180",
		})
	}

	if len(r.Descriptor) == 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "descriptor",
			Message: "face descriptor is required",
		})
	}

	if r.Mode != nil && !validator.IsInSlice(*r.Mode, []string{string(ModeOffice), string(ModeWFH)}) {
		errs = append(errs, validator.ValidationError{
			Field:   "mode",
			Message: "mode must be one of: office, wfh",
		})
	}

	if r.PhotoHeader != nil {
		filename := r.PhotoHeader.Filename
		idx := strings.LastIndex(filename, ".")
		ext := ""
		if idx >= 0 {
			ext = strings.ToLower(filename[idx:])
		}
		if ext != ".jpg" && ext != ".jpeg" && ext != ".png" {
			errs = append(errs, validator.ValidationError{
				Field:   "photo",
				Message: "invalid file type: only jpg, jpeg, png allowed",
			})
		} else if r.PhotoHeader.Size > 10<<20 {
			errs = append(errs, validator.ValidationError{
				Field:   "photo",
				Message: "punch photo size must not exceed 10MB",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type PunchOutRequest struct {
	DailyReport string          `json:"daily_report"`
	Descriptor  json.RawMessage `json:"descriptor,omitempty"`

	Photo       multipart.File        `json:"-"`
	PhotoHeader *multipart.FileHeader `json:"-"`
}

// Validate checks shape only. The mandatory 5-character report rule belongs to
// the service, which returns ErrReportRequired so the caller gets a typed reason.
func (r *PunchOutRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.PhotoHeader != nil && r.PhotoHeader.Size > 10<<20 {
		errs = append(errs, validator.ValidationError{
			Field:   "photo",
			Message: "punch photo size must not exceed 10MB",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type ManualEntryRequest struct {
	UserID  string  `json:"user_id"`
	Date    string  `json:"date"`
	Status  string  `json:"status"`
	Mode    *string `json:"mode,omitempty"`
	Remarks *string `json:"remarks,omitempty"`
}

func (r *ManualEntryRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.UserID) {
		errs = append(errs, validator.ValidationError{
			Field:   "user_id",
			Message: "user_id is required",
		})
	}

	if _, ok := validator.IsValidDate(r.Date); !ok {
		errs = append(errs, validator.ValidationError{
			Field:   "date",
			Message: "date must be in YYYY-MM-DD format",
		})
	}

	allowed := []string{
		string(StatusPresent), string(StatusCompleted), string(StatusHalfDay),
		string(StatusAbsent), string(StatusOnLeave), string(StatusHoliday),
	}
	if !validator.IsInSlice(r.Status, allowed) {
		errs = append(errs, validator.ValidationError{
			Field:   "status",
			Message: "status must be one of: present, completed, half_day, absent, on_leave, holiday",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type Filter struct {
	UserID    *string
	UserName  *string
	Date      *string
	StartDate *string
	EndDate   *string
	Status    *string
	SortBy    string
	SortOrder string
	Page      int
	Limit     int
}

type MyFilter struct {
	Date      *string
	StartDate *string
	EndDate   *string
	Status    *string
	SortBy    string
	SortOrder string
	Page      int
	Limit     int
}

type AttendanceResponse struct {
	ID                string   `json:"id"`
	UserID            string   `json:"user_id"`
	UserName          *string  `json:"user_name,omitempty"`
	Date              string   `json:"date"`
	PunchInTime       *string  `json:"punch_in_time"`
	PunchOutTime      *string  `json:"punch_out_time"`
	TotalBreakMinutes int      `json:"total_break_minutes"`
	NetWorkHours      float64  `json:"net_work_hours"`
	Status            string   `json:"status"`
	Mode              string   `json:"mode"`
	Source            string   `json:"source"`
	FaceMatched       bool     `json:"face_matched"`
	Latitude          *float64 `json:"latitude,omitempty"`
	Longitude         *float64 `json:"longitude,omitempty"`
	Address           *string  `json:"address,omitempty"`
	InImage           *string  `json:"in_image,omitempty"`
	OutImage          *string  `json:"out_image,omitempty"`
	IsManualEntry     bool     `json:"is_manual_entry"`
	Remarks           *string  `json:"remarks,omitempty"`
}

type ListAttendanceResponse struct {
	TotalCount  int64                `json:"total_count"`
	Page        int                  `json:"page"`
	Limit       int                  `json:"limit"`
	TotalPages  int                  `json:"total_pages"`
	Attendances []AttendanceResponse `json:"attendances"`
}
