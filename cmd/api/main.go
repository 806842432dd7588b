package main

import (
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/attendly-hr/attendly-backend-go/internal/config"
	appHTTP "github.com/attendly-hr/attendly-backend-go/internal/handler/http"
	"github.com/attendly-hr/attendly-backend-go/internal/pkg/cron"
	"github.com/attendly-hr/attendly-backend-go/internal/pkg/database"
	"github.com/attendly-hr/attendly-backend-go/internal/pkg/facematch"
	"github.com/attendly-hr/attendly-backend-go/internal/pkg/jwt"
	"github.com/attendly-hr/attendly-backend-go/internal/pkg/storage"
	"github.com/attendly-hr/attendly-backend-go/internal/repository/postgresql"
	attendanceService "github.com/attendly-hr/attendly-backend-go/internal/service/attendance"
	"github.com/attendly-hr/attendly-backend-go/internal/service/file"
	leaveService "github.com/attendly-hr/attendly-backend-go/internal/service/leave"
	payrollService "github.com/attendly-hr/attendly-backend-go/internal/service/payroll"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		return
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	db, err := database.NewPostgreSQLDB(database.Config{
		DSN:      cfg.DatabaseURL(),
		MaxConns: int32(cfg.Database.MaxConns),
		MinConns: int32(cfg.Database.MinConns),
	})
	if err != nil {
		fmt.Println("Error connecting to database:", err)
		return
	}
	defer db.Close()

	userRepo := postgresql.NewUserRepository(db)
	companyRepo := postgresql.NewCompanyRepository(db)
	attendanceRepo := postgresql.NewAttendanceRepository(db)
	leaveRequestRepo := postgresql.NewLeaveRequestRepository(db)
	holidayRepo := postgresql.NewHolidayRepository(db)

	jwtService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)

	var fileStorage storage.FileStorage
	switch cfg.Storage.Type {
	case "local":
		fileStorage, err = storage.NewLocalStorage(
			cfg.Storage.BasePath,
			cfg.Storage.BaseURL,
		)
		if err != nil {
			log.Fatal("Failed to initialize local storage:", err)
		}
	default:
		log.Fatal("Unsupported storage type: ", cfg.Storage.Type)
	}

	matcher := facematch.NewMatcher(cfg.Face.CacheCapacity, cfg.Face.MatchThreshold)

	fileService := file.NewFileService(fileStorage, logger)
	attendanceSvc := attendanceService.NewAttendanceService(
		attendanceRepo,
		userRepo,
		companyRepo,
		matcher,
		fileService,
		logger,
	)
	leaveSvc := leaveService.NewLeaveService(
		db,
		leaveRequestRepo,
		attendanceRepo,
		companyRepo,
		logger,
	)
	payrollSvc := payrollService.NewPayrollService(
		attendanceRepo,
		holidayRepo,
		leaveRequestRepo,
		userRepo,
	)

	attendanceHandler := appHTTP.NewAttendanceHandler(attendanceSvc)
	leaveHandler := appHTTP.NewLeaveHandler(leaveSvc)
	payrollHandler := appHTTP.NewPayrollHandler(payrollSvc)

	router := appHTTP.NewRouter(
		cfg,
		jwtService,
		attendanceHandler,
		leaveHandler,
		payrollHandler,
	)

	scheduler := cron.NewScheduler()
	cron.NewAttendanceJobs(attendanceRepo, userRepo, companyRepo).RegisterJobs(scheduler)
	scheduler.Start()
	defer scheduler.Stop()

	port := fmt.Sprintf(":%d", cfg.App.Port)
	fmt.Printf("Server running at http://localhost%s\n", port)
	if err := http.ListenAndServe(port, router); err != nil {
		fmt.Println("Server error:", err)
	}
}
