// Package testdb opens migrated in-memory sqlite databases and seeds the
// rows the booking use cases read.
package testdb

import (
	"strings"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	dbpkg "github.com/finzie/booking-coordinator/internal/db"
	"github.com/finzie/booking-coordinator/internal/models"
)

func Open(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_", "#", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{
		Logger:                                   gormLogger.Default.LogMode(gormLogger.Silent),
		TranslateError:                           true,
		DisableForeignKeyConstraintWhenMigrating: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := dbpkg.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// Fixture is one client form with a freelancer submission against it.
type Fixture struct {
	Client     models.Client
	Form       models.Form
	Freelancer models.Freelancer
	Submission models.Submission
}

// Seed creates a fixture whose submission is in status.
func Seed(t testing.TB, db *gorm.DB, status string, selected bool) Fixture {
	t.Helper()

	f := Fixture{
		Client:     models.Client{Name: "Acme Corp", Email: "hiring@acme.test"},
		Freelancer: models.Freelancer{Email: "dev@freelance.test", Name: "Dana Dev", CalendlyEventTypeURI: "https://api.calendly.com/event_types/DANA"},
	}
	if err := db.Create(&f.Client).Error; err != nil {
		t.Fatalf("seed client: %v", err)
	}
	f.Form = models.Form{ClientID: f.Client.ID, Title: "Go backend engineer"}
	if err := db.Create(&f.Form).Error; err != nil {
		t.Fatalf("seed form: %v", err)
	}
	if err := db.Create(&f.Freelancer).Error; err != nil {
		t.Fatalf("seed freelancer: %v", err)
	}
	f.Submission = models.Submission{
		FormID:     f.Form.ID,
		Email:      f.Freelancer.Email,
		Name:       f.Freelancer.Name,
		Status:     status,
		IsSelected: selected,
	}
	if err := db.Create(&f.Submission).Error; err != nil {
		t.Fatalf("seed submission: %v", err)
	}
	return f
}
