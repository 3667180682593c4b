package migration

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	apikeydomain "github.com/smallbiznis/peoplehub/internal/apikey/domain"
	auditdomain "github.com/smallbiznis/peoplehub/internal/audit/domain"
	letterdomain "github.com/smallbiznis/peoplehub/internal/letter/domain"
	organizationdomain "github.com/smallbiznis/peoplehub/internal/organization/domain"
	recruitmentdomain "github.com/smallbiznis/peoplehub/internal/recruitment/domain"
	salarydomain "github.com/smallbiznis/peoplehub/internal/salary/domain"
	"gorm.io/gorm"
)

const migrationsDir = "sql"

//go:embed sql/*.sql
var embeddedMigrations embed.FS

// RunMigrations applies the embedded postgres migrations.
func RunMigrations(db *sql.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}

	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// Do not call migrator.Close here because it would close the shared *sql.DB.

	return nil
}

// Models lists every table the service owns, in dependency order.
func Models() []any {
	return []any{
		&organizationdomain.Organization{},
		&organizationdomain.OrganizationMember{},
		&apikeydomain.APIKey{},
		&auditdomain.AuditLog{},
		&recruitmentdomain.Job{},
		&recruitmentdomain.Candidate{},
		&recruitmentdomain.Application{},
		&recruitmentdomain.StatusHistory{},
		&recruitmentdomain.Interview{},
		&recruitmentdomain.Offer{},
		&recruitmentdomain.Employee{},
		&salarydomain.SalaryStructure{},
		&letterdomain.LetterTemplate{},
		&letterdomain.GeneratedLetter{},
	}
}

// AutoMigrate builds the schema from the models. Used for sqlite and mysql,
// which the embedded SQL does not target.
func AutoMigrate(conn *gorm.DB) error {
	if conn == nil {
		return errors.New("migration database handle is required")
	}
	return conn.AutoMigrate(Models()...)
}
