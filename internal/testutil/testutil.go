package testutil

import (
	"testing"

	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tests"

	_ "github.com/KevinVandy/pointmystory-sub000/pb_migrations"
)

// NewTestApp creates a bootstrapped PocketBase test instance with the
// project schema applied. The blank pb_migrations import registers the
// schema migrations; the runner applies them on the fresh database.
func NewTestApp(t *testing.T) core.App {
	t.Helper()

	app, err := tests.NewTestApp(t.TempDir())
	if err != nil {
		t.Fatalf("create test app: %v", err)
	}
	t.Cleanup(app.Cleanup)

	runner := core.NewMigrationsRunner(app, core.AppMigrations)
	if _, err := runner.Up(); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}

	return app
}
