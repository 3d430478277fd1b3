package migrations

import (
	"fmt"

	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		rooms, err := app.FindCollectionByNameOrId("rooms")
		if err != nil {
			return fmt.Errorf("failed to find rooms collection: %w", err)
		}

		rooms.Fields.Add(&core.BoolField{
			Name: "is_demo",
		})
		// Opaque bearer capability; holding it grants demo-room admin
		rooms.Fields.Add(&core.TextField{
			Name: "demo_session_id",
		})
		rooms.Fields.Add(&core.DateField{
			Name: "auto_close_at",
		})

		if err := app.Save(rooms); err != nil {
			return fmt.Errorf("failed to add demo fields to rooms: %w", err)
		}

		return nil
	}, func(app core.App) error {
		rooms, err := app.FindCollectionByNameOrId("rooms")
		if err != nil {
			return nil
		}

		for _, name := range []string{"is_demo", "demo_session_id", "auto_close_at"} {
			for i, field := range rooms.Fields {
				if field.GetName() == name {
					rooms.Fields = append(rooms.Fields[:i], rooms.Fields[i+1:]...)
					break
				}
			}
		}

		return app.Save(rooms)
	})
}
