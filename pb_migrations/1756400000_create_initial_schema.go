package migrations

import (
	"fmt"

	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		// rooms collection (current_round_id is added after rounds exists)
		rooms := core.NewBaseCollection("rooms")
		rooms.ListRule = nil
		rooms.ViewRule = nil
		rooms.CreateRule = nil
		rooms.UpdateRule = nil
		rooms.DeleteRule = nil

		rooms.Fields.Add(&core.TextField{
			Name:     "name",
			Required: true,
			Max:      100,
		})
		rooms.Fields.Add(&core.TextField{
			Name:     "host_id",
			Required: true,
		})
		rooms.Fields.Add(&core.SelectField{
			Name:      "visibility",
			Required:  true,
			MaxSelect: 1,
			Values:    []string{"public", "private"},
		})
		rooms.Fields.Add(&core.SelectField{
			Name:      "point_scale_preset",
			Required:  true,
			MaxSelect: 1,
			Values:    []string{"fibonacci", "powers-of-two", "linear", "hybrid", "t-shirt", "custom"},
		})
		rooms.Fields.Add(&core.JSONField{
			Name:     "point_scale",
			Required: true,
			MaxSize:  2048,
		})
		rooms.Fields.Add(&core.NumberField{
			Name:     "timer_duration_seconds",
			Required: true,
		})
		rooms.Fields.Add(&core.BoolField{
			Name: "auto_start_timer",
		})
		rooms.Fields.Add(&core.BoolField{
			Name: "auto_reveal_votes",
		})
		rooms.Fields.Add(&core.SelectField{
			Name:      "status",
			Required:  true,
			MaxSelect: 1,
			Values:    []string{"open", "closed"},
		})
		rooms.Fields.Add(&core.TextField{
			Name: "current_story",
			Max:  500,
		})
		rooms.Fields.Add(&core.DateField{
			Name: "timer_started_at",
		})
		rooms.Fields.Add(&core.DateField{
			Name: "timer_ends_at",
		})
		rooms.Fields.Add(&core.TextField{
			Name: "organization_id",
		})
		rooms.Fields.Add(&core.AutodateField{
			Name:     "created",
			OnCreate: true,
		})
		rooms.Fields.Add(&core.AutodateField{
			Name:     "updated",
			OnCreate: true,
			OnUpdate: true,
		})

		if err := app.Save(rooms); err != nil {
			return fmt.Errorf("failed to create rooms collection: %w", err)
		}

		// rounds collection
		rounds := core.NewBaseCollection("rounds")
		rounds.ListRule = nil
		rounds.ViewRule = nil
		rounds.CreateRule = nil
		rounds.UpdateRule = nil
		rounds.DeleteRule = nil

		rounds.Fields.Add(&core.RelationField{
			Name:          "room_id",
			Required:      true,
			MaxSelect:     1,
			CollectionId:  rooms.Id,
			CascadeDelete: true,
		})
		rounds.Fields.Add(&core.TextField{
			Name: "name",
			Max:  200,
		})
		rounds.Fields.Add(&core.TextField{
			Name: "ticket_number",
			Max:  100,
		})
		rounds.Fields.Add(&core.BoolField{
			Name: "is_revealed",
		})
		rounds.Fields.Add(&core.DateField{
			Name: "revealed_at",
		})
		rounds.Fields.Add(&core.NumberField{
			Name: "average_score",
		})
		rounds.Fields.Add(&core.NumberField{
			Name: "median_score",
		})
		// Number columns cannot persist "no value" distinctly from zero, so
		// score presence is tracked separately.
		rounds.Fields.Add(&core.BoolField{
			Name: "has_scores",
		})
		rounds.Fields.Add(&core.NumberField{
			Name: "unsure_count",
		})
		rounds.Fields.Add(&core.TextField{
			Name: "final_score",
			Max:  50,
		})
		rounds.Fields.Add(&core.AutodateField{
			Name:     "created",
			OnCreate: true,
		})

		rounds.Indexes = []string{
			"CREATE INDEX idx_rounds_room ON rounds(room_id)",
		}

		if err := app.Save(rounds); err != nil {
			return fmt.Errorf("failed to create rounds collection: %w", err)
		}

		// rooms.current_round_id (added once rounds exists)
		rooms.Fields.Add(&core.RelationField{
			Name:          "current_round_id",
			Required:      false,
			MaxSelect:     1,
			CollectionId:  rounds.Id,
			CascadeDelete: false,
		})
		if err := app.Save(rooms); err != nil {
			return fmt.Errorf("failed to add current_round_id to rooms: %w", err)
		}

		// participants collection
		participants := core.NewBaseCollection("participants")
		participants.ListRule = nil
		participants.ViewRule = nil
		participants.CreateRule = nil
		participants.UpdateRule = nil
		participants.DeleteRule = nil

		participants.Fields.Add(&core.RelationField{
			Name:          "room_id",
			Required:      true,
			MaxSelect:     1,
			CollectionId:  rooms.Id,
			CascadeDelete: true,
		})
		participants.Fields.Add(&core.TextField{
			Name:     "user_id",
			Required: true,
		})
		participants.Fields.Add(&core.TextField{
			Name:     "name",
			Required: true,
			Max:      50,
		})
		participants.Fields.Add(&core.TextField{
			Name: "avatar_url",
			Max:  500,
		})
		participants.Fields.Add(&core.SelectField{
			Name:      "role",
			Required:  true,
			MaxSelect: 1,
			Values:    []string{"admin", "team"},
		})
		participants.Fields.Add(&core.SelectField{
			Name:      "participant_type",
			Required:  true,
			MaxSelect: 1,
			Values:    []string{"voter", "observer"},
		})
		participants.Fields.Add(&core.DateField{
			Name:     "joined_at",
			Required: true,
		})

		participants.Indexes = []string{
			"CREATE INDEX idx_participants_room ON participants(room_id)",
			"CREATE UNIQUE INDEX idx_participants_room_user ON participants(room_id, user_id)",
		}

		if err := app.Save(participants); err != nil {
			return fmt.Errorf("failed to create participants collection: %w", err)
		}

		// votes collection
		votes := core.NewBaseCollection("votes")
		votes.ListRule = nil
		votes.ViewRule = nil
		votes.CreateRule = nil
		votes.UpdateRule = nil
		votes.DeleteRule = nil

		votes.Fields.Add(&core.RelationField{
			Name:          "room_id",
			Required:      true,
			MaxSelect:     1,
			CollectionId:  rooms.Id,
			CascadeDelete: true,
		})
		votes.Fields.Add(&core.RelationField{
			Name:          "round_id",
			Required:      true,
			MaxSelect:     1,
			CollectionId:  rounds.Id,
			CascadeDelete: true,
		})
		votes.Fields.Add(&core.RelationField{
			Name:          "participant_id",
			Required:      true,
			MaxSelect:     1,
			CollectionId:  participants.Id,
			CascadeDelete: true,
		})
		votes.Fields.Add(&core.TextField{
			Name:     "value",
			Required: true,
			Max:      50,
		})
		votes.Fields.Add(&core.DateField{
			Name:     "voted_at",
			Required: true,
		})

		votes.Indexes = []string{
			"CREATE INDEX idx_votes_round ON votes(round_id)",
			"CREATE UNIQUE INDEX idx_votes_round_participant ON votes(round_id, participant_id)",
		}

		if err := app.Save(votes); err != nil {
			return fmt.Errorf("failed to create votes collection: %w", err)
		}

		return nil
	}, func(app core.App) error {
		// Down migration - drop in reverse dependency order
		for _, name := range []string{"votes", "participants", "rounds", "rooms"} {
			collection, err := app.FindCollectionByNameOrId(name)
			if err != nil {
				continue
			}
			if err := app.Delete(collection); err != nil {
				return err
			}
		}
		return nil
	})
}
