package main

import (
	"log"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"github.com/KevinVandy/pointmystory-sub000/internal/config"
	"github.com/KevinVandy/pointmystory-sub000/internal/handlers"
	"github.com/KevinVandy/pointmystory-sub000/internal/security"
	"github.com/KevinVandy/pointmystory-sub000/internal/services"
	_ "github.com/KevinVandy/pointmystory-sub000/pb_migrations"
)

func main() {
	pb := pocketbase.New()

	cfg := config.Load()

	metrics := services.NewMetrics()
	hub := services.NewHub(metrics)
	go hub.Run()

	scheduler := services.NewAsyncScheduler()
	rooms := services.NewRoomService(pb, scheduler)
	rounds := services.NewRoundService(pb, scheduler)
	participants := services.NewParticipantService(pb)

	// Scheduled mutations (auto-reveal, demo auto-close) commit outside a
	// request, so the services push their own invalidations.
	rooms.OnChange(hub.RoomChanged)
	rounds.OnChange(hub.RoomChanged)

	originValidator := security.NewOriginValidator(cfg.AllowedOrigins)

	pb.OnServe().BindFunc(func(se *core.ServeEvent) error {
		se.Router.Bind(security.AuthCookieMiddleware())

		handlers.NewRoomHandlers(rooms, hub).Register(se)
		handlers.NewRoundHandlers(rounds, hub, cfg).Register(se)
		handlers.NewParticipantHandlers(participants, hub).Register(se)
		handlers.NewWSHandler(hub, rooms, originValidator).Register(se)

		se.Router.GET("/api/metrics", handlers.HandleMetrics(metrics))
		se.Router.GET("/api/health", handlers.HandleHealth(metrics))

		return se.Next()
	})

	// Backstop for demo rooms whose in-process close timer was lost to a
	// restart.
	pb.Cron().MustAdd("demoRoomSweep", "* * * * *", func() {
		if err := rooms.CloseOverdueDemoRooms(); err != nil {
			log.Printf("demo room sweep: %v", err)
		}
	})

	if err := pb.Start(); err != nil {
		log.Fatal(err)
	}
}
