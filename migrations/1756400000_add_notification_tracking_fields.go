package migrations

import (
	"github.com/pocketbase/pocketbase/core"
)

func init() {
	core.AppMigrations.Register(func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("users")
		if err != nil {
			return err
		}

		// Add last_notification_check field
		collection.Fields.Add(&core.DateField{
			Id:   "usr_lastcheck",
			Name: "last_notification_check",
		})

		// Add telegram_chat_id field
		collection.Fields.Add(&core.NumberField{
			Id:      "usr_tgchat",
			Name:    "telegram_chat_id",
			OnlyInt: true,
		})

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("users")
		if err != nil {
			return err
		}

		collection.Fields.RemoveById("usr_lastcheck")
		collection.Fields.RemoveById("usr_tgchat")

		return app.Save(collection)
	})
}
