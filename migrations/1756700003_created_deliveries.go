package migrations

import (
	"encoding/json"

	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		jsonData := `{
			"id": "pbc_deliveries",
			"name": "deliveries",
			"type": "base",
			"system": false,
			"listRule": null,
			"viewRule": null,
			"createRule": null,
			"updateRule": null,
			"deleteRule": null,
			"fields": [
				{
					"type": "relation",
					"id": "rel_del_customer",
					"name": "customer",
					"required": true,
					"collectionId": "pbc_customers",
					"cascadeDelete": false,
					"maxSelect": 1
				},
				{
					"type": "text",
					"id": "text_del_address",
					"name": "address",
					"required": true,
					"max": 500
				},
				{
					"type": "text",
					"id": "text_del_city",
					"name": "city",
					"required": true,
					"max": 120
				},
				{
					"type": "text",
					"id": "text_del_region",
					"name": "region",
					"required": false,
					"max": 120
				},
				{
					"type": "text",
					"id": "text_del_postal",
					"name": "postal_code",
					"required": false,
					"max": 20
				},
				{
					"type": "text",
					"id": "text_del_country",
					"name": "country",
					"required": true,
					"max": 2
				},
				{
					"type": "autodate",
					"id": "autodate_del_created",
					"name": "created",
					"onCreate": true,
					"onUpdate": false
				},
				{
					"type": "autodate",
					"id": "autodate_del_updated",
					"name": "updated",
					"onCreate": true,
					"onUpdate": true
				}
			]
		}`

		collection := &core.Collection{}
		if err := json.Unmarshal([]byte(jsonData), &collection); err != nil {
			return err
		}

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("pbc_deliveries")
		if err != nil {
			return err
		}

		return app.Delete(collection)
	})
}
