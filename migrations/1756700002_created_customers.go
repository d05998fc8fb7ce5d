package migrations

import (
	"encoding/json"

	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		jsonData := `{
			"id": "pbc_customers",
			"name": "customers",
			"type": "base",
			"system": false,
			"listRule": null,
			"viewRule": null,
			"createRule": null,
			"updateRule": null,
			"deleteRule": null,
			"fields": [
				{
					"type": "text",
					"id": "text_cust_name",
					"name": "full_name",
					"required": true,
					"max": 255
				},
				{
					"type": "email",
					"id": "email_cust_email",
					"name": "email",
					"required": true
				},
				{
					"type": "text",
					"id": "text_cust_phone",
					"name": "phone",
					"required": false,
					"max": 32
				},
				{
					"type": "autodate",
					"id": "autodate_cust_created",
					"name": "created",
					"onCreate": true,
					"onUpdate": false
				},
				{
					"type": "autodate",
					"id": "autodate_cust_updated",
					"name": "updated",
					"onCreate": true,
					"onUpdate": true
				}
			],
			"indexes": [
				"CREATE INDEX idx_customers_email ON customers (email)"
			]
		}`

		collection := &core.Collection{}
		if err := json.Unmarshal([]byte(jsonData), &collection); err != nil {
			return err
		}

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("pbc_customers")
		if err != nil {
			return err
		}

		return app.Delete(collection)
	})
}
