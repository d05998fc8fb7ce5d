package migrations

import (
	"encoding/json"

	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		jsonData := `{
			"id": "pbc_products",
			"name": "products",
			"type": "base",
			"system": false,
			"listRule": "",
			"viewRule": "",
			"createRule": null,
			"updateRule": null,
			"deleteRule": null,
			"fields": [
				{
					"type": "text",
					"id": "text_prod_name",
					"name": "name",
					"required": true,
					"max": 255
				},
				{
					"type": "text",
					"id": "text_prod_desc",
					"name": "description",
					"required": false,
					"max": 2000
				},
				{
					"type": "number",
					"id": "num_prod_price",
					"name": "price_cents",
					"required": true,
					"min": 0,
					"onlyInt": true
				},
				{
					"type": "number",
					"id": "num_prod_stock",
					"name": "stock",
					"required": false,
					"min": 0,
					"onlyInt": true
				},
				{
					"type": "url",
					"id": "url_prod_image",
					"name": "image_url",
					"required": false
				},
				{
					"type": "select",
					"id": "sel_prod_status",
					"name": "status",
					"required": true,
					"maxSelect": 1,
					"values": ["draft", "published", "archived"]
				},
				{
					"type": "autodate",
					"id": "autodate_prod_created",
					"name": "created",
					"onCreate": true,
					"onUpdate": false
				},
				{
					"type": "autodate",
					"id": "autodate_prod_updated",
					"name": "updated",
					"onCreate": true,
					"onUpdate": true
				}
			],
			"indexes": [
				"CREATE INDEX idx_products_status ON products (status)"
			]
		}`

		collection := &core.Collection{}
		if err := json.Unmarshal([]byte(jsonData), &collection); err != nil {
			return err
		}

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("pbc_products")
		if err != nil {
			return err
		}

		return app.Delete(collection)
	})
}
