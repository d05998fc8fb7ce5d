package migrations

import (
	"encoding/json"

	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		jsonData := `{
			"id": "pbc_transactions",
			"name": "transactions",
			"type": "base",
			"system": false,
			"listRule": null,
			"viewRule": null,
			"createRule": null,
			"updateRule": null,
			"deleteRule": null,
			"fields": [
				{
					"type": "select",
					"id": "sel_txn_status",
					"name": "status",
					"required": true,
					"maxSelect": 1,
					"values": ["PENDING", "APPROVED", "DECLINED", "VOIDED", "ERROR"]
				},
				{
					"type": "relation",
					"id": "rel_txn_product",
					"name": "product",
					"required": true,
					"collectionId": "pbc_products",
					"cascadeDelete": false,
					"maxSelect": 1
				},
				{
					"type": "relation",
					"id": "rel_txn_customer",
					"name": "customer",
					"required": true,
					"collectionId": "pbc_customers",
					"cascadeDelete": false,
					"maxSelect": 1
				},
				{
					"type": "relation",
					"id": "rel_txn_delivery",
					"name": "delivery",
					"required": true,
					"collectionId": "pbc_deliveries",
					"cascadeDelete": false,
					"maxSelect": 1
				},
				{
					"type": "number",
					"id": "num_txn_quantity",
					"name": "quantity",
					"required": true,
					"min": 1,
					"onlyInt": true
				},
				{
					"type": "number",
					"id": "num_txn_installments",
					"name": "installments",
					"required": false,
					"min": 0,
					"onlyInt": true
				},
				{
					"type": "number",
					"id": "num_txn_product_amount",
					"name": "product_amount",
					"required": true,
					"min": 0,
					"onlyInt": true
				},
				{
					"type": "number",
					"id": "num_txn_base_fee",
					"name": "base_fee",
					"required": false,
					"min": 0,
					"onlyInt": true
				},
				{
					"type": "number",
					"id": "num_txn_delivery_fee",
					"name": "delivery_fee",
					"required": false,
					"min": 0,
					"onlyInt": true
				},
				{
					"type": "number",
					"id": "num_txn_total_amount",
					"name": "total_amount",
					"required": true,
					"min": 0,
					"onlyInt": true
				},
				{
					"type": "text",
					"id": "text_txn_gateway_id",
					"name": "gateway_txn_id",
					"required": false,
					"max": 255
				},
				{
					"type": "text",
					"id": "text_txn_gateway_ref",
					"name": "gateway_ref",
					"required": false,
					"max": 255
				},
				{
					"type": "text",
					"id": "text_txn_error",
					"name": "error_message",
					"required": false,
					"max": 1000
				},
				{
					"type": "autodate",
					"id": "autodate_txn_created",
					"name": "created",
					"onCreate": true,
					"onUpdate": false
				},
				{
					"type": "autodate",
					"id": "autodate_txn_updated",
					"name": "updated",
					"onCreate": true,
					"onUpdate": true
				}
			],
			"indexes": [
				"CREATE INDEX idx_transactions_status ON transactions (status)",
				"CREATE INDEX idx_transactions_gateway_txn_id ON transactions (gateway_txn_id)",
				"CREATE UNIQUE INDEX idx_transactions_gateway_ref ON transactions (gateway_ref)"
			]
		}`

		collection := &core.Collection{}
		if err := json.Unmarshal([]byte(jsonData), &collection); err != nil {
			return err
		}

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("pbc_transactions")
		if err != nil {
			return err
		}

		return app.Delete(collection)
	})
}
