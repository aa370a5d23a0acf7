package validators

import "go.mongodb.org/mongo-driver/bson"

var UserValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"email",
			"display_name",
			"role",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"email": bson.M{
				"bsonType":  "string",
				"maxLength": 254,
				"pattern":   "^[^@\\s]+@[^@\\s]+$",
			},

			"display_name": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},

			// E.164
			"phone": bson.M{
				"bsonType": "string",
				"pattern":  "^\\+[1-9][0-9]{1,14}$",
			},

			"role": bson.M{
				"bsonType": "string",
				"enum":     []string{"admin", "user"},
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
