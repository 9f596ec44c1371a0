package validators

import "go.mongodb.org/mongo-driver/bson"

var integer = bson.A{"int", "long"}

var RoomValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"name",
			"type",
			"capacity",
			"building",
			"is_active",
			"booking_seq",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"name": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 100,
			},

			"type": bson.M{
				"enum": []string{"classroom", "lab"},
			},

			"capacity": bson.M{
				"bsonType": integer,
				"minimum":  1,
				"maximum":  1000,
			},

			"building": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 100,
			},

			"floor": bson.M{
				"bsonType":  "string",
				"maxLength": 20,
			},

			"equipment": bson.M{
				"bsonType": "array",
				"maxItems": 50,
				"items": bson.M{
					"bsonType":  "string",
					"maxLength": 100,
				},
			},

			"is_active": bson.M{
				"bsonType": "bool",
			},

			"booking_seq": bson.M{
				"bsonType": integer,
				"minimum":  0,
			},

			"created_at": bson.M{
				"bsonType": "date",
			},

			"updated_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
