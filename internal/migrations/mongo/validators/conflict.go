package validators

import "go.mongodb.org/mongo-driver/bson"

var ConflictRecordValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"room_id",
			"requested_by",
			"requested_start",
			"requested_end",
			"conflicting_booking_id",
			"event_id",
			"detected_at",
			"resolved",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"room_id": bson.M{
				"bsonType": "string",
			},
			"requested_by": bson.M{
				"bsonType": "string",
			},
			"requested_start": bson.M{
				"bsonType": "date",
			},
			"requested_end": bson.M{
				"bsonType": "date",
			},
			"conflicting_booking_id": bson.M{
				"bsonType": "string",
			},
			"event_id": bson.M{
				"bsonType": "string",
			},
			"detected_at": bson.M{
				"bsonType": "date",
			},
			"resolved": bson.M{
				"bsonType": "bool",
			},
			"resolution_notes": bson.M{
				"bsonType": "string",
			},
		},
	},
}
