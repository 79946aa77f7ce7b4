package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ObjectID is the hex form of a mongo ObjectId. It travels as a string in
// JSON, URLs and tokens, and is stored as a native ObjectId.
//
//nolint:recvcheck // UnmarshalBSONValue needs a pointer receiver
type ObjectID string

func NewObjectID() ObjectID {
	return ObjectID(primitive.NewObjectID().Hex())
}

func (o ObjectID) String() string {
	return string(o)
}

func (o ObjectID) IsValid() bool {
	return primitive.IsValidObjectID(string(o))
}

// Time is the creation second embedded in the id, zero for invalid ids.
func (o ObjectID) Time() time.Time {
	p, err := primitive.ObjectIDFromHex(string(o))
	if err != nil {
		return time.Time{}
	}
	return p.Timestamp()
}

// MarshalBSONValue stores the empty id as null.
func (o ObjectID) MarshalBSONValue() (bsontype.Type, []byte, error) {
	if o == "" {
		return bson.TypeNull, nil, nil
	}
	p, err := primitive.ObjectIDFromHex(string(o))
	if err != nil {
		return bson.TypeNull, nil, fmt.Errorf("object id %q: %w", string(o), ErrInvalidArgument)
	}
	return bson.MarshalValue(p)
}

func (o *ObjectID) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	switch t {
	case bson.TypeNull, bson.TypeUndefined:
		*o = ""
		return nil
	case bson.TypeString:
		var s string
		if err := bson.UnmarshalValue(t, data, &s); err != nil {
			return err
		}
		*o = ObjectID(s)
		return nil
	}
	var p primitive.ObjectID
	if err := bson.UnmarshalValue(t, data, &p); err != nil {
		return err
	}
	*o = ObjectID(p.Hex())
	return nil
}
