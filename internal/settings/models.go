package settings

// Setting configures how often a tracked device samples and uploads its
// location. Every field is optional on the wire.
type Setting struct {
	ID                  *int64  `json:"id,omitempty"`
	UserName            *string `json:"userName,omitempty"`
	CollectionFrequency *int    `json:"collectionFrequency,omitempty" validate:"omitempty,gte=1"`
	PushFrequency       *int    `json:"pushFrequency,omitempty" validate:"omitempty,gte=1"`
	DistanceFilter      *int    `json:"distanceFilter,omitempty" validate:"omitempty,gte=0"`
	StartTime           *string `json:"startTime,omitempty" validate:"omitempty,clock"`
	EndTime             *string `json:"endTime,omitempty" validate:"omitempty,clock"`
	Accuracy            *string `json:"accuracy,omitempty"`
}
