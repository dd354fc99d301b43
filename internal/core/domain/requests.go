package domain

// PublishOperation describes what a publish did to one entity.
type PublishOperation string

// Publish operations.
const (
	PublishCreated   PublishOperation = "Created"
	PublishChanged   PublishOperation = "Changed"
	PublishUnchanged PublishOperation = "Unchanged"
	PublishQueued    PublishOperation = "Queued"
)

// PublishResult is the content of one publish Result.
type PublishResult[T Entity] struct {
	Operation PublishOperation `json:"operation"`
	Entity    T                `json:"entity"`
}

// EntityDeleteRequest removes the entity whose UUID is Target.
type EntityDeleteRequest struct {
	Target string `json:"target"`
}

// EntityEmptyRequest removes every entity owned by EntityUUID. When Before
// is non-zero only entities created before it (Unix ms) are removed.
type EntityEmptyRequest struct {
	EntityUUID string `json:"entityUuid"`
	Before     int64  `json:"before,omitempty"`
}

// Matches reports whether e falls under the request.
func (r EntityEmptyRequest) Matches(e Entity) bool {
	if e.EntityOwner() != r.EntityUUID {
		return false
	}
	return r.Before == 0 || e.EntityCreated() < r.Before
}
