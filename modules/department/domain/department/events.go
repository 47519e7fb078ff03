package department

import "github.com/google/uuid"

type CreatedEvent struct {
	Department Department
}

type RenamedEvent struct {
	Department Department
	OldName    string
}

type MovedEvent struct {
	Department  Department
	OldParentID *uuid.UUID
}

type DeletedEvent struct {
	Department Department
	// RemovedCount includes the department itself and all cascaded descendants.
	RemovedCount int64
}
