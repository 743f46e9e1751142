// Package types holds the data structures shared by the HTTP and storage
// layers. Keeping them in one place prevents import cycles: handlers,
// storage and utils all import types without depending on each other.
package types

// Person is a single team member as stored in the personas table.
//
// The json tags define the wire format; ID is assigned by the database on
// insert and never changes afterwards.
type Person struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Age  int    `json:"age"`
	Role string `json:"role"`
}

// PersonCreate is the request body for POST /personas/.
//
// Age is a pointer so that an explicit 0 passes the "required" check while
// a missing field does not.
type PersonCreate struct {
	Name string `json:"name" validate:"required"`
	Age  *int   `json:"age"  validate:"required"`
	Role string `json:"role" validate:"required"`
}

// PersonUpdate is the request body for PUT /personas/{id}.
//
// Every field is optional. A nil pointer means "leave the column alone",
// which is what makes the update a merge-patch instead of a replace.
type PersonUpdate struct {
	Name *string `json:"name" validate:"omitempty,min=1"`
	Age  *int    `json:"age"`
	Role *string `json:"role" validate:"omitempty,min=1"`
}

// IsEmpty reports whether the update carries no fields at all.
func (u PersonUpdate) IsEmpty() bool {
	return u.Name == nil && u.Age == nil && u.Role == nil
}

// Default paging values for GET /personas/.
const (
	DefaultSkip  = 0
	DefaultLimit = 100
)

// ListParams is the offset/limit window for listing persons.
type ListParams struct {
	Skip  int `query:"skip"  validate:"gte=0"`
	Limit int `query:"limit" validate:"gte=1"`
}
