package models

import "github.com/google/uuid"

// assignID fills an empty primary key before insert. IDs are generated in
// Go so the schema does not depend on a database-side uuid function.
func assignID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}
