package core

import "time"

// DBTimeout bounds every repository call.
const DBTimeout = 5 * time.Second

type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}
