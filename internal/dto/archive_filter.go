// ArchiveFilter describes user-provided filters to narrow the archived detection list.
package dto

import "time"

type ArchiveFilter struct {
	Camera     string
	AnimalType string
	After      time.Time
	Before     time.Time
	Limit      int
	Offset     int
}
