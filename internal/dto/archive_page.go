// ArchivePage is a paginated response payload for the detection archive.
package dto

import "farmguardian/internal/model"

type ArchivePage struct {
	Detections  []model.ArchivedDetection `json:"detections"`
	Length      int                       `json:"length"`
	TotalPages  int                       `json:"totalPages"`
	CurrentPage int                       `json:"currentPage"`
	Limit       int                       `json:"pageSize"`
}
