package backoffice

import (
	"io"

	"recrutement/backoffice-service/internal/model"
	"recrutement/backoffice-service/internal/search"
)

// SetCandidatesXLSX swaps the workbook renderer and returns a restore func.
func SetCandidatesXLSX(fn func(io.Writer, []model.Candidate, string, search.Filters) error) (restore func()) {
	prev := candidatesXLSX
	candidatesXLSX = fn
	return func() { candidatesXLSX = prev }
}
