package manga

import "errors"

var (
	// ErrPageNotFound is returned when a page id does not exist in the project.
	ErrPageNotFound = errors.New("page not found")
	// ErrPanelNotFound is returned when a panel id does not exist on the page.
	ErrPanelNotFound = errors.New("panel not found")
	// ErrLastPage is returned when deleting the only page of a project.
	ErrLastPage = errors.New("cannot delete last page")
	// ErrInvalidPageNumber is returned when inserting after a page number outside 0..len(pages).
	ErrInvalidPageNumber = errors.New("invalid page number")
	// ErrInvalidDocument is returned when a stored document does not match the project schema.
	ErrInvalidDocument = errors.New("invalid manga document")
)
