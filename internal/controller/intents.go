package controller

// Intent is a user action dispatched to the controller
type Intent interface {
	intent()
}

// New clears the editor and completion panel
type New struct{}

// Save creates a record from the editor, or updates the selected one
type Save struct {
	Title   string
	Content string
}

// Select loads a record into the editor
type Select struct {
	ID int64
}

// Remove deletes a record
type Remove struct {
	ID int64
}

// Search filters the list
type Search struct {
	Query string
}

// Copy puts the displayable text of Content on the clipboard
type Copy struct {
	Content string
}

// Edit records the editor draft as the user types
type Edit struct {
	Title   string
	Content string
}

func (New) intent()    {}
func (Save) intent()   {}
func (Select) intent() {}
func (Remove) intent() {}
func (Search) intent() {}
func (Copy) intent()   {}
func (Edit) intent()   {}

// Result is the outcome of a dispatched intent. Err is nil on success and
// otherwise an *errors.AppError; the view already carries any message.
type Result struct {
	View View
	Err  error
}
