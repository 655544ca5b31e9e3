package main

// Todo is the wire shape of one stored row. Description is a pointer so a
// row without one serializes as JSON null.
type Todo struct {
	Id          int     `json:"id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Completed   bool    `json:"completed"`
}

// TodoInput is the payload for create and update. Omitted optional fields
// take their defaults: nil description, completed false.
type TodoInput struct {
	Title       string  `json:"title" binding:"required"`
	Description *string `json:"description"`
	Completed   bool    `json:"completed"`
}
