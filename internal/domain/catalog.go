package domain

// Category is a ticket category offered to requesters.
type Category struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// Tag is a configured tag with its display colour.
type Tag struct {
	Name  string `yaml:"name"`
	Color string `yaml:"color"`
}

// TicketView is a ticket prepared for the panel: category name resolved and
// tags restricted to the configured set.
type TicketView struct {
	Ticket       Ticket
	CategoryName string
	Tags         []Tag
}
