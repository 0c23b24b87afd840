package domain

// Tweet is the subset of a resolved status that the message listener
// cares about. ScreenName is the author's @-handle without the @.
type Tweet struct {
	ID         string
	URL        string
	Text       string
	AuthorName string
	ScreenName string
}
