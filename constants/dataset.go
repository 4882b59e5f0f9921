package constants

const (
	// required columns of the listings dataset
	ColumnPrice      = "price"
	ColumnLastReview = "last_review"
)
