package category

const (
	msgNameRequired = "Please enter a category name"
	msgDuplicate    = "This category already exists"
	msgLoadFailed   = "Failed to load categories"
	msgCreateFailed = "Failed to create category"
)
