package asset

const (
	msgTitleRequired      = "Please enter a display title"
	msgCategoriesRequired = "please select at least one category"
	msgUnknownCategory    = "One or more selected categories do not exist"
	msgInvalidStatus      = "Status must be inventory or sold"
	msgInvalidPrice       = "Price must be a number"

	msgLoadFailed   = "Failed to load assets"
	msgNotFound     = "Asset not found"
	msgUploadFailed = "Failed to upload file"
	msgSaveFailed   = "Failed to save asset"
	msgUpdateFailed = "Failed to update asset"
	msgDeleteFailed = "Failed to delete asset"
)

func msgSelectFile(k Kind) string {
	if k == KindVideo {
		return "Please select a video file"
	}
	return "Please select an image file"
}

func msgTooLarge(k Kind) string {
	if k == KindVideo {
		return "File size must be less than 50MB"
	}
	return "File size must be less than 10MB"
}

func msgPartialLink(k Kind) string {
	if k == KindVideo {
		return "Video uploaded but some categories failed to link."
	}
	return "Image uploaded but some categories failed to link."
}
