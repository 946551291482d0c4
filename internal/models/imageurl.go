package models

// The API returns an image UUID per artwork which is turned into an IIIF URL.
// The image host differs from the API host.
// See https://api.artic.edu/docs/#iiif-image-api
const iiifBaseURL = "https://www.artic.edu/iiif/2/"

// ThumbnailURL builds the 200px wide IIIF image URL
func ThumbnailURL(imageID string) string {
	return iiifBaseURL + imageID + "/full/200,/0/default.jpg"
}

// FullImageURL builds the 843px wide IIIF image URL recommended by the API docs
func FullImageURL(imageID string) string {
	return iiifBaseURL + imageID + "/full/843,/0/default.jpg"
}
