package platform

// PackageFormat is a packaging output type, eg. DEB.
type PackageFormat string

// Package formats.
const (
	DEB       PackageFormat = "DEB"
	RPM       PackageFormat = "RPM"
	TGZ       PackageFormat = "TGZ"
	NSIS      PackageFormat = "NSIS"
	ZIP       PackageFormat = "ZIP"
	DragNDrop PackageFormat = "DragNDrop"
	APK       PackageFormat = "APK"
)

var extensions = map[PackageFormat]string{
	DEB:       "deb",
	RPM:       "rpm",
	TGZ:       "tar.gz",
	NSIS:      "exe",
	ZIP:       "zip",
	DragNDrop: "dmg",
	APK:       "apk",
}

// ExtensionByPackage returns the file extension, without a leading dot, for a package format.
//
// Unknown formats return false.
func ExtensionByPackage(format PackageFormat) (string, bool) {
	ext, ok := extensions[format]
	return ext, ok
}
