package build

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
	BuiltBy = "unknown"
)

// ConfigFolderName is the folder under the user's home directory holding ssorefresh settings
const ConfigFolderName = ".ssorefresh"

func IsDev() bool {
	return Version == "dev"
}

// BinaryName returns the name of the ssorefresh binary, prefixed with 'd' for development builds
func BinaryName() string {
	if IsDev() {
		return "dssorefresh"
	}
	return "ssorefresh"
}
