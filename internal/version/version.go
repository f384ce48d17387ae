// ABOUTME: Version and product identification
// ABOUTME: Shared by the CLI banner and session logs
package version

const (
	Product      = "tonegen"
	Manufacturer = "Resonate"
	Version      = "0.3.0"
)

// String returns "product version"
func String() string {
	return Product + " " + Version
}
