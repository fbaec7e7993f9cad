// Package constants defines application-wide constants and version information.
package constants

import "runtime"

// Version holds the application version information
const Version = "1.2-" + runtime.GOOS + "/" + runtime.GOARCH

// ApplicationName is used in the User-Agent of outbound requests and in page titles
const ApplicationName = "nsdisruptions"
