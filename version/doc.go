// Package version reports the build version of the sseplex binary.
package version
