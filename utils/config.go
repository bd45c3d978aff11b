package utils

import "fisiocare/config"

// IsProduction reports whether the service runs with a production environment config.
func IsProduction() bool {
	return config.IsProduction()
}
