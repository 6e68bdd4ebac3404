package instance

import "os"

// GetID returns the identifier of this process for log context. Heroku style
// DYNO wins over STOREFRONT_INSTANCE_ID.
func GetID() string {
	for _, key := range []string{"DYNO", "STOREFRONT_INSTANCE_ID"} {
		if id := os.Getenv(key); id != "" {
			return id
		}
	}
	return "local"
}
