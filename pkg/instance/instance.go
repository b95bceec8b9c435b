package instance

import "os"

// ID names the running process in logs: the Heroku dyno when set, then
// SKILLHUNTER_INSTANCE_ID, then "local".
func ID() string {
	for _, key := range []string{"DYNO", "SKILLHUNTER_INSTANCE_ID"} {
		if id := os.Getenv(key); id != "" {
			return id
		}
	}
	return "local"
}
