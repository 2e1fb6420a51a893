package instance

import "github.com/designcraft/designcraft-backend/pkg/env"

// GetID names the running process in logs. Explicit ids win over platform ones.
func GetID() string {
	for _, key := range []string{"DESIGNCRAFT_INSTANCE_ID", "DYNO", "HOSTNAME"} {
		if id := env.Get(key, ""); id != "" {
			return id
		}
	}
	return "local"
}
