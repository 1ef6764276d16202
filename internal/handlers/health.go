package handlers

import (
	"net/http"
	"time"

	"github.com/TFMV/ComBat/pkg/utils"
)

// HealthCheckHandler handles health check requests
func HealthCheckHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		zuluTime := time.Now().UTC().Format(time.RFC3339)
		utils.SendJSON(w, http.StatusOK, "OK", map[string]string{"zuluTime": zuluTime})
	}
}
