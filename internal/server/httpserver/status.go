package httpserver

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
)

const (
	versionEnv     = "MEDCONB_VERSION"
	defaultVersion = "NO_VERSION"
)

var getenv = os.Getenv

// version is $MEDCONB_VERSION, or NO_VERSION, followed by -suffix when a
// suffix is configured.
func version(suffix string) string {
	v := getenv(versionEnv)
	if v == "" {
		v = defaultVersion
	}
	if suffix != "" {
		v += "-" + suffix
	}
	return v
}

func statusHandler(suffix string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": version(suffix)})
	}
}
