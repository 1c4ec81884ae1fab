package api_common

import (
	"github.com/gin-gonic/gin"
)

// Debuggable is the slice of config needed to decide whether internal error
// detail may leave the process.
type Debuggable interface {
	IsDebugMode() bool
}

func AddDebugHeader(cfg Debuggable, gctx *gin.Context, debugMessage string) {
	if cfg.IsDebugMode() {
		gctx.Header("x-connectorhub-debug", debugMessage)
	}
}

func AddDebugHeaderError(cfg Debuggable, gctx *gin.Context, err error) {
	AddDebugHeader(cfg, gctx, err.Error())
}
