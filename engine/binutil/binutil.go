// Package binutil holds process setup helpers shared by the harness executables.
package binutil

import (
	"fmt"
	"net/http"
	_ "net/http/pprof"

	"github.com/WorldOfTanksMods/wot-teamspeak-mod/engine/gwlog"
)

// SetupHTTPServer starts the HTTP server for go tool pprof, port 0 disables it
func SetupHTTPServer(ip string, port int) {
	if port == 0 {
		// pprof not enabled
		gwlog.Debugf("pprof server not enabled")
		return
	}

	httpHost := fmt.Sprintf("%s:%d", ip, port)
	gwlog.Infof("http server listening on %s", httpHost)
	gwlog.Infof("pprof http://%s/debug/pprof/ ... available commands: ", httpHost)
	gwlog.Infof("    go tool pprof http://%s/debug/pprof/heap", httpHost)
	gwlog.Infof("    go tool pprof http://%s/debug/pprof/profile", httpHost)

	go func() {
		if err := http.ListenAndServe(httpHost, nil); err != nil {
			gwlog.Errorf("http server on %s failed: %v", httpHost, err)
		}
	}()
}
