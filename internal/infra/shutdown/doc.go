// Package shutdown coordinates process termination and reload signals.
//
// A Handler waits for SIGINT, SIGTERM, a context cancellation or an explicit
// Trigger, then runs the registered hooks in reverse registration order under
// a single deadline. A ReloadHandler invokes callbacks on SIGHUP.
//
// Usage:
//
//	h := shutdown.NewHandler(10 * time.Second)
//	h.OnShutdown(srv.Shutdown)
//	if err := h.Wait(ctx); err != nil {
//		log.Error("shutdown", "error", err)
//	}
package shutdown
