// Package shutdown coordinates process signals.
//
// SIGINT and SIGTERM run the registered shutdown hooks in reverse order
// under a deadline. SIGHUP runs reload hooks and keeps waiting.
//
//	h := shutdown.NewHandler(10 * time.Second)
//	h.OnShutdown(srv.Shutdown)
//	h.OnReload(func() { ... })
//	err := h.Wait(ctx)
package shutdown
