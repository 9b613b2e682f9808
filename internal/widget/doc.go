// Package widget assembles one chat session from configuration.
//
// # Overview
//
// New opens the durable store named by the config, resolves the anonymous
// session id through the identity package, creates the exchange client for
// the configured endpoint, and hands both to a conversation Controller. The
// caller owns the returned Widget and must Close it.
//
//	w, err := widget.New(ctx, cfg, logger)
//	if err != nil {
//		return err
//	}
//	defer w.Close()
//	w.Controller().Submit("Do I need a visa to study at NUS?")
//
// If the store cannot be opened the widget still starts, with an in-memory
// store; Degraded reports this.
package widget
