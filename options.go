// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package relay

import "go.uber.org/zap"

// serverOptions collects what functional Server options can override.
type serverOptions struct {
	log      *zap.Logger
	notifier Notifier
}

// ServerOption configures a Server at construction time.
type ServerOption func(*serverOptions)

// WithLogger sets the structured logger a Server and its Scheduler report
// through. The default is a no-op logger.
func WithLogger(log *zap.Logger) ServerOption {
	return func(o *serverOptions) { o.log = log }
}

// WithNotifier overrides the readiness notifier a Server drives its
// scheduler with. Production callers never need this; it exists so tests
// can substitute notify.Stub for a real epoll instance.
func WithNotifier(n Notifier) ServerOption {
	return func(o *serverOptions) { o.notifier = n }
}
