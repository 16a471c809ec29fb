// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package relay

import "github.com/hsiaofongw/relayd/internal/notify"

// Notifier is the scheduler's single suspension point. Production code uses
// notify.Poller (epoll); tests use notify.Stub.
type Notifier = notify.Notifier

// NotifyEvent reports one descriptor's observed readiness.
type NotifyEvent = notify.Event
