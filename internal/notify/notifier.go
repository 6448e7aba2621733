// Package notify is the boundary to email delivery, which this service
// consumes as an opaque external collaborator. The default implementation
// only logs; deployments plug in a real sender.
package notify

import (
	"context"
	"log"
)

type Notifier interface {
	// SendWelcome delivers the signup confirmation. Failures are the
	// caller's to swallow; signup never fails on delivery problems.
	SendWelcome(ctx context.Context, email, name string) error
}

type LogNotifier struct{}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) SendWelcome(_ context.Context, email, name string) error {
	log.Printf("notify: welcome email queued for %s (%s)", email, name)
	return nil
}
