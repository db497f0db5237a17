package assistant

import (
	"context"
	"time"
)

// admit reserves a queue slot and then one of the generation slots.
// Returns a release func to be deferred.
func (a *Assistant) admit(ctx context.Context) (func(), error) {
	if err := ctx.Err(); err != nil {
		return func() {}, err
	}

	timer := time.NewTimer(a.cfg.MaxWait)
	defer timer.Stop()
	select {
	case a.queueCh <- struct{}{}:
	case <-ctx.Done():
		return func() {}, ctx.Err()
	case <-timer.C:
		return func() {}, &TooBusyError{Reason: "queue_full"}
	}
	queueWaiting.Inc()

	acquired := false
	defer func() {
		queueWaiting.Dec()
		if !acquired {
			<-a.queueCh
		}
	}()
	if err := ctx.Err(); err != nil {
		return func() {}, err
	}
	timer2 := time.NewTimer(a.cfg.MaxWait)
	defer timer2.Stop()
	select {
	case a.genCh <- struct{}{}:
		acquired = true
		return func() { <-a.genCh; <-a.queueCh }, nil
	case <-ctx.Done():
		return func() {}, ctx.Err()
	case <-timer2.C:
		return func() {}, &TooBusyError{Reason: "wait_timeout"}
	}
}
