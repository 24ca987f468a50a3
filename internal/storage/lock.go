package storage

import (
	"context"
	"time"
)

// Locker serialises load-modify-save cycles across every process that
// shares a store. Lock blocks until the lock is held or ctx ends; the
// returned unlock is safe to call more than once.
type Locker interface {
	Lock(ctx context.Context) (unlock func(), err error)
}

const (
	ledgerLockName    = "ledger"
	ledgerLockTTL     = 30 * time.Second
	lockRetryInterval = 25 * time.Millisecond
)

// pollLock calls try until it reports the lock as held, try fails or ctx
// ends.
func pollLock(ctx context.Context, try func(context.Context) (bool, error)) error {
	for {
		ok, err := try(ctx)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(lockRetryInterval):
		}
	}
}
