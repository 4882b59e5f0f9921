package observable

import (
	"context"
	"errors"
	"sync"

	"github.com/turbot/basic-cleaning/events"
)

// ObservableImpl provides a base implementation of the Observable interface
// it should be embedded in all artifact store implementations
type ObservableImpl struct {
	observerLock sync.RWMutex
	Observers    []Observer
}

func (p *ObservableImpl) AddObserver(o Observer) error {
	p.observerLock.Lock()
	p.Observers = append(p.Observers, o)
	p.observerLock.Unlock()

	return nil
}

func (p *ObservableImpl) NotifyObservers(ctx context.Context, e events.Event) error {
	p.observerLock.RLock()
	defer p.observerLock.RUnlock()
	var notifyErrors []error
	for _, observer := range p.Observers {
		err := observer.Notify(ctx, e)
		if err != nil {
			notifyErrors = append(notifyErrors, err)
		}
	}

	return errors.Join(notifyErrors...)
}
