package crate

// Severity classifies a Notification.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Notification is a human-readable operation outcome.
type Notification struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Severity    Severity `json:"severity"`
}

// Listener observes a Store.
//
// Calls are synchronous and made in subscription order, never concurrently.
// A listener must not call mutating Store methods from inside a callback.
type Listener interface {
	Notify(n Notification)
	SyncChanged(synced bool)
}

// ListenerFuncs adapts plain functions to a Listener. Nil fields are skipped.
type ListenerFuncs struct {
	OnNotify      func(Notification)
	OnSyncChanged func(bool)
}

func (f ListenerFuncs) Notify(n Notification) {
	if f.OnNotify != nil {
		f.OnNotify(n)
	}
}

func (f ListenerFuncs) SyncChanged(synced bool) {
	if f.OnSyncChanged != nil {
		f.OnSyncChanged(synced)
	}
}

type subscription struct {
	id       int
	listener Listener
}

// Subscribe registers l and returns a function that unregisters it.
// Unsubscribing more than once is harmless.
func (s *Store) Subscribe(l Listener) (unsubscribe func()) {
	s.listenMu.Lock()
	s.nextSubID++
	id := s.nextSubID
	s.listeners = append(s.listeners, &subscription{id: id, listener: l})
	s.listenMu.Unlock()

	return func() {
		s.listenMu.Lock()
		defer s.listenMu.Unlock()
		for i, sub := range s.listeners {
			if sub.id == id {
				s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}

// publish delivers notes to every listener, then reports the sync flag if
// it changed since the last report. It must be called without s.mu held.
func (s *Store) publish(notes ...Notification) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.listenMu.Lock()
	subs := make([]*subscription, len(s.listeners))
	copy(subs, s.listeners)
	s.listenMu.Unlock()

	for _, n := range notes {
		for _, sub := range subs {
			sub.listener.Notify(n)
		}
	}

	synced := s.Synced()
	if synced == s.reported {
		return
	}
	s.reported = synced
	for _, sub := range subs {
		sub.listener.SyncChanged(synced)
	}
}

func success(title, description string) Notification {
	return Notification{Title: title, Description: description, Severity: SeveritySuccess}
}

func warning(title, description string) Notification {
	return Notification{Title: title, Description: description, Severity: SeverityWarning}
}

func failure(title, description string) Notification {
	return Notification{Title: title, Description: description, Severity: SeverityError}
}
