package auth

// Notifier receives discrete presentation signals from the facade. The core
// has no dependency on how (or whether) they are displayed.
type Notifier interface {
	OnError(message string)
	OnSuccess(message string)
	OnLoadingChanged(loading bool)
}

// NopNotifier ignores every signal.
type NopNotifier struct{}

func (NopNotifier) OnError(string)        {}
func (NopNotifier) OnSuccess(string)      {}
func (NopNotifier) OnLoadingChanged(bool) {}
