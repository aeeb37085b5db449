package ai

import (
	"sync"
	"time"
)

// rateWindow is the sliding window over which request timestamps are kept
// for client-side rate observability. Nothing is enforced; callers read the
// count and decide for themselves.
const rateWindow = 60 * time.Second

// Base is the shared engine core every provider embeds. It owns the
// initialized flag, the request-rate window, and the common preconditions
// of StreamChat. Vendor packages add transport and stream processing on
// top.
type Base struct {
	providerType ProviderType
	name         string

	mu           sync.Mutex
	initialized  bool
	requestTimes []time.Time
	now          func() time.Time
}

// NewBase creates the engine core for a provider of the given type and
// display name.
func NewBase(providerType ProviderType, name string) *Base {
	return &Base{
		providerType: providerType,
		name:         name,
		now:          time.Now,
	}
}

// Type returns the provider's wire type tag.
func (base *Base) Type() ProviderType { return base.providerType }

// Name returns the provider's display name.
func (base *Base) Name() string { return base.name }

// MarkInitialized records that Initialize completed successfully.
func (base *Base) MarkInitialized() {
	base.mu.Lock()
	defer base.mu.Unlock()
	base.initialized = true
}

// Initialized reports whether the provider has been initialized.
func (base *Base) Initialized() bool {
	base.mu.Lock()
	defer base.mu.Unlock()
	return base.initialized
}

// BeginRequest enforces the preconditions shared by every chat call: the
// provider must be initialized and the conversation must validate. On
// success the request timestamp is recorded in the rate window.
func (base *Base) BeginRequest(messages []Message) error {
	if !base.Initialized() {
		return &ProviderError{
			Type:     ErrorTypeNotInitialized,
			Message:  "provider is not initialized, call Initialize first",
			Provider: base.name,
		}
	}
	if validationErr := ValidateMessages(messages); validationErr != nil {
		validationErr.Provider = base.name
		return validationErr
	}
	base.recordRequest()
	return nil
}

// FormatError normalizes any raised value, stamping the provider's name.
func (base *Base) FormatError(raw any) *ProviderError {
	return FormatError(base.name, raw)
}

func (base *Base) recordRequest() {
	base.mu.Lock()
	defer base.mu.Unlock()
	current := base.now()
	base.requestTimes = pruneWindow(base.requestTimes, current)
	base.requestTimes = append(base.requestTimes, current)
}

// RequestsInWindow returns how many requests started within the sliding
// window, pruning expired entries as a side effect.
func (base *Base) RequestsInWindow() int {
	base.mu.Lock()
	defer base.mu.Unlock()
	base.requestTimes = pruneWindow(base.requestTimes, base.now())
	return len(base.requestTimes)
}

// pruneWindow drops timestamps older than the window. Timestamps are
// appended in order, so the first still-fresh entry bounds the cut.
func pruneWindow(times []time.Time, current time.Time) []time.Time {
	cutoff := current.Add(-rateWindow)
	firstFresh := len(times)
	for i, stamp := range times {
		if stamp.After(cutoff) {
			firstFresh = i
			break
		}
	}
	return times[firstFresh:]
}
