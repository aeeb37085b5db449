package ai

import (
	"fmt"
	"log/slog"
	"reflect"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/alphadose/haxmap"
	"github.com/go-openapi/strfmt"

	"github.com/chorushq/chorus/pkg/uuidx"
)

// RegistryEvent names one kind of registry lifecycle notification.
type RegistryEvent string

const (
	EventProviderRegistered    RegistryEvent = "providerRegistered"
	EventProviderUnregistered  RegistryEvent = "providerUnregistered"
	EventActiveProviderChanged RegistryEvent = "activeProviderChanged"
)

// RegistryNotification is the payload delivered to subscribed listeners.
// Provider carries the subject of register/unregister events; Previous and
// Current describe active-provider transitions. An empty Current means the
// active slot was cleared.
type RegistryNotification struct {
	Event     RegistryEvent   `json:"event"`
	Provider  ProviderType    `json:"provider,omitempty"`
	Previous  ProviderType    `json:"previous,omitempty"`
	Current   ProviderType    `json:"current,omitempty"`
	Timestamp strfmt.DateTime `json:"timestamp"`
}

// RegistryListener receives registry notifications. Listeners run
// synchronously on the goroutine mutating the registry; panics are recovered
// so a faulty listener cannot break a state transition.
type RegistryListener func(RegistryNotification)

// Registry holds configured providers keyed by type and tracks which one is
// active. All methods are safe for concurrent use.
type Registry struct {
	providers *haxmap.Map[string, Provider]
	listeners map[RegistryEvent]*haxmap.Map[string, RegistryListener]

	mu     sync.Mutex
	active Provider
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	registry := &Registry{
		providers: haxmap.New[string, Provider](),
		listeners: make(map[RegistryEvent]*haxmap.Map[string, RegistryListener], 3),
	}
	for _, event := range []RegistryEvent{
		EventProviderRegistered,
		EventProviderUnregistered,
		EventActiveProviderChanged,
	} {
		registry.listeners[event] = haxmap.New[string, RegistryListener]()
	}
	return registry
}

var defaultRegistry = NewRegistry()

// Default returns the process-wide registry.
func Default() *Registry { return defaultRegistry }

// Register adds a provider, replacing any previous provider of the same
// type, and emits providerRegistered. The provider surface is validated
// first: a nil provider, an unsupported type, or an empty name is rejected.
func (registry *Registry) Register(provider Provider) error {
	if surfaceErr := validateProviderSurface(provider); surfaceErr != nil {
		return surfaceErr
	}
	registry.providers.Set(string(provider.Type()), provider)
	registry.emit(RegistryNotification{
		Event:    EventProviderRegistered,
		Provider: provider.Type(),
	})
	return nil
}

// Unregister removes the provider of the given type and reports whether one
// was removed. If it was the active provider, the active slot is cleared and
// activeProviderChanged fires before providerUnregistered.
func (registry *Registry) Unregister(providerType ProviderType) bool {
	key := string(providerType)
	if _, exists := registry.providers.Get(key); !exists {
		return false
	}
	registry.providers.Del(key)

	var notifications []RegistryNotification
	registry.mu.Lock()
	if registry.active != nil && registry.active.Type() == providerType {
		registry.active = nil
		notifications = append(notifications, RegistryNotification{
			Event:    EventActiveProviderChanged,
			Previous: providerType,
		})
	}
	registry.mu.Unlock()

	notifications = append(notifications, RegistryNotification{
		Event:    EventProviderUnregistered,
		Provider: providerType,
	})
	for _, notification := range notifications {
		registry.emit(notification)
	}
	return true
}

// SetActiveProvider designates the provider of the given type as active.
// Setting the already-active provider is a no-op and emits nothing.
func (registry *Registry) SetActiveProvider(providerType ProviderType) error {
	provider, exists := registry.providers.Get(string(providerType))
	if !exists {
		return &ProviderError{
			Type:    ErrorTypeValidation,
			Message: fmt.Sprintf("provider %q is not registered", providerType),
			Code:    "provider_not_found",
		}
	}

	registry.mu.Lock()
	previous := registry.active
	if previous == provider {
		registry.mu.Unlock()
		return nil
	}
	registry.active = provider
	registry.mu.Unlock()

	notification := RegistryNotification{
		Event:   EventActiveProviderChanged,
		Current: providerType,
	}
	if previous != nil {
		notification.Previous = previous.Type()
	}
	registry.emit(notification)
	return nil
}

// ActiveProvider returns the active provider, or nil when none is set.
func (registry *Registry) ActiveProvider() Provider {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	return registry.active
}

// Get looks up a registered provider by type.
func (registry *Registry) Get(providerType ProviderType) (Provider, bool) {
	return registry.providers.Get(string(providerType))
}

// List returns all registered providers ordered by type.
func (registry *Registry) List() []Provider {
	providers := make([]Provider, 0, int(registry.providers.Len()))
	registry.providers.ForEach(func(_ string, provider Provider) bool {
		providers = append(providers, provider)
		return true
	})
	slices.SortFunc(providers, func(a, b Provider) int {
		return strings.Compare(string(a.Type()), string(b.Type()))
	})
	return providers
}

// Subscribe registers a listener for one event kind and returns its
// unsubscribe func. A nil listener subscribes nothing.
func (registry *Registry) Subscribe(event RegistryEvent, listener RegistryListener) (unsubscribe func()) {
	table, known := registry.listeners[event]
	if !known || listener == nil {
		return func() {}
	}
	key := uuidx.NewString()
	table.Set(key, listener)
	return func() { table.Del(key) }
}

func (registry *Registry) emit(notification RegistryNotification) {
	notification.Timestamp = strfmt.DateTime(time.Now())
	table, known := registry.listeners[notification.Event]
	if !known {
		return
	}
	table.ForEach(func(_ string, listener RegistryListener) bool {
		safeNotify(listener, notification)
		return true
	})
}

func safeNotify(listener RegistryListener, notification RegistryNotification) {
	defer func() {
		if recovered := recover(); recovered != nil {
			slog.Warn("registry listener panicked",
				"event", notification.Event,
				"panic", recovered)
		}
	}()
	listener(notification)
}

func validateProviderSurface(provider Provider) *ProviderError {
	if provider == nil || isNilValue(provider) {
		return &ProviderError{
			Type:    ErrorTypeValidation,
			Message: "provider is nil",
			Code:    "invalid_provider",
		}
	}
	if !provider.Type().Valid() {
		return &ProviderError{
			Type:    ErrorTypeValidation,
			Message: fmt.Sprintf("provider type %q is not supported", provider.Type()),
			Code:    "invalid_provider",
		}
	}
	if provider.Name() == "" {
		return &ProviderError{
			Type:    ErrorTypeValidation,
			Message: "provider has no name",
			Code:    "invalid_provider",
		}
	}
	return nil
}

// isNilValue catches typed-nil providers hiding behind the interface.
func isNilValue(provider Provider) bool {
	value := reflect.ValueOf(provider)
	switch value.Kind() {
	case reflect.Ptr, reflect.Interface:
		return value.IsNil()
	}
	return false
}
