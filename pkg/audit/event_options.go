package audit

// WithActor sets the principal the event is about
func WithActor(kind, id string) EventOption {
	return func(e *Event) {
		e.ActorKind = kind
		e.ActorID = id
	}
}

// WithMetadata adds metadata to the event
func WithMetadata(key string, value any) EventOption {
	return func(e *Event) {
		if e.Metadata == nil {
			e.Metadata = make(map[string]any)
		}
		e.Metadata[key] = value
	}
}

// WithResult sets the event result
func WithResult(result Result) EventOption {
	return func(e *Event) {
		e.Result = result
	}
}

// WithIP records the client address. Empty values are ignored.
func WithIP(ip string) EventOption {
	return func(e *Event) {
		if ip != "" {
			e.IP = ip
		}
	}
}

// WithUserAgent records the client user agent. Empty values are ignored.
func WithUserAgent(ua string) EventOption {
	return func(e *Event) {
		if ua != "" {
			e.UserAgent = ua
		}
	}
}
