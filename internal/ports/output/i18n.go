package output

// T renders localized user-facing text.
type T interface {
	// T renders the message identified by key for the given locale. data fills
	// template placeholders and may be nil. Unknown keys render as the key.
	T(locale, key string, data map[string]any) string
}
