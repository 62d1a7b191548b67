package registrar

import "fmt"

// BotTokenSecret is the secrets-table entry holding the automation bot
// credential used when registering follow-up hooks.
const BotTokenSecret = "ACTIONS_BOT_TOKEN"

// Secrets is an immutable name to credential lookup table supplied by the
// caller. The registrar never mutates or caches it; it is shared read-only
// across all recipes of a batch.
type Secrets map[string]string

// Get returns the credential stored under name. A missing entry is a fatal
// lookup failure.
func (s Secrets) Get(name string) (string, error) {
	value, ok := s[name]
	if !ok {
		return "", NewError(KindMissingSecret, fmt.Sprintf("secret %q is not defined", name))
	}
	return value, nil
}
