package backend

// KeyFunc extracts the identity key of a record; "" means unresolvable.
type KeyFunc func(Record) string

// UserAliases is the ordered alias list for driver/user identity. The upstream
// data is inconsistent about naming, so the order is part of the matching
// contract: the first non-null, non-empty candidate wins.
var UserAliases = []string{"userid", "userId", "contactId", "contactid", "uid", "id"}

// DocumentAliases is the ordered alias list for document identity.
var DocumentAliases = []string{"_id", "id", "documentId"}

// ThreadAliases is the ordered alias list for chat thread identity.
var ThreadAliases = []string{"threadId", "chatThreadId", "_id", "id"}

// ResolveKey returns the first non-null, non-empty value of aliases in r.
// Numeric identifiers are rendered in decimal.
func ResolveKey(r Record, aliases []string) string {
	for _, a := range aliases {
		if s := scalarString(r[a]); s != "" {
			return s
		}
	}
	return ""
}

// UserKey resolves a driver/user identity key.
func UserKey(r Record) string { return ResolveKey(r, UserAliases) }

// DocumentKey resolves a document identity key.
func DocumentKey(r Record) string { return ResolveKey(r, DocumentAliases) }

// ThreadKey resolves a chat thread identity key.
func ThreadKey(r Record) string { return ResolveKey(r, ThreadAliases) }
