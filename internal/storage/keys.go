package storage

// Bucket names, matching the keys the browser demo used in localStorage.
const (
	BucketCandidates  = "eday_candidates"
	BucketUsers       = "eday_users"
	BucketCurrentUser = "eday_current_user"
)

// Keys builds bucket keys inside an optional namespace.
type Keys struct {
	// Namespace prefixes every key when set (e.g. "staging" -> "staging:eday_users").
	Namespace string
}

// Candidates returns the key of the candidate bucket.
func (k Keys) Candidates() string {
	return k.qualify(BucketCandidates)
}

// Users returns the key of the user bucket.
func (k Keys) Users() string {
	return k.qualify(BucketUsers)
}

// Session returns the key of a client's current-session bucket.
// The empty client id maps to the bare session key.
func (k Keys) Session(clientID string) string {
	if clientID == "" {
		return k.qualify(BucketCurrentUser)
	}
	return k.qualify(BucketCurrentUser + ":" + clientID)
}

func (k Keys) qualify(name string) string {
	if k.Namespace == "" {
		return name
	}
	return k.Namespace + ":" + name
}
