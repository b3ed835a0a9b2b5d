package redis

const (
	// KeyPrefixProperty prefixes entity property values.
	KeyPrefixProperty = "herald:prop:"
	// KeyPrefixNativeComments prefixes the per-container native comment hash.
	KeyPrefixNativeComments = "herald:native:comments:"
	// KeyNativeCommentSeq is the global native comment id counter.
	KeyNativeCommentSeq = "herald:native:comment-seq"
	// KeySettingsSnapshot holds the last successfully loaded admin settings.
	KeySettingsSnapshot = "herald:settings:snapshot"

	// firstNativeCommentID offsets generated ids so they look like tracker ids.
	firstNativeCommentID = 10000
)

// PropertyKey returns the Redis key for one property of a container.
func PropertyKey(containerID, key string) string {
	return KeyPrefixProperty + containerID + ":" + key
}

// NativeCommentsKey returns the hash holding a container's native comments.
func NativeCommentsKey(containerID string) string {
	return KeyPrefixNativeComments + containerID
}
