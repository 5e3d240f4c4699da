package redis

import (
	"fmt"

	"github.com/plaza-world/plaza/internal/model"
)

// Key prefix for all plaza data
const keyPrefix = "plaza"

// bannedWordsKey returns the Redis key for the banned-words hash
// (field = word, value = JSON record)
func bannedWordsKey() string {
	return fmt.Sprintf("%s:banned_words", keyPrefix)
}

// bannedIPsKey returns the Redis key for the banned-IP set
func bannedIPsKey() string {
	return fmt.Sprintf("%s:banned_ips", keyPrefix)
}

// accountKey returns the Redis key for an Account
func accountKey(username string) string {
	return fmt.Sprintf("%s:account:%s", keyPrefix, username)
}

// drawingKey returns the Redis key for a Drawing
func drawingKey(id model.DrawingID) string {
	return fmt.Sprintf("%s:drawing:%s", keyPrefix, id)
}

// drawingIndexKey returns the Redis key for the SET of all drawing IDs
func drawingIndexKey() string {
	return fmt.Sprintf("%s:idx:drawings", keyPrefix)
}
