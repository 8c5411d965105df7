package cache

import "fmt"

type EntityType string

const (
	EntityCredential EntityType = "credential"
)

type KeyType string

const (
	KeyID KeyType = "id"
)

// GenerateKey creates a standardized cache key
func GenerateKey(entity EntityType, keyType KeyType, value interface{}) string {
	return fmt.Sprintf("%s:%s:%v", entity, keyType, value)
}
