package cache

import (
	"fmt"
)

const (
	cacheProperties = "properties:%s"
)

func constructPropertiesKey(landlordID string) string {
	return fmt.Sprintf(cacheProperties, landlordID)
}
