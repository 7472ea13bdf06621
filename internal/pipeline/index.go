package pipeline

import (
	"strings"

	"github.com/ShafahmadxX69/Dashioh/internal"
)

// KeyIndex maps a join key to the positions of the base records carrying it,
// either as PartKey or as the part number found on their own raw row.
type KeyIndex struct {
	ByKey map[string][]int
}

func BuildKeyIndex(records []internal.CanonicalRecord) *KeyIndex {
	idx := &KeyIndex{ByKey: map[string][]int{}}
	for i, rec := range records {
		primary := strings.TrimSpace(rec.PartKey)
		alt := JoinKey(rec.Raw)
		if primary != "" {
			idx.ByKey[primary] = append(idx.ByKey[primary], i)
		}
		if alt != "" && alt != primary {
			idx.ByKey[alt] = append(idx.ByKey[alt], i)
		}
	}
	return idx
}

func (k *KeyIndex) Lookup(key string) []int {
	if key == "" {
		return nil
	}
	return k.ByKey[key]
}
