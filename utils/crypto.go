package utils

import (
	"crypto/rand"
	"encoding/hex"
	"strconv"
	"time"
)

func RandomID(prefix string) string {
	b := make([]byte, 12)
	if _, err := rand.Read(b); err != nil {
		return prefix + "_" + strconv.FormatInt(time.Now().UnixNano(), 10)
	}
	return prefix + "_" + hex.EncodeToString(b)
}
