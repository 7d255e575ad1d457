package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ParseInt parses a positive integer query value, falling back to
// defaultValue when it is missing, malformed or below 1.
func ParseInt(value string, defaultValue int) int {
	result, err := strconv.Atoi(value)
	if err != nil || result < 1 {
		return defaultValue
	}
	return result
}

// GenerateOrderID creates the reference printed on requisition slips, e.g.
// LAB-20260117-3F9A1C2B. The suffix comes from a random UUID so references
// stay unique under the column's constraint.
func GenerateOrderID() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("LAB-%s-%s", time.Now().UTC().Format("20060102"), suffix)
}
