package common

import (
	"strings"

	"github.com/google/uuid"
)

const caseIDPrefix = "case_"

// NewCaseID generates a unique submission identifier.
// Format: case_<uuid>
func NewCaseID() string {
	return caseIDPrefix + uuid.New().String()
}

// IsCaseID reports whether id has the case_<uuid> shape
func IsCaseID(id string) bool {
	if !strings.HasPrefix(id, caseIDPrefix) {
		return false
	}
	_, err := uuid.Parse(strings.TrimPrefix(id, caseIDPrefix))
	return err == nil
}
