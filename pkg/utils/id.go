package utils

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// GenerateCampaignID returns a new campaign identifier with a timestamp prefix
// so directory listings sort chronologically.
func GenerateCampaignID() string {
	return fmt.Sprintf("campaign-%s-%s", time.Now().UTC().Format("20060102-150405"), uuid.NewString()[:8])
}
