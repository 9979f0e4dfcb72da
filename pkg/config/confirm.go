package config

import (
	"fmt"
	"strings"
	"time"
)

// ConfirmConfig controls the lifetime of pending bulk-delete confirmation
// tokens. A token not confirmed within TTL is discarded.
type ConfirmConfig struct {
	TTL time.Duration `koanf:"ttl"`
}

// String returns a string representation of the confirmation configuration.
func (c *ConfirmConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Confirm ---\n")
	b.WriteString(fmt.Sprintf("  ttl: %s\n", c.TTL))
	return b.String()
}

func (c *ConfirmConfig) Validate() error {
	if c.TTL <= 0 {
		return fmt.Errorf("confirmation token TTL is not configured")
	}
	return nil
}
