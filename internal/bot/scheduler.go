package bot

import (
	"context"
	"fmt"
	"log"

	"github.com/robfig/cron/v3"

	"github.com/concalliq/concalliq/internal/config"
)

// StartDigestScheduler wires the cron-driven morning digest. A nil return
// with nil error means the digest is disabled.
func StartDigestScheduler(cfg *config.Config, router *Router) (*cron.Cron, error) {
	if cfg.DigestCron == "" {
		return nil, nil
	}

	c := cron.New()
	_, err := c.AddFunc(cfg.DigestCron, func() {
		router.SendScheduledDigest(context.Background())
	})
	if err != nil {
		return nil, fmt.Errorf("digest schedule %q: %w", cfg.DigestCron, err)
	}

	c.Start()
	log.Printf("morning digest scheduled: %s", cfg.DigestCron)
	return c, nil
}
