package utils

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
)

// SlackNotifier posts plain messages to an incoming webhook. An empty
// webhook turns Post into a no-op.
type SlackNotifier struct {
	Webhook string
	Timeout time.Duration
}

func (s *SlackNotifier) Post(text string) error {
	if s == nil || s.Webhook == "" {
		return nil
	}
	timeout := s.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}

	agent := fiber.Post(s.Webhook).JSON(fiber.Map{"text": text}).Timeout(timeout)
	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("slack webhook: %w", errs[0])
	}
	if code != fiber.StatusOK {
		return fmt.Errorf("slack webhook: status %d: %s", code, body)
	}
	return nil
}
