// Package kafka centralizes broker connection settings shared by
// producers and any future consumers.
package kafka

import (
	"os"
	"strings"
)

const (
	// DefaultBrokers is used when no brokers are configured.
	DefaultBrokers = "localhost:9092"

	// DefaultNotificationTopic is the topic notifications publish to.
	DefaultNotificationTopic = "docuvault.notifications"
)

// Config holds broker connection settings.
type Config struct {
	// Brokers is a comma-separated list of seed brokers.
	Brokers string `hcl:"brokers,optional"`

	// NotificationTopic overrides the notification topic name.
	NotificationTopic string `hcl:"notification_topic,optional"`
}

// BrokerList returns the configured brokers as a slice, falling back
// to the KAFKA_BROKERS environment variable and then the default.
func (c *Config) BrokerList() []string {
	brokers := c.Brokers
	if brokers == "" {
		brokers = os.Getenv("KAFKA_BROKERS")
	}
	if brokers == "" {
		brokers = DefaultBrokers
	}
	parts := strings.Split(brokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Topic returns the notification topic name.
func (c *Config) Topic() string {
	if c.NotificationTopic != "" {
		return c.NotificationTopic
	}
	if t := os.Getenv("KAFKA_NOTIFICATION_TOPIC"); t != "" {
		return t
	}
	return DefaultNotificationTopic
}
